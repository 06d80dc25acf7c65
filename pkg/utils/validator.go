package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// validator.go - валидация входных данных
//
// Назначение:
// Проверка корректности данных на границах системы (API, конфигурация).
//
// Функции:
// - ValidateSymbol / NormalizeSymbol: формат символа рынка (BTCUSDT)
// - ValidateSide: сторона позиции (long/short)
// - ValidateLeverage: плечо в допустимом диапазоне [1, 500]
// - ValidateCollateral / ValidatePrice: положительные величины
// - ValidateThreshold: порог ликвидации в (0, 1)
// - ValidateAPIToken: базовая проверка API токена
//
// Возвращает error с описанием проблемы или nil

// Ошибки валидации
var (
	ErrInvalidSymbol     = errors.New("invalid symbol format")
	ErrInvalidSide       = errors.New("side must be long or short")
	ErrInvalidLeverage   = errors.New("leverage out of range")
	ErrInvalidCollateral = errors.New("collateral must be positive")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidThreshold  = errors.New("threshold must be in (0, 1)")
	ErrInvalidAPIToken   = errors.New("invalid API token")
)

// Границы плеча
const (
	MinLeverage = 1.0
	MaxLeverage = 500.0
)

// symbolPattern - буквы, цифры и разделители, 2-30 символов
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]{1,29}$`)

// apiTokenPattern - минимум 16 символов, буквы/цифры/дефисы/подчёркивания
var apiTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// Известные котируемые валюты для разбора символа
var quoteCurrencies = []string{"USDT", "USDC", "BTC", "ETH", "USD"}

// ValidateSymbol проверяет формат символа рынка
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// IsValidSymbol - булев вариант ValidateSymbol
func IsValidSymbol(symbol string) bool {
	return ValidateSymbol(symbol) == nil
}

// NormalizeSymbol приводит символ к каноническому виду: верхний регистр,
// без разделителей (btc-usdt → BTCUSDT)
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
	return s
}

// ExtractBaseCurrency возвращает базовую валюту символа (BTCUSDT → BTC).
// Неизвестная котируемая валюта - возвращается весь символ.
func ExtractBaseCurrency(symbol string) string {
	s := NormalizeSymbol(symbol)
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s[:len(s)-len(quote)]
		}
	}
	return s
}

// ExtractQuoteCurrency возвращает котируемую валюту символа (BTCUSDT → USDT)
func ExtractQuoteCurrency(symbol string) string {
	s := NormalizeSymbol(symbol)
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return quote
		}
	}
	return ""
}

// ValidateSide проверяет сторону позиции
func ValidateSide(side string) error {
	if side != "long" && side != "short" {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	return nil
}

// ValidateLeverage проверяет плечо в диапазоне [1, 500]
func ValidateLeverage(leverage float64) error {
	if leverage < MinLeverage || leverage > MaxLeverage {
		return fmt.Errorf("%w: %.2f not in [%.0f, %.0f]",
			ErrInvalidLeverage, leverage, MinLeverage, MaxLeverage)
	}
	return nil
}

// ValidateCollateral проверяет залог
func ValidateCollateral(collateral float64) error {
	if collateral <= 0 {
		return fmt.Errorf("%w: %.8f", ErrInvalidCollateral, collateral)
	}
	return nil
}

// ValidatePrice проверяет цену
func ValidatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: %.8f", ErrInvalidPrice, price)
	}
	return nil
}

// ValidateThreshold проверяет порог ликвидации
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold >= 1 {
		return fmt.Errorf("%w: %.4f", ErrInvalidThreshold, threshold)
	}
	return nil
}

// ValidateAPIToken проверяет формат API токена
func ValidateAPIToken(token string) error {
	if !apiTokenPattern.MatchString(token) {
		return ErrInvalidAPIToken
	}
	return nil
}

// IsValidAPIToken - булев вариант ValidateAPIToken
func IsValidAPIToken(token string) bool {
	return ValidateAPIToken(token) == nil
}

// ============================================================
// Составная валидация
// ============================================================

// PositionValidation - входные данные позиции для проверки одним вызовом
type PositionValidation struct {
	Symbol     string
	Side       string
	Collateral float64
	Leverage   float64
	EntryPrice float64
}

// ValidatePosition проверяет все поля позиции и собирает все ошибки сразу,
// а не только первую - форма на клиенте показывает их пользователю списком
func ValidatePosition(v PositionValidation) error {
	var errs ValidationErrors

	errs.AddError("symbol", ValidateSymbol(v.Symbol))
	errs.AddError("side", ValidateSide(v.Side))
	errs.AddError("collateral", ValidateCollateral(v.Collateral))
	errs.AddError("leverage", ValidateLeverage(v.Leverage))
	errs.AddError("entry_price", ValidatePrice(v.EntryPrice))

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ============================================================
// Накопитель ошибок валидации
// ============================================================

// ValidationError - ошибка одного поля
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors - накопитель ошибок по полям
type ValidationErrors []ValidationError

// Add добавляет ошибку поля
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// AddError добавляет ошибку поля, игнорируя nil
func (v *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	v.Add(field, err.Error())
}

// HasErrors сообщает, есть ли накопленные ошибки
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Error реализует error
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// hash.go - хеширование API-токенов
//
// Назначение:
// Токен доступа к REST/WS API сервиса хранится только в виде
// bcrypt-хеша (в конфигурации или в БД). Middleware авторизации
// сравнивает присланный токен с хешем, сам токен нигде не пишется.
//
// bcrypt выбран из-за встроенной соли и настраиваемой стоимости:
// перебор хешей остаётся дорогим даже при утечке конфигурации.

const (
	// DefaultCost - стоимость bcrypt по умолчанию.
	// 12 даёт ~250ms на хеширование: заметно для брутфорса,
	// незаметно для единичной проверки токена на запрос
	// (middleware кеширует результат по сессии)
	DefaultCost = 12

	// MaxTokenLength - максимальная длина токена в байтах.
	// bcrypt молча обрезает вход после 72 байт, поэтому более
	// длинные токены отклоняем явно
	MaxTokenLength = 72
)

var (
	// ErrEmptyToken - пустой токен
	ErrEmptyToken = errors.New("token cannot be empty")

	// ErrTokenTooLong - токен длиннее 72 байт
	ErrTokenTooLong = errors.New("token exceeds maximum length of 72 bytes")

	// ErrTokenMismatch - токен не совпадает с хешем
	ErrTokenMismatch = errors.New("token does not match hash")

	// ErrInvalidHash - хеш повреждён или не является bcrypt-хешем
	ErrInvalidHash = errors.New("invalid bcrypt hash")
)

// HashToken хеширует токен с DefaultCost
func HashToken(token string) (string, error) {
	return HashTokenWithCost(token, DefaultCost)
}

// HashTokenWithCost хеширует токен с указанной стоимостью.
// Cost вне диапазона bcrypt приводится к MinCost/MaxCost.
func HashTokenWithCost(token string, cost int) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}
	if len(token) > MaxTokenLength {
		return "", ErrTokenTooLong
	}

	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyToken сверяет токен с bcrypt-хешем.
//
// Возвращает:
//   - nil: токен совпадает
//   - ErrTokenMismatch: токен не совпадает
//   - ErrInvalidHash: хеш повреждён
func VerifyToken(token, hash string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrTokenMismatch
	}

	return ErrInvalidHash
}

// CheckTokenMatch - bool-обёртка над VerifyToken для middleware
func CheckTokenMatch(token, hash string) bool {
	return VerifyToken(token, hash) == nil
}

// GetHashCost извлекает стоимость из bcrypt-хеша
func GetHashCost(hash string) (int, error) {
	if hash == "" {
		return 0, ErrInvalidHash
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return 0, ErrInvalidHash
	}

	return cost, nil
}

// NeedsRehash сообщает нужно ли перехешировать токен.
// true если хеш невалиден или его стоимость ниже желаемой.
func NeedsRehash(hash string, desiredCost int) bool {
	cost, err := GetHashCost(hash)
	if err != nil {
		return true
	}
	return cost < desiredCost
}

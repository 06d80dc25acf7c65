package utils

import (
	"math"
)

// math.go - математические утилиты движка риска
//
// Назначение:
// Вспомогательные функции для расчётов над ценами и позициями.
// Все функции чистые (pure functions) без побочных эффектов.
//
// Функции:
// - RoundToTick: округление цены до шага цены рынка
// - PercentChange: относительное изменение в процентах
// - CalculatePNL: прибыль/убыток позиции
// - SafeDiv: деление с защитой от нуля
// - Clamp: ограничение значения диапазоном

// RoundToTick округляет цену к ближайшему кратному tickSize.
//
// Используется при форматировании цены ликвидации для вывода:
// сырое значение формулы почти никогда не лежит на сетке цен рынка.
//
// Параметры:
//   - value: исходная цена
//   - tickSize: минимальный шаг цены рынка
//
// Возвращает:
//   - Округлённое значение, кратное tickSize
//   - Если tickSize <= 0, возвращает исходное значение
//
// Примеры:
//   - RoundToTick(45750.123, 0.1) = 45750.1
//   - RoundToTick(105644.59835, 0.01) = 105644.60
func RoundToTick(value, tickSize float64) float64 {
	if tickSize <= 0 {
		return value
	}
	return math.Round(value/tickSize) * tickSize
}

// RoundToTickDown округляет цену ВНИЗ до кратного tickSize.
// Консервативный вариант для цен ликвидации лонгов: лучше показать
// ликвидацию чуть ближе, чем чуть дальше.
func RoundToTickDown(value, tickSize float64) float64 {
	if tickSize <= 0 {
		return value
	}
	return math.Floor(value/tickSize) * tickSize
}

// RoundToTickUp округляет цену ВВЕРХ до кратного tickSize.
// Консервативный вариант для цен ликвидации шортов.
func RoundToTickUp(value, tickSize float64) float64 {
	if tickSize <= 0 {
		return value
	}
	return math.Ceil(value/tickSize) * tickSize
}

// PercentChange возвращает изменение from → to в процентах.
//
// Параметры:
//   - from: базовое значение
//   - to: новое значение
//
// Возвращает:
//   - Изменение в процентах (знаковое)
//   - Если from <= 0, возвращает 0
//
// Примеры:
//   - PercentChange(50000, 51000) = 2.0
//   - PercentChange(51000, 45750) ≈ -10.29
func PercentChange(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}

// CalculatePNL рассчитывает прибыль/убыток позиции в валюте котировки.
//
// Формулы:
//   - Long PNL = (P_current - P_entry) × size / P_entry
//   - Short PNL = (P_entry - P_current) × size / P_entry
//
// где size - размер позиции в валюте котировки (collateral × leverage).
//
// Параметры:
//   - side: "long" или "short"
//   - entryPrice: цена входа
//   - currentPrice: текущая цена
//   - positionSize: размер позиции в валюте котировки
//
// Возвращает:
//   - PNL (обычно в USDT); 0 при некорректных входах
func CalculatePNL(side string, entryPrice, currentPrice, positionSize float64) float64 {
	if positionSize <= 0 || entryPrice <= 0 {
		return 0
	}

	switch side {
	case "long":
		// Лонг: прибыль если цена выросла
		return (currentPrice - entryPrice) * positionSize / entryPrice
	case "short":
		// Шорт: прибыль если цена упала
		return (entryPrice - currentPrice) * positionSize / entryPrice
	default:
		return 0
	}
}

// SafeDiv делит a на b, возвращая fallback при нулевом или NaN знаменателе
func SafeDiv(a, b, fallback float64) float64 {
	if b == 0 || math.IsNaN(b) {
		return fallback
	}
	res := a / b
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return fallback
	}
	return res
}

// Abs возвращает абсолютное значение числа
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Min возвращает минимум из двух чисел
func Min(a, b float64) float64 {
	return math.Min(a, b)
}

// Max возвращает максимум из двух чисел
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// Clamp ограничивает значение диапазоном [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

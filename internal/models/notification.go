package models

import "time"

// Notification представляет уведомление о событии риска
type Notification struct {
	ID         int                    `json:"id" db:"id"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	Type       string                 `json:"type" db:"type"`         // AT_RISK, CRITICAL, RECOVERED, DATA_ERROR
	Severity   string                 `json:"severity" db:"severity"` // info, warn, error
	PositionID *int                   `json:"position_id,omitempty" db:"position_id"`
	Message    string                 `json:"message" db:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeAtRisk    = "AT_RISK"    // дистанция до ликвидации < 10%
	NotificationTypeCritical  = "CRITICAL"   // дистанция до ликвидации < 5%
	NotificationTypeRecovered = "RECOVERED"  // позиция вернулась в безопасную зону
	NotificationTypeDataError = "DATA_ERROR" // источник рыночных данных недоступен
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

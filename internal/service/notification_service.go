package service

import (
	"context"
	"errors"

	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

// ErrNotificationSuppressed - тип уведомления отключен в настройках
var ErrNotificationSuppressed = errors.New("notification type disabled in settings")

// NotificationService - бизнес-логика журнала уведомлений.
//
// Уведомления создает монитор риска (пересечение порогов AT_RISK /
// CRITICAL / RECOVERED) и слой рыночных данных (DATA_ERROR). Сервис
// фильтрует их по настройкам, сохраняет в БД и раздает подписчикам.
type NotificationService struct {
	notificationRepo NotificationRepositoryInterface
	settingsRepo     SettingsRepositoryInterface
	logger           *utils.Logger
}

// NewNotificationService создает новый экземпляр сервиса уведомлений
func NewNotificationService(
	notificationRepo NotificationRepositoryInterface,
	settingsRepo SettingsRepositoryInterface,
	logger *utils.Logger,
) *NotificationService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		logger:           logger.WithComponent("service.notification"),
	}
}

// GetNotifications возвращает последние уведомления, опционально
// отфильтрованные по типам
func (s *NotificationService) GetNotifications(types []string, limit int) ([]*models.Notification, error) {
	if len(types) == 0 {
		return s.notificationRepo.GetRecent(limit)
	}
	return s.notificationRepo.GetByTypes(types, limit)
}

// GetNotificationCount возвращает общее количество уведомлений
func (s *NotificationService) GetNotificationCount() (int, error) {
	return s.notificationRepo.Count()
}

// ClearNotifications очищает журнал уведомлений
func (s *NotificationService) ClearNotifications() error {
	if err := s.notificationRepo.DeleteAll(); err != nil {
		return err
	}
	s.logger.Info("notification log cleared")
	return nil
}

// CreateNotification сохраняет уведомление, если его тип включен
// в настройках. Отключенный тип - ErrNotificationSuppressed.
func (s *NotificationService) CreateNotification(n *models.Notification) error {
	enabled, err := s.typeEnabled(n.Type)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrNotificationSuppressed
	}

	return s.notificationRepo.Create(n)
}

// Run потребляет уведомления монитора до отмены контекста или закрытия
// канала. Подавленные типы молча пропускаются, ошибки БД логируются но
// не останавливают цикл: журнал вторичен по отношению к мониторингу.
// broadcast (если задан) вызывается для каждого сохраненного уведомления.
func (s *NotificationService) Run(ctx context.Context, ch <-chan *models.Notification, broadcast func(*models.Notification)) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := s.CreateNotification(n); err != nil {
				if !errors.Is(err, ErrNotificationSuppressed) {
					s.logger.Error("failed to persist notification",
						utils.String("type", n.Type),
						utils.Err(err),
					)
				}
				continue
			}
			if broadcast != nil {
				broadcast(n)
			}
		}
	}
}

// typeEnabled проверяет тип уведомления по настройкам.
// Неизвестный тип пропускается: лучше лишнее уведомление, чем потерянное.
func (s *NotificationService) typeEnabled(notificationType string) (bool, error) {
	prefs, err := s.settingsRepo.GetNotificationPrefs()
	if err != nil {
		return false, err
	}

	switch notificationType {
	case models.NotificationTypeAtRisk:
		return prefs.AtRisk, nil
	case models.NotificationTypeCritical:
		return prefs.Critical, nil
	case models.NotificationTypeRecovered:
		return prefs.Recovered, nil
	case models.NotificationTypeDataError:
		return prefs.DataError, nil
	default:
		return true, nil
	}
}

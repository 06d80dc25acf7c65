package service

import (
	"errors"

	"liqcalc/internal/models"
	"liqcalc/internal/repository"
	"liqcalc/pkg/utils"
)

// Ошибки сервиса позиций
var (
	ErrPositionNotFound      = errors.New("position not found")
	ErrPositionAlreadyActive = errors.New("position is already active")
	ErrPositionAlreadyPaused = errors.New("position is already paused")
	ErrMaxPositionsReached   = errors.New("maximum number of watched positions reached")
)

// MaxWatchedPositions - лимит отслеживаемых позиций.
// Монитор пересчитывает все активные позиции каждый tick, лимит
// держит цикл предсказуемо коротким.
const MaxWatchedPositions = 100

// PositionService - бизнес-логика управления отслеживаемыми позициями
type PositionService struct {
	positionRepo PositionRepositoryInterface
	logger       *utils.Logger
}

// NewPositionService создает новый экземпляр сервиса позиций
func NewPositionService(positionRepo PositionRepositoryInterface, logger *utils.Logger) *PositionService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &PositionService{
		positionRepo: positionRepo,
		logger:       logger.WithComponent("service.position"),
	}
}

// CreatePositionRequest - запрос регистрации позиции
type CreatePositionRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Collateral float64 `json:"collateral"`
	Leverage   float64 `json:"leverage"`
	EntryPrice float64 `json:"entry_price"`
}

// UpdatePositionRequest - частичное обновление позиции.
// Обновляются только переданные поля.
type UpdatePositionRequest struct {
	Collateral *float64 `json:"collateral,omitempty"`
	Leverage   *float64 `json:"leverage,omitempty"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
}

// CreatePosition регистрирует позицию для мониторинга.
//
// Выполняет:
// 1. Валидацию всех входов (символ, сторона, залог, плечо, цена входа)
// 2. Проверку лимита количества позиций
// 3. Сохранение в БД со статусом active
func (s *PositionService) CreatePosition(req *CreatePositionRequest) (*models.WatchedPosition, error) {
	if err := utils.ValidatePosition(utils.PositionValidation{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Collateral: req.Collateral,
		Leverage:   req.Leverage,
		EntryPrice: req.EntryPrice,
	}); err != nil {
		return nil, err
	}

	count, err := s.positionRepo.Count()
	if err != nil {
		return nil, err
	}
	if count >= MaxWatchedPositions {
		return nil, ErrMaxPositionsReached
	}

	position := &models.WatchedPosition{
		Symbol:     utils.NormalizeSymbol(req.Symbol),
		Side:       req.Side,
		Collateral: req.Collateral,
		Leverage:   req.Leverage,
		EntryPrice: req.EntryPrice,
		Status:     models.PositionStatusActive,
	}

	if err := s.positionRepo.Create(position); err != nil {
		return nil, err
	}

	s.logger.Info("position registered",
		utils.PositionID(position.ID),
		utils.Symbol(position.Symbol),
		utils.Side(position.Side),
		utils.Leverage(position.Leverage),
	)

	return position, nil
}

// GetPosition возвращает позицию по ID
func (s *PositionService) GetPosition(id int) (*models.WatchedPosition, error) {
	position, err := s.positionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return position, nil
}

// GetPositions возвращает все зарегистрированные позиции
func (s *PositionService) GetPositions() ([]*models.WatchedPosition, error) {
	return s.positionRepo.GetAll()
}

// GetActivePositions возвращает активно мониторимые позиции
func (s *PositionService) GetActivePositions() ([]*models.WatchedPosition, error) {
	return s.positionRepo.GetActive()
}

// UpdatePosition обновляет входы позиции.
// Символ и сторона неизменяемы: другой рынок или направление - новая
// позиция, а не правка существующей.
func (s *PositionService) UpdatePosition(id int, req *UpdatePositionRequest) (*models.WatchedPosition, error) {
	position, err := s.GetPosition(id)
	if err != nil {
		return nil, err
	}

	if req.Collateral != nil {
		if err := utils.ValidateCollateral(*req.Collateral); err != nil {
			return nil, err
		}
		position.Collateral = *req.Collateral
	}
	if req.Leverage != nil {
		if err := utils.ValidateLeverage(*req.Leverage); err != nil {
			return nil, err
		}
		position.Leverage = *req.Leverage
	}
	if req.EntryPrice != nil {
		if err := utils.ValidatePrice(*req.EntryPrice); err != nil {
			return nil, err
		}
		position.EntryPrice = *req.EntryPrice
	}

	if err := s.positionRepo.Update(position); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return position, nil
}

// DeletePosition снимает позицию с мониторинга
func (s *PositionService) DeletePosition(id int) error {
	if err := s.positionRepo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return err
	}

	s.logger.Info("position removed", utils.PositionID(id))
	return nil
}

// PausePosition приостанавливает мониторинг позиции
func (s *PositionService) PausePosition(id int) error {
	position, err := s.GetPosition(id)
	if err != nil {
		return err
	}
	if position.Status == models.PositionStatusPaused {
		return ErrPositionAlreadyPaused
	}

	if err := s.positionRepo.UpdateStatus(id, models.PositionStatusPaused); err != nil {
		return err
	}

	s.logger.Info("position paused", utils.PositionID(id), utils.Symbol(position.Symbol))
	return nil
}

// ResumePosition возобновляет мониторинг позиции
func (s *PositionService) ResumePosition(id int) error {
	position, err := s.GetPosition(id)
	if err != nil {
		return err
	}
	if position.Status == models.PositionStatusActive {
		return ErrPositionAlreadyActive
	}

	if err := s.positionRepo.UpdateStatus(id, models.PositionStatusActive); err != nil {
		return err
	}

	s.logger.Info("position resumed", utils.PositionID(id), utils.Symbol(position.Symbol))
	return nil
}

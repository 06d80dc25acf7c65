package repository

import (
	"database/sql"
	"errors"
	"time"

	"liqcalc/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository - работа с таблицей watched_positions
//
// Таблица хранит только входы расчёта (сторона, залог, плечо, цена входа).
// Результаты расчётов не персистятся.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create регистрирует позицию для мониторинга
func (r *PositionRepository) Create(position *models.WatchedPosition) error {
	query := `
		INSERT INTO watched_positions (symbol, side, collateral, leverage, entry_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	now := time.Now()
	position.CreatedAt = now
	position.UpdatedAt = now

	if position.Status == "" {
		position.Status = models.PositionStatusActive
	}

	return r.db.QueryRow(
		query,
		position.Symbol,
		position.Side,
		position.Collateral,
		position.Leverage,
		position.EntryPrice,
		position.Status,
		position.CreatedAt,
		position.UpdatedAt,
	).Scan(&position.ID)
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(id int) (*models.WatchedPosition, error) {
	query := `
		SELECT id, symbol, side, collateral, leverage, entry_price, status, created_at, updated_at
		FROM watched_positions
		WHERE id = $1`

	position := &models.WatchedPosition{}
	err := r.db.QueryRow(query, id).Scan(
		&position.ID,
		&position.Symbol,
		&position.Side,
		&position.Collateral,
		&position.Leverage,
		&position.EntryPrice,
		&position.Status,
		&position.CreatedAt,
		&position.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return position, nil
}

// GetAll возвращает все зарегистрированные позиции
func (r *PositionRepository) GetAll() ([]*models.WatchedPosition, error) {
	query := `
		SELECT id, symbol, side, collateral, leverage, entry_price, status, created_at, updated_at
		FROM watched_positions
		ORDER BY created_at DESC`

	return r.queryPositions(query)
}

// GetActive возвращает только активно мониторимые позиции
func (r *PositionRepository) GetActive() ([]*models.WatchedPosition, error) {
	query := `
		SELECT id, symbol, side, collateral, leverage, entry_price, status, created_at, updated_at
		FROM watched_positions
		WHERE status = $1
		ORDER BY created_at DESC`

	return r.queryPositions(query, models.PositionStatusActive)
}

// GetBySymbol возвращает позиции по символу рынка
func (r *PositionRepository) GetBySymbol(symbol string) ([]*models.WatchedPosition, error) {
	query := `
		SELECT id, symbol, side, collateral, leverage, entry_price, status, created_at, updated_at
		FROM watched_positions
		WHERE symbol = $1
		ORDER BY created_at DESC`

	return r.queryPositions(query, symbol)
}

// ActiveSymbols возвращает уникальные символы активных позиций.
// Монитор опрашивает котировки только по этому списку.
func (r *PositionRepository) ActiveSymbols() ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM watched_positions
		WHERE status = $1
		ORDER BY symbol`

	rows, err := r.db.Query(query, models.PositionStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return symbols, nil
}

// Update обновляет параметры позиции
func (r *PositionRepository) Update(position *models.WatchedPosition) error {
	query := `
		UPDATE watched_positions
		SET symbol = $1, side = $2, collateral = $3, leverage = $4, entry_price = $5, status = $6, updated_at = $7
		WHERE id = $8`

	position.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		query,
		position.Symbol,
		position.Side,
		position.Collateral,
		position.Leverage,
		position.EntryPrice,
		position.Status,
		position.UpdatedAt,
		position.ID,
	)
	if err != nil {
		return err
	}

	return r.requireAffected(result)
}

// UpdateStatus переводит позицию между active и paused
func (r *PositionRepository) UpdateStatus(id int, status string) error {
	if status != models.PositionStatusActive && status != models.PositionStatusPaused {
		return errors.New("invalid status: must be 'active' or 'paused'")
	}

	query := `
		UPDATE watched_positions
		SET status = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}

	return r.requireAffected(result)
}

// Delete снимает позицию с мониторинга
func (r *PositionRepository) Delete(id int) error {
	query := `DELETE FROM watched_positions WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return r.requireAffected(result)
}

// Count возвращает общее количество позиций
func (r *PositionRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM watched_positions`

	var count int
	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// CountActive возвращает количество активных позиций
func (r *PositionRepository) CountActive() (int, error) {
	query := `SELECT COUNT(*) FROM watched_positions WHERE status = $1`

	var count int
	if err := r.db.QueryRow(query, models.PositionStatusActive).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// queryPositions выполняет SELECT и сканирует строки
func (r *PositionRepository) queryPositions(query string, args ...interface{}) ([]*models.WatchedPosition, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.WatchedPosition
	for rows.Next() {
		position := &models.WatchedPosition{}
		err := rows.Scan(
			&position.ID,
			&position.Symbol,
			&position.Side,
			&position.Collateral,
			&position.Leverage,
			&position.EntryPrice,
			&position.Status,
			&position.CreatedAt,
			&position.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// requireAffected переводит "0 строк затронуто" в ErrPositionNotFound
func (r *PositionRepository) requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPositionNotFound
	}
	return nil
}

package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// GameRecordRepo реализует repository.GameRecordRepository
type GameRecordRepo struct {
	db *gorm.DB
}

// NewGameRecordRepo создает новый репозиторий записей участия
func NewGameRecordRepo(db *gorm.DB) *GameRecordRepo {
	return &GameRecordRepo{db: db}
}

// Create создает запись участия. Уникальный индекс (game_id, account_id)
// гарантирует max 1 запись на участника: 23505 → ErrConflict.
func (r *GameRecordRepo) Create(record *entity.GameRecord) error {
	err := r.db.Create(record).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account #%d already joined game #%d",
				apperrors.ErrConflict, record.AccountID, record.GameID)
		}
		return err
	}
	return nil
}

// GetByID возвращает запись участия по ID
func (r *GameRecordRepo) GetByID(id uint) (*entity.GameRecord, error) {
	var record entity.GameRecord
	err := r.db.First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByGameAndAccount возвращает запись участия аккаунта в игре
func (r *GameRecordRepo) GetByGameAndAccount(gameID, accountID uint) (*entity.GameRecord, error) {
	var record entity.GameRecord
	err := r.db.Where("game_id = ? AND account_id = ?", gameID, accountID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// MarkFinished атомарно переводит запись в finished.
// RowsAffected == 0 → запись уже завершена (конкурентный submit).
func (r *GameRecordRepo) MarkFinished(recordID uint) error {
	result := r.db.Model(&entity.GameRecord{}).
		Where("id = ? AND is_finished = ?", recordID, false).
		Update("is_finished", true)

	if result.Error != nil {
		return fmt.Errorf("finish record #%d failed: %w", recordID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: record #%d is already finished", apperrors.ErrConflict, recordID)
	}

	return nil
}

// ListByGame возвращает участников игры с предзагруженным Account
func (r *GameRecordRepo) ListByGame(gameID uint, filters repository.RecordFilters, limit, offset int) ([]entity.GameRecord, int64, error) {
	var records []entity.GameRecord
	var total int64

	query := r.db.Model(&entity.GameRecord{}).Where("game_records.game_id = ?", gameID)

	if filters.Search != "" {
		query = query.Joins("JOIN accounts ON accounts.id = game_records.account_id").
			Where("accounts.username ILIKE ?", "%"+filters.Search+"%")
	}

	if filters.IsFinished != nil {
		query = query.Where("game_records.is_finished = ?", *filters.IsFinished)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Account").
		Limit(limit).
		Offset(offset).
		Order("game_records.created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListByAccount возвращает историю участия аккаунта (новые первыми)
func (r *GameRecordRepo) ListByAccount(accountID uint, limit, offset int) ([]entity.GameRecord, int64, error) {
	var records []entity.GameRecord
	var total int64

	query := r.db.Model(&entity.GameRecord{}).Where("account_id = ?", accountID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// CountByGame возвращает число участников игры
func (r *GameRecordRepo) CountByGame(gameID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.GameRecord{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	return count, err
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

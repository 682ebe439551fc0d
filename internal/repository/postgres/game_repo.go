package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// GameRepo реализует repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo создает новый репозиторий игр
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create создает новую игру в рамках переданной транзакции.
// tx == nil означает выполнение вне транзакции.
func (r *GameRepo) Create(tx *gorm.DB, game *entity.Game) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(game).Error
}

// GetByID возвращает игру по ID
func (r *GameRepo) GetByID(id uint) (*entity.Game, error) {
	var game entity.Game
	err := r.db.First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// GetWithQuizzes возвращает игру вместе с ее вопросами
func (r *GameRepo) GetWithQuizzes(id uint) (*entity.Game, error) {
	var game entity.Game
	err := r.db.Preload("Quizzes", func(db *gorm.DB) *gorm.DB {
		return db.Order("game_quizzes.id ASC")
	}).First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// Update обновляет информацию об игре
func (r *GameRepo) Update(game *entity.Game) error {
	return r.db.Save(game).Error
}

// UpdateStatus точечно обновляет статус игры без полного Save
func (r *GameRepo) UpdateStatus(gameID uint, status string) error {
	return r.db.Model(&entity.Game{}).
		Where("id = ?", gameID).
		Update("status", status).
		Error
}

// AtomicTransition атомарно переводит игру из статуса from в to.
// - RowsAffected == 0 → игра уже не в статусе from (конкурентный переход)
// - Другая DB ошибка → возвращается как есть
func (r *GameRepo) AtomicTransition(gameID uint, from, to string) error {
	result := r.db.Model(&entity.Game{}).
		Where("id = ? AND status = ?", gameID, from).
		Update("status", to)

	if result.Error != nil {
		return fmt.Errorf("transition game #%d %s->%s failed: %w", gameID, from, to, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: game #%d is not %s", apperrors.ErrConflict, gameID, from)
	}

	return nil
}

// EndNow завершает игру одним UPDATE: статус ended и end_time = now.
// Идемпотентно: уже завершенная игра остается завершенной.
func (r *GameRepo) EndNow(gameID uint) error {
	result := r.db.Model(&entity.Game{}).
		Where("id = ? AND status <> ?", gameID, entity.GameStatusEnded).
		Updates(map[string]interface{}{
			"status":   entity.GameStatusEnded,
			"end_time": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("end game #%d failed: %w", gameID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: game #%d is already ended", apperrors.ErrConflict, gameID)
	}

	return nil
}

// List возвращает список игр с фильтрами и total count
func (r *GameRepo) List(filters repository.GameFilters, limit, offset int) ([]entity.Game, int64, error) {
	var games []entity.Game
	var total int64

	// Строим базовый запрос
	query := r.db.Model(&entity.Game{})

	// Применяем фильтры
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
	}

	if filters.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filters.ClassroomID)
	}

	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if filters.IsTest != nil {
		query = query.Where("is_test = ?", *filters.IsTest)
	}

	// Получаем total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Применяем пагинацию и сортировку
	err := query.Limit(limit).Offset(offset).Order("start_time DESC, id DESC").Find(&games).Error
	if err != nil {
		return nil, 0, err
	}

	return games, total, nil
}

// Delete удаляет игру (вопросы и записи участия удаляются каскадно)
func (r *GameRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Game{}, id).Error
}

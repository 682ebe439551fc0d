package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"gorm.io/gorm"
)

// GameFilters определяет фильтры для поиска игр
type GameFilters struct {
	Status      string // Фильтр по статусу (created, ongoing, ended)
	Search      string // Поиск по названию
	ClassroomID *uint  // Только игры конкретного класса
	CreatedBy   *uint  // Только игры конкретного автора
	IsTest      *bool  // Только тестовые / только обычные
}

// GameRepository определяет методы для работы с играми
type GameRepository interface {
	Create(tx *gorm.DB, game *entity.Game) error
	GetByID(id uint) (*entity.Game, error)
	GetWithQuizzes(id uint) (*entity.Game, error)
	Update(game *entity.Game) error
	// UpdateStatus точечно обновляет статус без full Save
	UpdateStatus(gameID uint, status string) error
	// AtomicTransition атомарно переводит игру из статуса from в to.
	// Возвращает ErrConflict, если игра уже не в статусе from.
	AtomicTransition(gameID uint, from, to string) error
	// EndNow завершает игру: статус ended и end_time = now одним UPDATE
	EndNow(gameID uint) error
	List(filters GameFilters, limit, offset int) ([]entity.Game, int64, error) // Возвращает также total count
	Delete(id uint) error
}

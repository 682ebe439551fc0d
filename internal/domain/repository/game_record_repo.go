package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// RecordFilters определяет фильтры для списка участников игры
type RecordFilters struct {
	Search     string // Поиск по имени участника
	IsFinished *bool  // Только завершившие / только активные
}

// GameRecordRepository определяет методы для работы с записями участия
type GameRecordRepository interface {
	Create(record *entity.GameRecord) error
	GetByID(id uint) (*entity.GameRecord, error)
	GetByGameAndAccount(gameID, accountID uint) (*entity.GameRecord, error)
	// MarkFinished атомарно переводит запись в finished.
	// Возвращает ErrConflict, если запись уже завершена.
	MarkFinished(recordID uint) error
	// ListByGame возвращает участников игры с предзагруженным Account
	ListByGame(gameID uint, filters RecordFilters, limit, offset int) ([]entity.GameRecord, int64, error)
	// ListByAccount возвращает историю участия аккаунта (новые первыми)
	ListByAccount(accountID uint, limit, offset int) ([]entity.GameRecord, int64, error)
	CountByGame(gameID uint) (int64, error)
}

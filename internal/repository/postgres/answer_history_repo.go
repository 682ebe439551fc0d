package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// AnswerHistoryRepo реализует repository.AnswerHistoryRepository
type AnswerHistoryRepo struct {
	db *gorm.DB
}

// NewAnswerHistoryRepo создает новый репозиторий истории ответов
func NewAnswerHistoryRepo(db *gorm.DB) *AnswerHistoryRepo {
	return &AnswerHistoryRepo{db: db}
}

// Upsert сохраняет ответ атомарно: INSERT ... ON CONFLICT по паре
// (game_record_id, game_quiz_id) перезаписывает user_answer и is_correct.
// Конкурентные отправки одного ответа сходятся к последней записи.
func (r *AnswerHistoryRepo) Upsert(history *entity.AnswerHistory) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "game_record_id"},
			{Name: "game_quiz_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"user_answer", "is_correct", "updated_at"}),
	}).Create(history).Error
}

// GetByRecord возвращает все ответы записи участия (в порядке вопросов)
func (r *AnswerHistoryRepo) GetByRecord(recordID uint) ([]entity.AnswerHistory, error) {
	var histories []entity.AnswerHistory
	err := r.db.Where("game_record_id = ?", recordID).
		Order("game_quiz_id ASC").
		Find(&histories).Error
	return histories, err
}

// GetByRecordAndQuiz возвращает ответ на конкретный вопрос
func (r *AnswerHistoryRepo) GetByRecordAndQuiz(recordID, quizID uint) (*entity.AnswerHistory, error) {
	var history entity.AnswerHistory
	err := r.db.Where("game_record_id = ? AND game_quiz_id = ?", recordID, quizID).
		First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &history, nil
}

// CountCorrect возвращает число верных ответов записи участия
func (r *AnswerHistoryRepo) CountCorrect(recordID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.AnswerHistory{}).
		Where("game_record_id = ? AND is_correct = ?", recordID, true).
		Count(&count).Error
	return count, err
}

// CountByRecord возвращает общее число ответов записи участия
func (r *AnswerHistoryRepo) CountByRecord(recordID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.AnswerHistory{}).
		Where("game_record_id = ?", recordID).
		Count(&count).Error
	return count, err
}

package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// AnswerHistoryRepository определяет методы для работы с историей ответов
type AnswerHistoryRepository interface {
	// Upsert сохраняет ответ атомарно: при конфликте по паре
	// (game_record_id, game_quiz_id) перезаписывает user_answer и is_correct
	Upsert(history *entity.AnswerHistory) error
	GetByRecord(recordID uint) ([]entity.AnswerHistory, error)
	GetByRecordAndQuiz(recordID, quizID uint) (*entity.AnswerHistory, error)
	// CountCorrect возвращает число верных ответов записи участия
	CountCorrect(recordID uint) (int64, error)
	CountByRecord(recordID uint) (int64, error)
}

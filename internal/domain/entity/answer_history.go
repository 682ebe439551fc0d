package entity

import (
	"time"
)

// AnswerHistory представляет проверенный ответ участника на один GameQuiz.
// Пара (game_record_id, game_quiz_id) уникальна: повторная отправка до
// завершения записи выполняется как upsert и перезаписывает UserAnswer/IsCorrect.
type AnswerHistory struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	GameRecordID uint        `gorm:"not null;uniqueIndex:idx_history_record_quiz" json:"game_record_id"`
	GameQuizID   uint        `gorm:"not null;uniqueIndex:idx_history_record_quiz" json:"game_quiz_id"`
	UserAnswer   StringArray `gorm:"type:jsonb;not null" json:"user_answer"`
	IsCorrect    bool        `gorm:"not null" json:"is_correct"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (AnswerHistory) TableName() string {
	return "answer_histories"
}

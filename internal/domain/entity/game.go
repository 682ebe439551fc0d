package entity

import (
	"time"
)

// Константы статусов игры
const (
	GameStatusCreated = "created"
	GameStatusOnGoing = "ongoing"
	GameStatusEnded   = "ended"
)

// Game представляет игровую сессию (игру или тест), созданную из банка вопросов.
// Статус пересчитывается лениво от текущего времени при каждом чтении -
// фонового планировщика нет.
type Game struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	ClassroomID     *uint      `gorm:"index" json:"classroom_id,omitempty"` // null = личная/публичная игра
	QuizBankID      uint       `gorm:"not null;index" json:"quiz_bank_id"`
	NumberOfQuizzes int        `gorm:"not null" json:"number_of_quizzes"`
	Status          string     `gorm:"size:20;not null;default:'created';index" json:"status"`
	StartTime       time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time  `gorm:"not null" json:"end_time"`
	DurationMin     *int       `json:"duration_min,omitempty"` // Персональный лимит участника в минутах
	IsTest          bool       `gorm:"not null;default:false" json:"is_test"`
	CreatedBy       uint       `gorm:"not null;index" json:"created_by"`
	Quizzes         []GameQuiz `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Game) TableName() string {
	return "games"
}

// IsCreated проверяет, что игра еще не началась
func (g *Game) IsCreated() bool {
	return g.Status == GameStatusCreated
}

// IsOnGoing проверяет, идет ли игра сейчас
func (g *Game) IsOnGoing() bool {
	return g.Status == GameStatusOnGoing
}

// IsEnded проверяет, завершена ли игра
func (g *Game) IsEnded() bool {
	return g.Status == GameStatusEnded
}

// DeriveStatus вычисляет статус игры от текущего времени.
// Статус монотонен (created -> ongoing -> ended): ручной Start/End
// никогда не откатывается назад временной проверкой, ended - терминальный.
func (g *Game) DeriveStatus(now time.Time) string {
	if g.Status == GameStatusEnded || !now.Before(g.EndTime) {
		return GameStatusEnded
	}
	if g.Status == GameStatusOnGoing || !now.Before(g.StartTime) {
		return GameStatusOnGoing
	}
	return GameStatusCreated
}

// HasDuration проверяет, задан ли персональный лимит времени
func (g *Game) HasDuration() bool {
	return g.DurationMin != nil && *g.DurationMin > 0
}

// SubmissionDeadline возвращает дедлайн отправки ответов для записи участника,
// начавшего сессию в sessionStart. Второй результат false, если лимит не задан.
func (g *Game) SubmissionDeadline(sessionStart time.Time) (time.Time, bool) {
	if !g.HasDuration() {
		return time.Time{}, false
	}
	return sessionStart.Add(time.Duration(*g.DurationMin) * time.Minute), true
}

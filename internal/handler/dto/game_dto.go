package dto

import (
	"time"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/service"
)

// CreateGameRequest - запрос на создание игры
type CreateGameRequest struct {
	Name            string    `json:"name" binding:"required,max=100"`
	ClassroomID     *uint     `json:"classroom_id"`
	QuizBankID      uint      `json:"quiz_bank_id" binding:"required"`
	NumberOfQuizzes int       `json:"number_of_quizzes" binding:"required,min=1"`
	QuizTypes       []string  `json:"quiz_types" binding:"required,min=1"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required"`
	DurationMin     *int      `json:"duration_min"`
	IsTest          bool      `json:"is_test"`
}

// AddAnswerRequest - отправка ответа на один вопрос
type AddAnswerRequest struct {
	GameQuizID uint     `json:"game_quiz_id" binding:"required"`
	UserAnswer []string `json:"user_answer" binding:"required"`
}

// SubmitTestRequest - пакетная сдача теста
type SubmitTestRequest struct {
	Answers []AddAnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// GameResponse представляет игру в формате для ответа клиенту
type GameResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	ClassroomID     *uint     `json:"classroom_id,omitempty"`
	QuizBankID      uint      `json:"quiz_bank_id"`
	NumberOfQuizzes int       `json:"number_of_quizzes"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMin     *int      `json:"duration_min,omitempty"`
	IsTest          bool      `json:"is_test"`
	CreatedBy       uint      `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewGameResponse создает DTO для игры
func NewGameResponse(game *entity.Game) *GameResponse {
	return &GameResponse{
		ID:              game.ID,
		Name:            game.Name,
		ClassroomID:     game.ClassroomID,
		QuizBankID:      game.QuizBankID,
		NumberOfQuizzes: game.NumberOfQuizzes,
		Status:          game.Status,
		StartTime:       game.StartTime,
		EndTime:         game.EndTime,
		DurationMin:     game.DurationMin,
		IsTest:          game.IsTest,
		CreatedBy:       game.CreatedBy,
		CreatedAt:       game.CreatedAt,
	}
}

// PaginatedGamesResponse - пагинированный список игр
type PaginatedGamesResponse struct {
	Games   []*GameResponse `json:"games"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewPaginatedGamesResponse создает пагинированный список игр
func NewPaginatedGamesResponse(games []entity.Game, total int64, page, perPage int) *PaginatedGamesResponse {
	items := make([]*GameResponse, 0, len(games))
	for i := range games {
		items = append(items, NewGameResponse(&games[i]))
	}
	return &PaginatedGamesResponse{
		Games:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
}

// GameQuizResponse представляет вопрос игры. Эталонные ответы
// заполняются только при разборе завершенной игры.
type GameQuizResponse struct {
	ID             uint     `json:"id"`
	GameID         uint     `json:"game_id"`
	Questions      []string `json:"questions"`
	Answers        []string `json:"answers"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
	Type           string   `json:"type"`
}

// NewGameQuizResponse создает DTO вопроса. includeCorrect раскрывает
// эталонные ответы (разбор после окончания обычной игры).
func NewGameQuizResponse(quiz *entity.GameQuiz, includeCorrect bool) *GameQuizResponse {
	resp := &GameQuizResponse{
		ID:        quiz.ID,
		GameID:    quiz.GameID,
		Questions: quiz.Questions,
		Answers:   quiz.Answers,
		Type:      quiz.Type,
	}
	if includeCorrect {
		resp.CorrectAnswers = quiz.CorrectAnswers
	}
	return resp
}

// NewGameQuizListResponse создает список DTO вопросов
func NewGameQuizListResponse(quizzes []entity.GameQuiz, includeCorrect bool) []*GameQuizResponse {
	items := make([]*GameQuizResponse, 0, len(quizzes))
	for i := range quizzes {
		items = append(items, NewGameQuizResponse(&quizzes[i], includeCorrect))
	}
	return items
}

// GameRecordResponse представляет запись участия с производным баллом
type GameRecordResponse struct {
	ID         uint      `json:"id"`
	GameID     uint      `json:"game_id"`
	AccountID  uint      `json:"account_id"`
	Username   string    `json:"username,omitempty"`
	IsFinished bool      `json:"is_finished"`
	TotalMark  int64     `json:"total_mark"`
	Answered   int64     `json:"answered"`
	JoinedAt   time.Time `json:"joined_at"`
}

// NewGameRecordResponse создает DTO записи участия
func NewGameRecordResponse(summary *service.RecordSummary) *GameRecordResponse {
	resp := &GameRecordResponse{
		ID:         summary.Record.ID,
		GameID:     summary.Record.GameID,
		AccountID:  summary.Record.AccountID,
		IsFinished: summary.Record.IsFinished,
		TotalMark:  summary.TotalMark,
		Answered:   summary.Answered,
		JoinedAt:   summary.Record.CreatedAt,
	}
	if summary.Record.Account != nil {
		resp.Username = summary.Record.Account.Username
	}
	return resp
}

// PaginatedRecordsResponse - пагинированный список записей участия
type PaginatedRecordsResponse struct {
	Records []*GameRecordResponse `json:"records"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	PerPage int                   `json:"per_page"`
}

// NewPaginatedRecordsResponse создает пагинированный список записей
func NewPaginatedRecordsResponse(summaries []service.RecordSummary, total int64, page, perPage int) *PaginatedRecordsResponse {
	items := make([]*GameRecordResponse, 0, len(summaries))
	for i := range summaries {
		items = append(items, NewGameRecordResponse(&summaries[i]))
	}
	return &PaginatedRecordsResponse{
		Records: items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
}

// AnswerHistoryResponse представляет проверенный ответ
type AnswerHistoryResponse struct {
	ID         uint      `json:"id"`
	GameQuizID uint      `json:"game_quiz_id"`
	UserAnswer []string  `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAnswerHistoryResponse создает DTO проверенного ответа
func NewAnswerHistoryResponse(history *entity.AnswerHistory) *AnswerHistoryResponse {
	return &AnswerHistoryResponse{
		ID:         history.ID,
		GameQuizID: history.GameQuizID,
		UserAnswer: history.UserAnswer,
		IsCorrect:  history.IsCorrect,
		UpdatedAt:  history.UpdatedAt,
	}
}

// NewAnswerHistoryListResponse создает список DTO проверенных ответов
func NewAnswerHistoryListResponse(histories []entity.AnswerHistory) []*AnswerHistoryResponse {
	items := make([]*AnswerHistoryResponse, 0, len(histories))
	for i := range histories {
		items = append(items, NewAnswerHistoryResponse(&histories[i]))
	}
	return items
}

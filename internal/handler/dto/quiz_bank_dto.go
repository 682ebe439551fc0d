package dto

import (
	"time"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// QuizItemRequest - один вопрос банка в запросе
type QuizItemRequest struct {
	Question    string `json:"question" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	Explanation string `json:"explanation"`
}

// CreateQuizBankRequest - запрос на создание банка вопросов
type CreateQuizBankRequest struct {
	Name       string            `json:"name" binding:"required,max=100"`
	Visibility string            `json:"visibility" binding:"required,oneof=public private"`
	Quizzes    []QuizItemRequest `json:"quizzes" binding:"dive"`
}

// UpdateQuizBankRequest - запрос на изменение банка
type UpdateQuizBankRequest struct {
	Name       string `json:"name" binding:"max=100"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public private"`
}

// AddQuizzesRequest - запрос на пополнение банка
type AddQuizzesRequest struct {
	Quizzes []QuizItemRequest `json:"quizzes" binding:"required,min=1,dive"`
}

// QuizItemResponse представляет вопрос банка в ответе
type QuizItemResponse struct {
	ID          uint   `json:"id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

// QuizBankResponse представляет банк вопросов в ответе
type QuizBankResponse struct {
	ID         uint               `json:"id"`
	Name       string             `json:"name"`
	Visibility string             `json:"visibility"`
	AccountID  uint               `json:"account_id"`
	QuizCount  int                `json:"quiz_count"`
	Quizzes    []QuizItemResponse `json:"quizzes,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewQuizBankResponse создает DTO банка. includeQuizzes управляет
// вложением вопросов с ответами.
func NewQuizBankResponse(bank *entity.QuizBank, includeQuizzes bool) *QuizBankResponse {
	resp := &QuizBankResponse{
		ID:         bank.ID,
		Name:       bank.Name,
		Visibility: bank.Visibility,
		AccountID:  bank.AccountID,
		QuizCount:  len(bank.Quizzes),
		CreatedAt:  bank.CreatedAt,
	}
	if includeQuizzes {
		resp.Quizzes = make([]QuizItemResponse, 0, len(bank.Quizzes))
		for _, quiz := range bank.Quizzes {
			resp.Quizzes = append(resp.Quizzes, QuizItemResponse{
				ID:          quiz.ID,
				Question:    quiz.Question,
				Answer:      quiz.Answer,
				Explanation: quiz.Explanation,
			})
		}
	}
	return resp
}

// PaginatedBanksResponse - пагинированный список банков
type PaginatedBanksResponse struct {
	Banks   []*QuizBankResponse `json:"banks"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// NewPaginatedBanksResponse создает пагинированный список банков
func NewPaginatedBanksResponse(banks []entity.QuizBank, total int64, page, perPage int) *PaginatedBanksResponse {
	items := make([]*QuizBankResponse, 0, len(banks))
	for i := range banks {
		items = append(items, NewQuizBankResponse(&banks[i], false))
	}
	return &PaginatedBanksResponse{
		Banks:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
}

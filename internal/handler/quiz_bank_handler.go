package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/classquiz-api/internal/domain/repository"
	"github.com/yourusername/classquiz-api/internal/handler/dto"
	"github.com/yourusername/classquiz-api/internal/middleware"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
	"github.com/yourusername/classquiz-api/internal/service"
)

// QuizBankHandler обрабатывает запросы, связанные с банками вопросов
type QuizBankHandler struct {
	bankService *service.QuizBankService
}

// NewQuizBankHandler создает новый обработчик банков вопросов
func NewQuizBankHandler(bankService *service.QuizBankService) *QuizBankHandler {
	return &QuizBankHandler{bankService: bankService}
}

// CreateBank обрабатывает запрос на создание банка
// POST /api/quiz-banks
func (h *QuizBankHandler) CreateBank(c *gin.Context) {
	var req dto.CreateQuizBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bank, err := h.bankService.CreateBank(req.Name, req.Visibility, toQuizItems(req.Quizzes),
		middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizBankResponse(bank, true))
}

// GetBank возвращает банк с вопросами
// GET /api/quiz-banks/:id
func (h *QuizBankHandler) GetBank(c *gin.Context) {
	bankID := c.MustGet("bankID").(uint)

	bank, err := h.bankService.GetBank(bankID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizBankResponse(bank, true))
}

// ListBanks возвращает банки, видимые вызывающему
// GET /api/quiz-banks
func (h *QuizBankHandler) ListBanks(c *gin.Context) {
	page, pageSize := paginationParams(c)

	filters := repository.BankFilters{
		Search:     c.Query("search"),
		Visibility: c.Query("visibility"),
	}
	banks, total, err := h.bankService.ListBanks(filters, page, pageSize, middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedBanksResponse(banks, total, page, pageSize))
}

// ListOwnBanks возвращает банки вызывающего
// GET /api/quiz-banks/mine
func (h *QuizBankHandler) ListOwnBanks(c *gin.Context) {
	page, pageSize := paginationParams(c)

	banks, total, err := h.bankService.ListOwnBanks(page, pageSize, middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedBanksResponse(banks, total, page, pageSize))
}

// UpdateBank меняет имя или видимость банка
// PUT /api/quiz-banks/:id
func (h *QuizBankHandler) UpdateBank(c *gin.Context) {
	bankID := c.MustGet("bankID").(uint)

	var req dto.UpdateQuizBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bank, err := h.bankService.UpdateBank(bankID, req.Name, req.Visibility, middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizBankResponse(bank, false))
}

// AddQuizzes пополняет банк вопросами
// POST /api/quiz-banks/:id/quizzes
func (h *QuizBankHandler) AddQuizzes(c *gin.Context) {
	bankID := c.MustGet("bankID").(uint)

	var req dto.AddQuizzesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bank, err := h.bankService.AddQuizzes(bankID, toQuizItems(req.Quizzes), middleware.AccountFromContext(c))
	if err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizBankResponse(bank, true))
}

// DeleteBank удаляет банк
// DELETE /api/quiz-banks/:id
func (h *QuizBankHandler) DeleteBank(c *gin.Context) {
	bankID := c.MustGet("bankID").(uint)

	if err := h.bankService.DeleteBank(bankID, middleware.AccountFromContext(c)); err != nil {
		h.handleBankError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz bank deleted successfully"})
}

func toQuizItems(requests []dto.QuizItemRequest) []service.QuizItem {
	items := make([]service.QuizItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, service.QuizItem{
			Question:    req.Question,
			Answer:      req.Answer,
			Explanation: req.Explanation,
		})
	}
	return items
}

// handleBankError обрабатывает ошибки сервиса банков и отправляет соответствующий HTTP ответ
func (h *QuizBankHandler) handleBankError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuizBankHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/classquiz-api/internal/domain/repository"
	"github.com/yourusername/classquiz-api/internal/handler/dto"
	"github.com/yourusername/classquiz-api/internal/middleware"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
	"github.com/yourusername/classquiz-api/internal/service"
)

// Лимит выгрузки записей в отчет
const exportRecordsLimit = 10000

// GameHandler обрабатывает запросы, связанные с играми
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler создает новый обработчик игр
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// CreateGame обрабатывает запрос на создание игры
// POST /api/games
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req dto.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := middleware.AccountFromContext(c)
	game, err := h.gameService.CreateGame(service.CreateGameParams{
		Name:            req.Name,
		ClassroomID:     req.ClassroomID,
		QuizBankID:      req.QuizBankID,
		NumberOfQuizzes: req.NumberOfQuizzes,
		QuizTypes:       req.QuizTypes,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMin:     req.DurationMin,
		IsTest:          req.IsTest,
	}, account)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGameResponse(game))
}

// GetGame возвращает информацию об игре
// GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	game, err := h.gameService.GetGame(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameResponse(game))
}

// ListGames возвращает список игр с фильтрами и пагинацией
// GET /api/games
func (h *GameHandler) ListGames(c *gin.Context) {
	page, pageSize := paginationParams(c)

	filters := repository.GameFilters{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if classroomStr := c.Query("classroom_id"); classroomStr != "" {
		if id, err := strconv.ParseUint(classroomStr, 10, 32); err == nil {
			classroomID := uint(id)
			filters.ClassroomID = &classroomID
		}
	}

	games, total, err := h.gameService.ListGames(filters, page, pageSize, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedGamesResponse(games, total, page, pageSize))
}

// StartGame вручную запускает игру
// POST /api/games/:id/start
func (h *GameHandler) StartGame(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	game, err := h.gameService.StartGame(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameResponse(game))
}

// EndGame вручную завершает игру
// POST /api/games/:id/end
func (h *GameHandler) EndGame(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	game, err := h.gameService.EndGame(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameResponse(game))
}

// DeleteGame удаляет игру
// DELETE /api/games/:id
func (h *GameHandler) DeleteGame(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	if err := h.gameService.DeleteGame(gameID, middleware.AccountFromContext(c)); err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
}

// JoinGame подключает вызывающего к игре
// POST /api/games/:id/join
func (h *GameHandler) JoinGame(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	record, err := h.gameService.JoinGame(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id": record.ID,
		"game_id":   record.GameID,
		"joined_at": record.CreatedAt,
	})
}

// NextQuiz возвращает следующий вопрос после current_quiz_id
// GET /api/games/:id/next-quiz?current_quiz_id=N
func (h *GameHandler) NextQuiz(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	var currentQuizID uint
	if currentStr := c.Query("current_quiz_id"); currentStr != "" {
		parsed, err := strconv.ParseUint(currentStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current_quiz_id"})
			return
		}
		currentQuizID = uint(parsed)
	}

	quiz, err := h.gameService.NextQuiz(gameID, currentQuizID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	if quiz == nil {
		// Вопросы исчерпаны, запись участия завершена
		c.JSON(http.StatusOK, gin.H{"quiz": nil, "finished": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quiz": dto.NewGameQuizResponse(quiz, false), "finished": false})
}

// GetQuizzes возвращает все вопросы игры
// GET /api/games/:id/quizzes
func (h *GameHandler) GetQuizzes(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	quizzes, revealAnswers, err := h.gameService.GetQuizzes(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": dto.NewGameQuizListResponse(quizzes, revealAnswers)})
}

// AddAnswer проверяет и сохраняет ответ на один вопрос
// POST /api/games/:id/answers
func (h *GameHandler) AddAnswer(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	var req dto.AddAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := h.gameService.AddAnswerHistory(gameID, req.GameQuizID, req.UserAnswer, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnswerHistoryResponse(history))
}

// SubmitTest пакетно сдает тест
// POST /api/games/:id/submit
func (h *GameHandler) SubmitTest(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	var req dto.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := make([]service.AnswerSubmission, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, service.AnswerSubmission{
			GameQuizID: answer.GameQuizID,
			UserAnswer: answer.UserAnswer,
		})
	}

	result, err := h.gameService.SubmitTest(gameID, answers, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecords возвращает записи участия игры
// GET /api/games/:id/records
func (h *GameHandler) GetRecords(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)
	page, pageSize := paginationParams(c)

	filters := repository.RecordFilters{Search: c.Query("search")}
	if finishedStr := c.Query("is_finished"); finishedStr != "" {
		finished := finishedStr == "true"
		filters.IsFinished = &finished
	}

	summaries, total, err := h.gameService.GetGameRecords(gameID, filters, page, pageSize, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedRecordsResponse(summaries, total, page, pageSize))
}

// GetOwnRecord возвращает запись участия вызывающего
// GET /api/games/:id/records/me
func (h *GameHandler) GetOwnRecord(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	summary, err := h.gameService.GetOwnRecord(gameID, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameRecordResponse(summary))
}

// GetAnswerHistory возвращает ответы участника
// GET /api/games/:id/history?account_id=N (по умолчанию - свои)
func (h *GameHandler) GetAnswerHistory(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)
	account := middleware.AccountFromContext(c)

	targetAccountID := account.ID
	if targetStr := c.Query("account_id"); targetStr != "" {
		parsed, err := strconv.ParseUint(targetStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account_id"})
			return
		}
		targetAccountID = uint(parsed)
	}

	histories, err := h.gameService.GetAnswerHistory(gameID, targetAccountID, account)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": dto.NewAnswerHistoryListResponse(histories)})
}

// GetGameHistory возвращает историю участия вызывающего
// GET /api/games/history
func (h *GameHandler) GetGameHistory(c *gin.Context) {
	page, pageSize := paginationParams(c)

	summaries, total, err := h.gameService.GetGameHistory(middleware.AccountFromContext(c), page, pageSize)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedRecordsResponse(summaries, total, page, pageSize))
}

// ExportRecords выгружает записи участия игры в CSV или XLSX
// GET /api/games/:id/records/export?format=csv|xlsx
func (h *GameHandler) ExportRecords(c *gin.Context) {
	gameID := c.MustGet("gameID").(uint)

	summaries, _, err := h.gameService.GetGameRecords(gameID, repository.RecordFilters{},
		1, exportRecordsLimit, middleware.AccountFromContext(c))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		h.exportCSV(c, gameID, summaries)
	case "xlsx":
		h.exportXLSX(c, gameID, summaries)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported export format: %s", format)})
	}
}

func (h *GameHandler) exportCSV(c *gin.Context, gameID uint, summaries []service.RecordSummary) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="game_%d_records.csv"`, gameID))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"account_id", "username", "joined_at", "is_finished", "answered", "total_mark"})
	for _, summary := range summaries {
		username := ""
		if summary.Record.Account != nil {
			username = summary.Record.Account.Username
		}
		writer.Write([]string{
			strconv.FormatUint(uint64(summary.Record.AccountID), 10),
			username,
			summary.Record.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.FormatBool(summary.Record.IsFinished),
			strconv.FormatInt(summary.Answered, 10),
			strconv.FormatInt(summary.TotalMark, 10),
		})
	}
}

func (h *GameHandler) exportXLSX(c *gin.Context, gameID uint, summaries []service.RecordSummary) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Records"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Account ID", "Username", "Joined At", "Finished", "Answered", "Total Mark"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	for row, summary := range summaries {
		username := ""
		if summary.Record.Account != nil {
			username = summary.Record.Account.Username
		}
		values := []interface{}{
			summary.Record.AccountID,
			username,
			summary.Record.CreatedAt.Format("2006-01-02 15:04:05"),
			summary.Record.IsFinished,
			summary.Answered,
			summary.TotalMark,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			file.SetCellValue(sheet, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="game_%d_records.xlsx"`, gameID))

	if err := file.Write(c.Writer); err != nil {
		log.Printf("[GameHandler] Ошибка выгрузки XLSX для игры %d: %v", gameID, err)
	}
}

// paginationParams извлекает page и page_size из query (дефолт 1/20)
func paginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// handleGameError обрабатывает ошибки сервисов игр и отправляет соответствующий HTTP ответ
func (h *GameHandler) handleGameError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrTimeExpired) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in GameHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

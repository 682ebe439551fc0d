package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/handler/dto"
	"github.com/yourusername/classquiz-api/internal/middleware"
	"github.com/yourusername/classquiz-api/internal/service"
	"github.com/yourusername/classquiz-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsManager      *websocket.Manager
	gameService    *service.GameService
	authMiddleware *middleware.AuthMiddleware
	allowedOrigins []string
	upgrader       gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(
	wsManager *websocket.Manager,
	gameService *service.GameService,
	authMiddleware *middleware.AuthMiddleware,
	allowedOrigins []string,
) *WSHandler {
	handler := &WSHandler{
		wsManager:      wsManager,
		gameService:    gameService,
		authMiddleware: authMiddleware,
		allowedOrigins: allowedOrigins,
	}
	handler.upgrader = gorillaws.Upgrader{
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		EnableCompression: true,
		CheckOrigin:       handler.checkOrigin,
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	return handler
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Пустой Origin - не браузерный клиент (мобильное приложение, curl и т.д.)
	if origin == "" {
		return true
	}

	// Список разрешенных origin синхронизирован с CORS в main.go
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
	return false
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Аутентификация через ?ticket=<jwt>, так как браузерный WebSocket API
// не умеет ставить заголовок Authorization.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ticket := c.Query("ticket")
	// НЕ логируем тикет - это секретные данные аутентификации
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.authMiddleware.ParseToken(ticket)
	if err != nil {
		log.Printf("WebSocket: Invalid or expired ticket - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	log.Printf("WebSocket: Connection upgraded for AccountID: %d", claims.AccountID)

	account := &entity.Account{
		ID:       claims.AccountID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}
	client := websocket.NewClient(h.wsManager.Hub(), h.wsManager, conn, account)

	// Блокируется до закрытия соединения
	client.Run()
}

// registerMessageHandlers регистрирует обработчики для различных типов сообщений
func (h *WSHandler) registerMessageHandlers() {
	// Подключение к игре: создаем запись участия и подписываем соединение
	h.wsManager.RegisterHandler("game:join", func(data json.RawMessage, client *websocket.Client) error {
		var joinEvent struct {
			GameID uint `json:"game_id"`
		}
		if err := json.Unmarshal(data, &joinEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:join: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:join event")
			return fmt.Errorf("failed to parse game:join event: %w", err)
		}

		record, err := h.gameService.JoinGame(joinEvent.GameID, client.Account)
		if err != nil {
			log.Printf("[WSHandler] Ошибка подключения аккаунта %d к игре %d: %v",
				client.AccountID, joinEvent.GameID, err)
			h.wsManager.SendErrorToClient(client, "join_error", err.Error())
			return nil
		}

		h.wsManager.Hub().JoinGame(client, joinEvent.GameID)
		h.wsManager.SendEventToClient(client, "game:joined", map[string]interface{}{
			"game_id":   joinEvent.GameID,
			"record_id": record.ID,
		})
		return nil
	})

	// Ответ на один вопрос с немедленной проверкой
	h.wsManager.RegisterHandler("game:answer", func(data json.RawMessage, client *websocket.Client) error {
		var answerEvent struct {
			GameID     uint     `json:"game_id"`
			GameQuizID uint     `json:"game_quiz_id"`
			UserAnswer []string `json:"user_answer"`
		}
		if err := json.Unmarshal(data, &answerEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:answer: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:answer event")
			return err
		}

		history, err := h.gameService.AddAnswerHistory(answerEvent.GameID, answerEvent.GameQuizID,
			answerEvent.UserAnswer, client.Account)
		if err != nil {
			log.Printf("[WSHandler] Ошибка обработки ответа аккаунта %d на вопрос %d: %v",
				client.AccountID, answerEvent.GameQuizID, err)
			h.wsManager.SendErrorToClient(client, "answer_error", err.Error())
			return nil
		}

		h.wsManager.SendEventToClient(client, "game:answer_result", dto.NewAnswerHistoryResponse(history))
		return nil
	})

	// Запрос следующего вопроса
	h.wsManager.RegisterHandler("game:next", func(data json.RawMessage, client *websocket.Client) error {
		var nextEvent struct {
			GameID        uint `json:"game_id"`
			CurrentQuizID uint `json:"current_quiz_id"`
		}
		if err := json.Unmarshal(data, &nextEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:next: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:next event")
			return err
		}

		quiz, err := h.gameService.NextQuiz(nextEvent.GameID, nextEvent.CurrentQuizID, client.Account)
		if err != nil {
			log.Printf("[WSHandler] Ошибка выдачи следующего вопроса игры %d аккаунту %d: %v",
				nextEvent.GameID, client.AccountID, err)
			h.wsManager.SendErrorToClient(client, "next_error", err.Error())
			return nil
		}
		if quiz == nil {
			h.wsManager.SendEventToClient(client, "game:finished", map[string]interface{}{
				"game_id": nextEvent.GameID,
			})
			return nil
		}

		h.wsManager.SendEventToClient(client, "game:quiz", dto.NewGameQuizResponse(quiz, false))
		return nil
	})

	// Полный список вопросов игры (эталонные ответы скрыты в DTO)
	h.wsManager.RegisterHandler("game:quizzes", func(data json.RawMessage, client *websocket.Client) error {
		var listEvent struct {
			GameID uint `json:"game_id"`
		}
		if err := json.Unmarshal(data, &listEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:quizzes: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:quizzes event")
			return err
		}

		quizzes, revealAnswers, err := h.gameService.GetQuizzes(listEvent.GameID, client.Account)
		if err != nil {
			log.Printf("[WSHandler] Ошибка выдачи вопросов игры %d аккаунту %d: %v",
				listEvent.GameID, client.AccountID, err)
			h.wsManager.SendErrorToClient(client, "quizzes_error", err.Error())
			return nil
		}

		h.wsManager.SendEventToClient(client, "game:quiz_list", map[string]interface{}{
			"game_id": listEvent.GameID,
			"quizzes": dto.NewGameQuizListResponse(quizzes, revealAnswers),
		})
		return nil
	})

	// Выход из игры: отписка соединения, запись участия не трогаем
	h.wsManager.RegisterHandler("game:leave", func(data json.RawMessage, client *websocket.Client) error {
		var leaveEvent struct {
			GameID uint `json:"game_id"`
		}
		if err := json.Unmarshal(data, &leaveEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:leave: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:leave event")
			return err
		}

		h.wsManager.Hub().LeaveGame(client)
		if err := h.gameService.LeaveGame(leaveEvent.GameID, client.Account); err != nil {
			log.Printf("[WSHandler] Ошибка выхода аккаунта %d из игры %d: %v",
				client.AccountID, leaveEvent.GameID, err)
		}
		h.wsManager.SendEventToClient(client, "game:left", map[string]interface{}{
			"game_id": leaveEvent.GameID,
		})
		return nil
	})

	// Проверка соединения
	h.wsManager.RegisterHandler("client:heartbeat", func(data json.RawMessage, client *websocket.Client) error {
		h.wsManager.SendEventToClient(client, "server:heartbeat", map[string]interface{}{
			"client_id": client.ID,
		})
		return nil
	})
}

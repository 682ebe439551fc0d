package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager обрабатывает WebSocket сообщения и рассылает события игр
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// Hub возвращает нижележащий хаб соединений
func (m *Manager) Hub() *Hub {
	return m.hub
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Невалидное сообщение от клиента %s: %v", client.ID, err)
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WebSocketManager] Нет обработчика для типа '%s' от клиента %s", event.Type, client.ID)
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}

	rawMessage, _ := json.Marshal(event.Data)
	if err := handler(rawMessage, client); err != nil {
		// Доменные отказы уже отправлены клиенту, соединение не рвем
		log.Printf("[WebSocketManager] Обработчик '%s' вернул ошибку для клиента %s: %v",
			event.Type, client.ID, err)
		return nil
	}

	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	m.SendEventToClient(client, "server:error", map[string]string{
		"code":    code,
		"message": message,
	})
}

// SendEventToClient отправляет событие конкретному соединению
func (m *Manager) SendEventToClient(client *Client, eventType string, data interface{}) {
	jsonBytes, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации события %s: %v", eventType, err)
		return
	}
	select {
	case client.send <- jsonBytes:
	default:
		log.Printf("[WebSocketManager] Буфер клиента %s переполнен, событие %s пропущено",
			client.ID, eventType)
	}
}

// BroadcastToGame отправляет событие всем подписчикам игры.
// Реализует service.GameEventBroadcaster.
func (m *Manager) BroadcastToGame(gameID uint, eventType string, data interface{}) error {
	jsonBytes, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s for game %d: %w", eventType, gameID, err)
	}

	sent := m.hub.BroadcastToGame(gameID, jsonBytes)
	log.Printf("[WebSocketManager] Событие %s игры %d доставлено %d клиентам", eventType, gameID, sent)
	return nil
}

// SendEventToAccount отправляет событие всем соединениям аккаунта
func (m *Manager) SendEventToAccount(accountID uint, eventType string, data interface{}) error {
	jsonBytes, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
	}
	m.hub.SendToAccount(accountID, jsonBytes)
	return nil
}

// GetMetrics возвращает текущие метрики WebSocket-системы
func (m *Manager) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"client_count": m.hub.ClientCount(),
	}
}

package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

const (
	// Таймаут записи сообщения в соединение
	writeWait = 10 * time.Second
	// Таймаут ожидания pong от клиента
	pongWait = 60 * time.Second
	// Период отправки ping, должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер входящего сообщения
	maxMessageSize = 4096
	// Размер буфера исходящих сообщений клиента
	sendBufferSize = 64
)

// Client - одно websocket-соединение аккаунта
type Client struct {
	ID        string
	AccountID uint
	Account   *entity.Account

	hub     *Hub
	manager *Manager
	conn    *websocket.Conn
	send    chan []byte

	mu     sync.RWMutex
	gameID uint
}

// NewClient создает клиента для принятого соединения
func NewClient(hub *Hub, manager *Manager, conn *websocket.Conn, account *entity.Account) *Client {
	return &Client{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Account:   account,
		hub:       hub,
		manager:   manager,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}
}

func (c *Client) setGameID(gameID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

func (c *Client) getGameID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

// Run регистрирует клиента и запускает насосы чтения и записи.
// Блокируется до закрытия соединения.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

// readPump читает входящие сообщения и передает их менеджеру
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocketClient] Неожиданное закрытие соединения %s: %v", c.ID, err)
			}
			return
		}
		if err := c.manager.HandleMessage(message, c); err != nil {
			return
		}
	}
}

// writePump пишет исходящие сообщения и поддерживает соединение ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

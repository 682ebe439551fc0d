package websocket

import (
	"log"
	"sync"
)

// Hub хранит активные соединения и группы подписки по играм.
// Все карты защищены одним мьютексом: нагрузка классной комнаты
// не требует шардирования.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	byAccount map[uint]map[*Client]bool
	byGame    map[uint]map[*Client]bool
}

// NewHub создает новый хаб соединений
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		byAccount: make(map[uint]map[*Client]bool),
		byGame:    make(map[uint]map[*Client]bool),
	}
}

// Register добавляет клиента в хаб
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.byAccount[client.AccountID] == nil {
		h.byAccount[client.AccountID] = make(map[*Client]bool)
	}
	h.byAccount[client.AccountID][client] = true

	log.Printf("[WebSocketHub] Клиент %s (аккаунт %d) подключен, всего клиентов: %d",
		client.ID, client.AccountID, len(h.clients))
}

// Unregister удаляет клиента из хаба и всех групп
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if accountClients := h.byAccount[client.AccountID]; accountClients != nil {
		delete(accountClients, client)
		if len(accountClients) == 0 {
			delete(h.byAccount, client.AccountID)
		}
	}
	h.leaveGameLocked(client)

	log.Printf("[WebSocketHub] Клиент %s отключен, всего клиентов: %d", client.ID, len(h.clients))
}

// JoinGame подписывает клиента на события игры.
// Клиент состоит максимум в одной игровой группе.
func (h *Hub) JoinGame(client *Client, gameID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveGameLocked(client)
	if h.byGame[gameID] == nil {
		h.byGame[gameID] = make(map[*Client]bool)
	}
	h.byGame[gameID][client] = true
	client.setGameID(gameID)

	log.Printf("[WebSocketHub] Клиент %s подписан на игру %d", client.ID, gameID)
}

// LeaveGame отписывает клиента от текущей игры
func (h *Hub) LeaveGame(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveGameLocked(client)
}

func (h *Hub) leaveGameLocked(client *Client) {
	gameID := client.getGameID()
	if gameID == 0 {
		return
	}
	if gameClients := h.byGame[gameID]; gameClients != nil {
		delete(gameClients, client)
		if len(gameClients) == 0 {
			delete(h.byGame, gameID)
		}
	}
	client.setGameID(0)
}

// BroadcastToGame отправляет сообщение всем подписчикам игры.
// Клиенты с переполненным буфером пропускаются, их снимет write pump.
func (h *Hub) BroadcastToGame(gameID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.byGame[gameID] {
		select {
		case client.send <- message:
			sent++
		default:
			log.Printf("[WebSocketHub] Буфер клиента %s переполнен, сообщение игры %d пропущено",
				client.ID, gameID)
		}
	}
	return sent
}

// SendToAccount отправляет сообщение всем соединениям аккаунта
func (h *Hub) SendToAccount(accountID uint, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := false
	for client := range h.byAccount[accountID] {
		select {
		case client.send <- message:
			sent = true
		default:
		}
	}
	return sent
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GameSubscribers возвращает id аккаунтов, подписанных на игру
func (h *Hub) GameSubscribers(gameID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uint]bool)
	ids := make([]uint, 0)
	for client := range h.byGame[gameID] {
		if !seen[client.AccountID] {
			seen[client.AccountID] = true
			ids = append(ids, client.AccountID)
		}
	}
	return ids
}

package websocket

import (
	"context"
	"sync"

	"craftmarket/internal/domain/entity"
	"craftmarket/pkg/logger"
)

// ChatService is the slice of the message service the registry needs: an
// access check at join time and persistence for socket-sent messages.
type ChatService interface {
	VerifyAccess(ctx context.Context, userID, roomID string) error
	SendFromSocket(ctx context.Context, senderID, roomID, body, msgType, fileURL string) (*entity.Message, error)
	NotifyTyping(ctx context.Context, userID, roomID string, typing bool)
}

// Manager is the connection registry: it tracks authenticated connections and
// the per-room broadcast groups they join. Membership is process-local; a
// multi-instance deployment needs an external relay behind the same interface.
type Manager struct {
	clients     map[string]*Client            // by connection id
	userClients map[string]map[string]*Client // userID -> connection id -> client
	rooms       map[string]map[string]*Client // roomID -> connection id -> client

	Register   chan *Client
	Unregister chan *Client

	svc ChatService
	mu  sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:     make(map[string]*Client),
		userClients: make(map[string]map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
	}
}

// BindService wires the message service in after construction; the service
// itself needs the manager as its broadcaster, so the two are tied together
// at composition time.
func (m *Manager) BindService(svc ChatService) {
	m.svc = svc
}

// Start runs the registration loop until the context is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)

			case client := <-m.Unregister:
				m.removeClient(client)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = client
	if _, ok := m.userClients[client.UserID]; !ok {
		m.userClients[client.UserID] = make(map[string]*Client)
	}
	m.userClients[client.UserID][client.ID] = client

	logger.Info("Connection %s registered for user %s", client.ID, client.UserID)
}

// removeClient drops the connection from every group it joined.
func (m *Manager) removeClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}

	for roomID := range client.rooms {
		m.leaveRoomLocked(client, roomID)
	}

	if conns, ok := m.userClients[client.UserID]; ok {
		delete(conns, client.ID)
		if len(conns) == 0 {
			delete(m.userClients, client.UserID)
		}
	}

	delete(m.clients, client.ID)
	close(client.Send)

	logger.Info("Connection %s unregistered for user %s", client.ID, client.UserID)
}

// JoinRoom adds the connection to the room's broadcast group. Idempotent.
func (m *Manager) JoinRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[string]*Client)
	}
	m.rooms[roomID][client.ID] = client
	client.rooms[roomID] = true
}

// LeaveRoom removes the connection from the group. Idempotent.
func (m *Manager) LeaveRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveRoomLocked(client, roomID)
}

func (m *Manager) leaveRoomLocked(client *Client, roomID string) {
	if group, ok := m.rooms[roomID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// BroadcastToRoom delivers the payload to every connection in the room's
// group except those belonging to excludeUserID. Best effort: a client whose
// send buffer is full is skipped rather than blocking the caller.
func (m *Manager) BroadcastToRoom(roomID string, payload []byte, excludeUserID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.rooms[roomID] {
		if client.UserID == excludeUserID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			logger.Warn("Send buffer full for connection %s, dropping broadcast", client.ID)
		}
	}
}

// SendToUser delivers the payload to all of one user's connections.
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.userClients[userID] {
		select {
		case client.Send <- payload:
		default:
			logger.Warn("Send buffer full for connection %s, dropping message", client.ID)
		}
	}
}

// RoomMembers returns the user ids currently joined to a room.
func (m *Manager) RoomMembers(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var members []string
	for _, client := range m.rooms[roomID] {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			members = append(members, client.UserID)
		}
	}
	return members
}

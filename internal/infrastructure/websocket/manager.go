package websocket

import (
	"context"
	"sync"

	"mingle/pkg/logger"
)

// Manager tracks connected clients and their chat room membership, and fans
// messages out to them. One client per user; all access goes through the
// mutex, mutations of the registry itself through the channels.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]bool
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	// OnRoomEmpty, when set, is invoked after the last member of a room is
	// gone, so the owner of the room's live subscription can tear it down.
	OnRoomEmpty func(roomID string)
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registration loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				var emptied []string
				m.mutex.Lock()
				if _, ok := m.clients[client.UserID]; ok {
					delete(m.clients, client.UserID)
					for roomID, members := range m.rooms {
						delete(members, client.UserID)
						if len(members) == 0 {
							delete(m.rooms, roomID)
							emptied = append(emptied, roomID)
						}
					}
					close(client.Send)
				}
				m.mutex.Unlock()
				if m.OnRoomEmpty != nil {
					for _, roomID := range emptied {
						m.OnRoomEmpty(roomID)
					}
				}
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// JoinChatRoom adds the user to a room's fan-out set.
func (m *Manager) JoinChatRoom(roomID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]bool)
	}
	m.rooms[roomID][userID] = true
}

// IsInRoom reports whether the user currently belongs to the room's
// fan-out set.
func (m *Manager) IsInRoom(roomID, userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.rooms[roomID][userID]
}

// LeaveChatRoom removes the user from a room's fan-out set and reports
// whether the room still has members.
func (m *Manager) LeaveChatRoom(roomID, userID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(m.rooms, roomID)
		return false
	}
	return true
}

// SendToUser delivers a message to one connected user. Disconnected users
// are skipped; durable delivery belongs to the store, not this channel.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- message:
	default:
		logger.Warn("Dropping message for slow client %s", userID)
	}
}

// SendToChatRoom delivers a message to every connected member of the room
// except excludeUserID.
func (m *Manager) SendToChatRoom(roomID string, message []byte, excludeUserID string) {
	m.mutex.RLock()
	var targets []*Client
	for userID := range m.rooms[roomID] {
		if userID == excludeUserID {
			continue
		}
		if client, ok := m.clients[userID]; ok {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- message:
		default:
			logger.Warn("Dropping room %s message for slow client %s", roomID, client.UserID)
		}
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "craftmarket/pkg/errors"
	"craftmarket/pkg/logger"
)

// Realtime event types. Client-sent events may carry a ref id that acks and
// errors echo back, so a sender can match responses to requests.
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventMessageAck     = "message-ack"
	EventTyping         = "typing"
	EventError          = "error"
	EventPing           = "ping"
	EventPong           = "pong"
)

type Event struct {
	Type      string          `json:"type"`
	Ref       string          `json:"ref,omitempty"`
	RoomID    string          `json:"room_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type sendMessageData struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

type typingData struct {
	Typing bool `json:"typing"`
}

const eventTimeout = 10 * time.Second

// HandleClientEvent dispatches one decoded client event. Join requests are
// re-checked against room membership here; the REST-layer check alone is not
// trusted.
func (m *Manager) HandleClientEvent(client *Client, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		m.sendError(client, "", apperrors.CodeBadRequest, "Malformed event")
		return
	}

	switch event.Type {
	case EventPing:
		m.sendEvent(client, Event{Type: EventPong})

	case EventJoinRoom:
		m.handleJoinRoom(client, event)

	case EventLeaveRoom:
		if event.RoomID == "" {
			m.sendError(client, event.Ref, apperrors.CodeBadRequest, "room_id is required")
			return
		}
		m.LeaveRoom(client, event.RoomID)

	case EventSendMessage:
		m.handleSendMessage(client, event)

	case EventTyping:
		m.handleTyping(client, event)

	default:
		m.sendError(client, event.Ref, apperrors.CodeBadRequest, "Unknown event type")
	}
}

func (m *Manager) handleJoinRoom(client *Client, event Event) {
	if event.RoomID == "" {
		m.sendError(client, event.Ref, apperrors.CodeBadRequest, "room_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := m.svc.VerifyAccess(ctx, client.UserID, event.RoomID); err != nil {
		logger.Warn("Join denied for user %s on room %s: %v", client.UserID, event.RoomID, err)
		m.sendAppError(client, event.Ref, err)
		return
	}

	m.JoinRoom(client, event.RoomID)
}

func (m *Manager) handleSendMessage(client *Client, event Event) {
	if event.RoomID == "" {
		m.sendError(client, event.Ref, apperrors.CodeBadRequest, "room_id is required")
		return
	}

	var data sendMessageData
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			m.sendError(client, event.Ref, apperrors.CodeBadRequest, "Malformed send-message data")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	message, err := m.svc.SendFromSocket(ctx, client.UserID, event.RoomID, data.Message, data.Type, data.FileURL)
	if err != nil {
		m.sendAppError(client, event.Ref, err)
		return
	}

	// Ack carries the persisted message so the sender learns the server id
	// and timestamp; the broadcast to other members already happened inside
	// the service.
	ack, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal ack for message %s: %v", message.ID, err)
		return
	}
	m.sendEvent(client, Event{Type: EventMessageAck, Ref: event.Ref, RoomID: event.RoomID, Data: ack})
}

func (m *Manager) handleTyping(client *Client, event Event) {
	if event.RoomID == "" {
		return
	}

	var data typingData
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	m.svc.NotifyTyping(ctx, client.UserID, event.RoomID, data.Typing)
}

func (m *Manager) sendEvent(client *Client, event Event) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal %s event for connection %s: %v", event.Type, client.ID, err)
		return
	}

	select {
	case client.Send <- payload:
	default:
		logger.Warn("Send buffer full for connection %s, dropping %s", client.ID, event.Type)
	}
}

func (m *Manager) sendError(client *Client, ref, code, message string) {
	data, _ := json.Marshal(map[string]string{"code": code, "message": message})
	m.sendEvent(client, Event{Type: EventError, Ref: ref, Data: data})
}

func (m *Manager) sendAppError(client *Client, ref string, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		m.sendError(client, ref, appErr.Code, appErr.Message)
		return
	}
	m.sendError(client, ref, apperrors.CodeInternal, "Request failed")
}

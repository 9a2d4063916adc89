package usecase

import (
	"context"
	"encoding/json"
	"time"

	"craftmarket/internal/domain/entity"
	"craftmarket/internal/domain/repository"
	"craftmarket/internal/infrastructure/ratelimit"
	"craftmarket/pkg/errors"
	"craftmarket/pkg/logger"
)

type MessageUseCase struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	rooms       *RoomUseCase
	broadcaster Broadcaster
	rateLimiter *ratelimit.RateLimiter
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	rooms *RoomUseCase,
	broadcaster Broadcaster,
	rateLimiter *ratelimit.RateLimiter,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		rooms:       rooms,
		broadcaster: broadcaster,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	RoomID  string
	Body    string
	Type    string
	FileURL string
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// SendMessage validates, persists and fans out a message. The room summary
// update (lastMessage, unread counters) is a single atomic store write, and
// the broadcast happens synchronously after the commit so delivery order per
// observer matches commit order.
func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*MessageResponse, error) {
	if allowed, _ := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		uc.notifyRateLimited(senderID)
		return nil, errors.TooManyRequests("You are sending messages too quickly")
	}

	if input.Type == "" {
		input.Type = entity.MessageTypeText
	}
	if !entity.ValidMessageType(input.Type) {
		return nil, errors.BadRequest("Unknown message type", nil)
	}
	if input.Type == entity.MessageTypeText && input.Body == "" {
		return nil, errors.BadRequest("Message text must not be empty", nil)
	}

	room, err := uc.roomRepo.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive || !room.HasParticipant(senderID) {
		return nil, errors.Forbidden("You are not a participant of this room", nil)
	}

	message := &entity.Message{
		RoomID:   input.RoomID,
		SenderID: senderID,
		Body:     input.Body,
		Type:     input.Type,
		FileURL:  input.FileURL,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	last := entity.LastMessage{
		SenderID: senderID,
		Text:     message.Body,
		SentAt:   message.CreatedAt,
	}
	if err := uc.roomRepo.SetLastMessage(ctx, room.ID, last, room.OtherParticipants(senderID)); err != nil {
		// The message is already stored; the room summary now lags it until
		// the next successful send. Leave a trace so it can be reconciled.
		logger.Error("Message %s stored but summary update for room %s failed: %v", message.ID, room.ID, err)
		return nil, err
	}

	uc.broadcastMessage(room, message)

	resp := &MessageResponse{Message: message}
	if sender, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		resp.Sender = sender
	}
	return resp, nil
}

// GetHistory returns one page of the room's messages, oldest first within the
// page while page 1 holds the newest messages. Fetching history is the read
// receipt: messages not sent by the requester are marked read and the
// requester's unread counter is reset.
func (uc *MessageUseCase) GetHistory(ctx context.Context, requesterID, roomID string, limit, offset int) ([]*MessageResponse, int64, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, 0, err
	}
	if !room.HasParticipant(requesterID) {
		return nil, 0, errors.Forbidden("You are not a participant of this room", nil)
	}

	messages, total, err := uc.messageRepo.ListByRoom(ctx, roomID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	// Repository pages are newest-first; reverse so the page reads
	// chronologically without client-side sorting.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if err := uc.messageRepo.MarkRoomMessagesRead(ctx, roomID, requesterID); err != nil {
		return nil, 0, err
	}
	if err := uc.roomRepo.ResetUnread(ctx, roomID, requesterID); err != nil {
		return nil, 0, err
	}

	senders := make(map[string]*entity.User)
	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		resp := &MessageResponse{Message: message}
		if sender, ok := senders[message.SenderID]; ok {
			resp.Sender = sender
		} else if sender, err := uc.userRepo.GetByID(ctx, message.SenderID); err == nil {
			senders[message.SenderID] = sender
			resp.Sender = sender
		}
		responses = append(responses, resp)
	}

	return responses, total, nil
}

// SendFromSocket adapts socket-sent messages onto SendMessage for the
// connection registry.
func (uc *MessageUseCase) SendFromSocket(ctx context.Context, senderID, roomID, body, msgType, fileURL string) (*entity.Message, error) {
	resp, err := uc.SendMessage(ctx, senderID, SendMessageInput{
		RoomID:  roomID,
		Body:    body,
		Type:    msgType,
		FileURL: fileURL,
	})
	if err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// VerifyAccess exposes the room access check to the realtime layer, where a
// denied join has to surface as an error event on the socket.
func (uc *MessageUseCase) VerifyAccess(ctx context.Context, userID, roomID string) error {
	hasAccess, err := uc.rooms.VerifyAccess(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if !hasAccess {
		return errors.Forbidden("You are not a participant of this room", nil)
	}
	return nil
}

// NotifyTyping relays a typing indicator to the other room members. Failures
// are logged only; typing is not worth surfacing errors for.
func (uc *MessageUseCase) NotifyTyping(ctx context.Context, userID, roomID string, typing bool) {
	if allowed, _ := uc.rateLimiter.Allow(userID, "typing"); !allowed {
		return
	}
	if err := uc.VerifyAccess(ctx, userID, roomID); err != nil {
		logger.Debug("Typing event rejected for user %s in room %s: %v", userID, roomID, err)
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"type":      "typing-indicator",
		"room_id":   roomID,
		"data":      map[string]interface{}{"user_id": userID, "typing": typing},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	uc.broadcaster.BroadcastToRoom(roomID, payload, userID)
}

func (uc *MessageUseCase) broadcastMessage(room *entity.Room, message *entity.Message) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    "receive-message",
		"room_id": room.ID,
		"data": map[string]interface{}{
			"id":        message.ID,
			"room_id":   message.RoomID,
			"sender":    message.SenderID,
			"message":   message.Body,
			"msg_type":  message.Type,
			"file_url":  message.FileURL,
			"timestamp": message.CreatedAt.UTC().Format(time.RFC3339),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("Failed to marshal broadcast for room %s: %v", room.ID, err)
		return
	}
	uc.broadcaster.BroadcastToRoom(room.ID, payload, message.SenderID)
}

func (uc *MessageUseCase) notifyRateLimited(userID string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"type":      "error",
		"data":      map[string]string{"code": errors.CodeTooManyRequests, "message": "You are sending messages too quickly"},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	uc.broadcaster.SendToUser(userID, payload)
}

package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftmarket/internal/domain/entity"
	"craftmarket/pkg/errors"
)

type fakeChatService struct {
	denyRooms map[string]bool
	sendErr   error
	typing    []string
}

func (s *fakeChatService) VerifyAccess(ctx context.Context, userID, roomID string) error {
	if s.denyRooms[roomID] {
		return errors.Forbidden("You are not a participant of this room", nil)
	}
	return nil
}

func (s *fakeChatService) SendFromSocket(ctx context.Context, senderID, roomID, body, msgType, fileURL string) (*entity.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &entity.Message{
		ID:        "msg-1",
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		Type:      entity.MessageTypeText,
		CreatedAt: time.Now(),
	}, nil
}

func (s *fakeChatService) NotifyTyping(ctx context.Context, userID, roomID string, typing bool) {
	s.typing = append(s.typing, userID+":"+roomID)
}

func newTestManager(svc ChatService) *Manager {
	m := NewManager()
	m.BindService(svc)
	return m
}

func newTestClient(id, userID string) *Client {
	return NewClient(id, userID, nil)
}

func receivePayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	default:
		t.Fatalf("expected a payload on connection %s", c.ID)
		return nil
	}
}

func assertNoPayload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected payload on connection %s: %s", c.ID, payload)
	default:
	}
}

func TestBroadcastToRoomExcludesSender(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	buyer := newTestClient("c1", "buyer-1")
	artisan := newTestClient("c2", "artisan-1")
	m.addClient(buyer)
	m.addClient(artisan)

	m.JoinRoom(buyer, "room-1")
	m.JoinRoom(artisan, "room-1")

	m.BroadcastToRoom("room-1", []byte(`{"hello":true}`), "buyer-1")

	assert.Equal(t, []byte(`{"hello":true}`), receivePayload(t, artisan))
	assertNoPayload(t, buyer)
}

func TestBroadcastReachesAllConnectionsOfAUser(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	phone := newTestClient("c1", "artisan-1")
	laptop := newTestClient("c2", "artisan-1")
	m.addClient(phone)
	m.addClient(laptop)
	m.JoinRoom(phone, "room-1")
	m.JoinRoom(laptop, "room-1")

	m.BroadcastToRoom("room-1", []byte("x"), "buyer-1")

	receivePayload(t, phone)
	receivePayload(t, laptop)
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)
	m.JoinRoom(client, "room-1")
	m.LeaveRoom(client, "room-1")

	m.BroadcastToRoom("room-1", []byte("x"), "")
	assertNoPayload(t, client)

	// Leaving twice is harmless.
	m.LeaveRoom(client, "room-1")
}

func TestUnregisterCleansUpMembership(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)
	m.JoinRoom(client, "room-1")
	m.JoinRoom(client, "room-2")

	m.removeClient(client)

	assert.Empty(t, m.RoomMembers("room-1"))
	assert.Empty(t, m.RoomMembers("room-2"))

	// Send channel is closed on unregister.
	_, open := <-client.Send
	assert.False(t, open)

	// A second unregister of the same client is ignored.
	m.removeClient(client)
}

func TestSendToUser(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	other := newTestClient("c2", "buyer-2")
	m.addClient(client)
	m.addClient(other)

	m.SendToUser("buyer-1", []byte("direct"))

	assert.Equal(t, []byte("direct"), receivePayload(t, client))
	assertNoPayload(t, other)
}

func TestRoomMembersDeduplicatesUsers(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	phone := newTestClient("c1", "buyer-1")
	laptop := newTestClient("c2", "buyer-1")
	m.addClient(phone)
	m.addClient(laptop)
	m.JoinRoom(phone, "room-1")
	m.JoinRoom(laptop, "room-1")

	assert.Equal(t, []string{"buyer-1"}, m.RoomMembers("room-1"))
}

func decodeEvent(t *testing.T, payload []byte) Event {
	t.Helper()
	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHandleJoinRoomAllowed(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"join-room","room_id":"room-1"}`))

	assert.Equal(t, []string{"buyer-1"}, m.RoomMembers("room-1"))
	assertNoPayload(t, client)
}

func TestHandleJoinRoomDenied(t *testing.T) {
	m := newTestManager(&fakeChatService{denyRooms: map[string]bool{"room-1": true}})

	client := newTestClient("c1", "buyer-2")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"join-room","room_id":"room-1","ref":"r7"}`))

	assert.Empty(t, m.RoomMembers("room-1"))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventError, event.Type)
	assert.Equal(t, "r7", event.Ref)

	var data map[string]string
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, errors.CodeForbidden, data["code"])
}

func TestHandleSendMessageAcks(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"send-message","room_id":"room-1","ref":"r1","data":{"message":"hi"}}`))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventMessageAck, event.Type)
	assert.Equal(t, "r1", event.Ref)
	assert.Equal(t, "room-1", event.RoomID)

	var message entity.Message
	require.NoError(t, json.Unmarshal(event.Data, &message))
	assert.Equal(t, "msg-1", message.ID)
	assert.Equal(t, "hi", message.Body)
}

func TestHandleSendMessageFailureNacks(t *testing.T) {
	m := newTestManager(&fakeChatService{sendErr: errors.Forbidden("You are not a participant of this room", nil)})

	client := newTestClient("c1", "buyer-2")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"send-message","room_id":"room-1","ref":"r2","data":{"message":"hi"}}`))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventError, event.Type)
	assert.Equal(t, "r2", event.Ref)

	var data map[string]string
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, errors.CodeForbidden, data["code"])
}

func TestHandleMalformedEvent(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{not json`))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventError, event.Type)
}

func TestHandleUnknownEventType(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"subscribe","ref":"r9"}`))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventError, event.Type)
	assert.Equal(t, "r9", event.Ref)
}

func TestHandlePing(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"ping"}`))

	event := decodeEvent(t, receivePayload(t, client))
	assert.Equal(t, EventPong, event.Type)
}

func TestHandleTypingForwarded(t *testing.T) {
	svc := &fakeChatService{}
	m := newTestManager(svc)

	client := newTestClient("c1", "buyer-1")
	m.addClient(client)

	m.HandleClientEvent(client, []byte(`{"type":"typing","room_id":"room-1","data":{"typing":true}}`))

	assert.Equal(t, []string{"buyer-1:room-1"}, svc.typing)
}

func TestStartRegistersAndUnregisters(t *testing.T) {
	m := newTestManager(&fakeChatService{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	client := newTestClient("c1", "buyer-1")
	m.Register <- client

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		_, ok := m.clients[client.ID]
		return ok
	}, time.Second, 10*time.Millisecond)

	m.Unregister <- client

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		_, ok := m.clients[client.ID]
		return !ok
	}, time.Second, 10*time.Millisecond)
}

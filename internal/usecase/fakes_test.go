package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"craftmarket/internal/domain/entity"
	"craftmarket/pkg/errors"
)

// In-memory repositories mirroring the store's transactional guarantees, so
// the services can be exercised without Firestore.

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room
	keys  map[string]string // triple key -> room id

	failSetLastMessage error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms: make(map[string]*entity.Room),
		keys:  make(map[string]string),
	}
}

func (r *fakeRoomRepo) GetOrCreate(ctx context.Context, proto *entity.Room) (*entity.Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if roomID, ok := r.keys[proto.Key()]; ok {
		if existing := r.rooms[roomID]; existing.IsActive {
			copied := *existing
			return &copied, false, nil
		}
	}

	room := *proto
	room.ID = uuid.New().String()
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	r.rooms[room.ID] = &room
	r.keys[room.Key()] = room.ID

	copied := room
	return &copied, true, nil
}

func (r *fakeRoomRepo) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, errors.NotFound("Room", nil)
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRoomRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Room, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.Room
	for _, room := range r.rooms {
		if room.IsActive && room.HasParticipant(userID) {
			copied := *room
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *fakeRoomRepo) SetLastMessage(ctx context.Context, roomID string, last entity.LastMessage, incrementFor []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failSetLastMessage != nil {
		return r.failSetLastMessage
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.NotFound("Room", nil)
	}
	room.LastMessage = &last
	room.UpdatedAt = time.Now()
	if room.UnreadCount == nil {
		room.UnreadCount = make(map[string]int)
	}
	for _, userID := range incrementFor {
		room.UnreadCount[userID]++
	}
	return nil
}

func (r *fakeRoomRepo) ResetUnread(ctx context.Context, roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.NotFound("Room", nil)
	}
	if room.UnreadCount == nil {
		room.UnreadCount = make(map[string]int)
	}
	room.UnreadCount[userID] = 0
	return nil
}

func (r *fakeRoomRepo) UpdateCustomization(ctx context.Context, roomID string, data entity.CustomizationData, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.NotFound("Room", nil)
	}
	room.Customization = data
	room.CustomizationStatus = status
	room.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRoomRepo) Deactivate(ctx context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return errors.NotFound("Room", nil)
	}
	room.IsActive = false
	room.UpdatedAt = time.Now()
	delete(r.keys, room.Key())
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	byRoom   map[string][]*entity.Message
	sequence int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byRoom: make(map[string][]*entity.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	// Distinct timestamps keep ordering assertions deterministic.
	r.sequence++
	message.CreatedAt = time.Now().Add(time.Duration(r.sequence) * time.Millisecond)

	copied := *message
	r.byRoom[message.RoomID] = append(r.byRoom[message.RoomID], &copied)
	return nil
}

func (r *fakeMessageRepo) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byRoom[roomID]
	total := int64(len(stored))

	// Newest first, like the store query.
	reversed := make([]*entity.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		reversed = append(reversed, &copied)
	}

	if offset > len(reversed) {
		offset = len(reversed)
	}
	end := len(reversed)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return reversed[offset:end], total, nil
}

func (r *fakeMessageRepo) MarkRoomMessagesRead(ctx context.Context, roomID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, message := range r.byRoom[roomID] {
		if message.SenderID != readerID {
			message.IsRead = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) unreadCount(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, message := range r.byRoom[roomID] {
		if !message.IsRead {
			count++
		}
	}
	return count
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, errors.NotFound("User", nil)
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if product, ok := r.products[id]; ok {
		copied := *product
		return &copied, nil
	}
	return nil, errors.NotFound("Product", nil)
}

type broadcastRecord struct {
	RoomID  string
	Payload []byte
	Exclude string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	room   []broadcastRecord
	direct map[string][][]byte
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{direct: make(map[string][][]byte)}
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, payload []byte, excludeUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.room = append(b.room, broadcastRecord{RoomID: roomID, Payload: payload, Exclude: excludeUserID})
}

func (b *fakeBroadcaster) SendToUser(userID string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct[userID] = append(b.direct[userID], payload)
}

func (b *fakeBroadcaster) roomBroadcasts() []broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastRecord(nil), b.room...)
}

package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"craftmarket/internal/domain/entity"
	"craftmarket/internal/domain/repository"
	"craftmarket/pkg/errors"
	"craftmarket/pkg/logger"
)

const (
	roomsCollection    = "chatRooms"
	roomKeysCollection = "roomKeys"
)

type firestoreRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreRoomRepository(client *firestore.Client) repository.RoomRepository {
	return &firestoreRoomRepository{client: client}
}

// GetOrCreate resolves the room for the proto's triple inside a transaction.
// The roomKeys document is the uniqueness constraint: tx.Create on it fails
// when a concurrent caller won the race, the transaction retries and the
// loser observes the winner's room.
func (r *firestoreRoomRepository) GetOrCreate(ctx context.Context, proto *entity.Room) (*entity.Room, bool, error) {
	keyRef := r.client.Collection(roomKeysCollection).Doc(proto.Key())

	var out *entity.Room
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		out, created = nil, false

		keySnap, err := tx.Get(keyRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err == nil {
			roomID, err := keySnap.DataAt("roomId")
			if err != nil {
				return err
			}
			roomSnap, err := tx.Get(r.client.Collection(roomsCollection).Doc(roomID.(string)))
			if err != nil {
				return err
			}
			var existing entity.Room
			if err := roomSnap.DataTo(&existing); err != nil {
				return err
			}
			if existing.IsActive {
				out = &existing
				return nil
			}
			// Stale key for a deactivated room; replace it below.
			if err := tx.Delete(keyRef); err != nil {
				return err
			}
		}

		room := *proto
		room.ID = uuid.New().String()
		now := time.Now()
		room.CreatedAt = now
		room.UpdatedAt = now

		if err := tx.Create(r.client.Collection(roomsCollection).Doc(room.ID), &room); err != nil {
			return err
		}
		if err := tx.Set(keyRef, map[string]interface{}{"roomId": room.ID, "createdAt": now}); err != nil {
			return err
		}

		out = &room
		created = true
		return nil
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to get or create room", err)
	}

	return out, created, nil
}

func (r *firestoreRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	doc, err := r.client.Collection(roomsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Room", err)
		}
		return nil, errors.Internal("Failed to get room", err)
	}

	var room entity.Room
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse room data", err)
	}
	return &room, nil
}

func (r *firestoreRoomRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Room, int64, error) {
	query := r.client.Collection(roomsCollection).
		Where("participants", "array-contains", userID).
		Where("isActive", "==", true).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch rooms", err)
	}

	total := int64(len(allDocs))

	// Paginate in memory; a user's active room count is small.
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	rooms := make([]*entity.Room, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var room entity.Room
		if err := doc.DataTo(&room); err != nil {
			logger.Warn("Skipping malformed room document %s: %v", doc.Ref.ID, err)
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, total, nil
}

func (r *firestoreRoomRepository) SetLastMessage(ctx context.Context, roomID string, last entity.LastMessage, incrementFor []string) error {
	updates := []firestore.Update{
		{Path: "lastMessage", Value: last},
		{Path: "updatedAt", Value: time.Now()},
	}
	for _, userID := range incrementFor {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"unreadCount", userID},
			Value:     firestore.Increment(1),
		})
	}

	if _, err := r.client.Collection(roomsCollection).Doc(roomID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Room", err)
		}
		return errors.Internal("Failed to update room summary", err)
	}
	return nil
}

func (r *firestoreRoomRepository) ResetUnread(ctx context.Context, roomID, userID string) error {
	updates := []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	}
	if _, err := r.client.Collection(roomsCollection).Doc(roomID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Room", err)
		}
		return errors.Internal("Failed to reset unread counter", err)
	}
	return nil
}

func (r *firestoreRoomRepository) UpdateCustomization(ctx context.Context, roomID string, data entity.CustomizationData, customizationStatus string) error {
	updates := []firestore.Update{
		{Path: "customization", Value: data},
		{Path: "customizationStatus", Value: customizationStatus},
		{Path: "updatedAt", Value: time.Now()},
	}
	if _, err := r.client.Collection(roomsCollection).Doc(roomID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Room", err)
		}
		return errors.Internal("Failed to update customization", err)
	}
	return nil
}

// Deactivate soft-deletes the room and frees its uniqueness key in one
// transaction so the triple can be recreated afterwards.
func (r *firestoreRoomRepository) Deactivate(ctx context.Context, roomID string) error {
	roomRef := r.client.Collection(roomsCollection).Doc(roomID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(roomRef)
		if err != nil {
			return err
		}
		var room entity.Room
		if err := snap.DataTo(&room); err != nil {
			return err
		}

		if err := tx.Update(roomRef, []firestore.Update{
			{Path: "isActive", Value: false},
			{Path: "updatedAt", Value: time.Now()},
		}); err != nil {
			return err
		}
		return tx.Delete(r.client.Collection(roomKeysCollection).Doc(room.Key()))
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Room", err)
		}
		return errors.Internal("Failed to deactivate room", err)
	}
	return nil
}

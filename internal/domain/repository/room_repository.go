package repository

import (
	"context"

	"craftmarket/internal/domain/entity"
)

type RoomRepository interface {
	// GetOrCreate finds the active room for the proto's (buyer, artisan,
	// product) triple or creates it. The lookup and create happen in one
	// store transaction so concurrent identical calls resolve to a single
	// room; the boolean reports whether this call created it.
	GetOrCreate(ctx context.Context, proto *entity.Room) (*entity.Room, bool, error)

	GetByID(ctx context.Context, id string) (*entity.Room, error)

	// ListByUserID returns the user's active rooms ordered by most recent
	// activity (updatedAt descending).
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Room, int64, error)

	// SetLastMessage atomically records the newest message summary, bumps
	// updatedAt and increments the unread counter of each listed participant.
	SetLastMessage(ctx context.Context, roomID string, last entity.LastMessage, incrementFor []string) error

	// ResetUnread zeroes one participant's unread counter.
	ResetUnread(ctx context.Context, roomID, userID string) error

	UpdateCustomization(ctx context.Context, roomID string, data entity.CustomizationData, status string) error

	// Deactivate soft-deletes the room and frees its uniqueness key so the
	// triple can be recreated later.
	Deactivate(ctx context.Context, roomID string) error
}

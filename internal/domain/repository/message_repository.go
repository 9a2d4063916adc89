package repository

import (
	"context"

	"craftmarket/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error

	// ListByRoom returns one page of a room's messages, newest first
	// (createdAt descending, id as tiebreak), plus the room's total count.
	ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error)

	// MarkRoomMessagesRead flips isRead on every unread message in the room
	// that was not sent by the reader. Idempotent.
	MarkRoomMessagesRead(ctx context.Context, roomID, readerID string) error
}

package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"craftmarket/internal/domain/entity"
	"craftmarket/internal/domain/repository"
	"craftmarket/pkg/errors"
	"craftmarket/pkg/logger"
)

const messagesSubcollection = "messages"

// batches are capped at 500 writes; stay under with headroom.
const markReadBatchSize = 400

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{client: client}
}

func (r *firestoreMessageRepository) messages(roomID string) *firestore.CollectionRef {
	return r.client.Collection(roomsCollection).Doc(roomID).Collection(messagesSubcollection)
}

// newMessageID returns a time-ordered (v7) uuid. Message documents are keyed
// by it, so the query's implicit document-id tiebreak on equal createdAt
// values follows insertion order, even across processes.
func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		id, err := newMessageID()
		if err != nil {
			return errors.Internal("Failed to generate message id", err)
		}
		message.ID = id
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	if _, err := r.messages(message.RoomID).Doc(message.ID).Set(ctx, message); err != nil {
		return errors.Internal("Failed to store message", err)
	}
	return nil
}

// ListByRoom returns one page, newest first. Equal timestamps fall back to
// the document id, which is time-ordered (see newMessageID).
func (r *firestoreMessageRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	base := r.messages(roomID).OrderBy("createdAt", firestore.Desc)

	countDocs, err := r.messages(roomID).Select().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	query := base
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message document %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

// MarkRoomMessagesRead flips isRead on every unread message in the room that
// the reader did not send. Idempotent; already-read messages are not touched.
func (r *firestoreMessageRepository) MarkRoomMessagesRead(ctx context.Context, roomID, readerID string) error {
	// Filtering sender in code avoids a composite index on (isRead, senderId).
	iter := r.messages(roomID).Where("isRead", "==", false).Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	pending := 0

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Room", err)
			}
			return errors.Internal("Failed to scan unread messages", err)
		}

		sender, err := doc.DataAt("senderId")
		if err == nil && sender == readerID {
			continue
		}

		batch.Update(doc.Ref, []firestore.Update{{Path: "isRead", Value: true}})
		pending++

		if pending >= markReadBatchSize {
			if _, err := batch.Commit(ctx); err != nil {
				return errors.Internal("Failed to mark messages read", err)
			}
			batch = r.client.Batch()
			pending = 0
		}
	}

	if pending > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return errors.Internal("Failed to mark messages read", err)
		}
	}
	return nil
}

package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// Message is immutable after creation except for the IsRead flip; messages
// are never deleted individually (soft delete happens at room level).
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	RoomID    string    `json:"room_id" firestore:"roomId"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Body      string    `json:"message" firestore:"body"`
	Type      string    `json:"type" firestore:"type"` // "text", "image", "file", "system"
	FileURL   string    `json:"file_url,omitempty" firestore:"fileUrl,omitempty"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

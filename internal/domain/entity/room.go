package entity

import (
	"sort"
	"strings"
	"time"
)

const (
	RoomTypeGeneral       = "general"
	RoomTypeCustomization = "customization"
)

// LastMessage is the denormalized summary of the newest message in a room,
// kept on the room document for list views.
type LastMessage struct {
	SenderID string    `json:"sender_id" firestore:"senderId"`
	Text     string    `json:"text" firestore:"text"`
	SentAt   time.Time `json:"sent_at" firestore:"sentAt"`
}

type Room struct {
	ID                  string            `json:"id" firestore:"id"`
	Participants        []string          `json:"participants" firestore:"participants"`
	BuyerID             string            `json:"buyer_id" firestore:"buyerId"`
	ArtisanID           string            `json:"artisan_id" firestore:"artisanId"`
	ProductID           string            `json:"product_id,omitempty" firestore:"productId,omitempty"`
	OrderID             string            `json:"order_id,omitempty" firestore:"orderId,omitempty"`
	Type                string            `json:"type" firestore:"type"` // "general", "customization"
	Customization       CustomizationData `json:"customization" firestore:"customization"`
	CustomizationStatus string            `json:"customization_status" firestore:"customizationStatus"`
	LastMessage         *LastMessage      `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount         map[string]int    `json:"unread_count" firestore:"unreadCount"` // userID -> unread messages
	IsActive            bool              `json:"is_active" firestore:"isActive"`
	CreatedAt           time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt           time.Time         `json:"updated_at" firestore:"updatedAt"`
}

// Key returns the uniqueness key for the (buyer, artisan, product) triple.
// Participant order is irrelevant, so the pair is sorted before joining.
func (r *Room) Key() string {
	pair := []string{r.BuyerID, r.ArtisanID}
	sort.Strings(pair)
	return strings.Join([]string{pair[0], pair[1], r.ProductID}, "_")
}

func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except the given user.
func (r *Room) OtherParticipants(userID string) []string {
	var others []string
	for _, p := range r.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}

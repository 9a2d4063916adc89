package entity

import "time"

type Product struct {
	ID          string   `json:"id" firestore:"id"`
	ArtisanID   string   `json:"artisan_id" firestore:"artisanId"`
	Title       string   `json:"title" firestore:"title"`
	Description string   `json:"description" firestore:"description"`
	Price       float64  `json:"price" firestore:"price"`
	Category    string   `json:"category" firestore:"category"`
	Images      []string `json:"images,omitempty" firestore:"images,omitempty"`
	// Customizable marks products whose rooms carry a negotiation payload.
	Customizable bool   `json:"customizable" firestore:"customizable"`
	Status       string `json:"status" firestore:"status"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

package entity

import "time"

const (
	CustomizationStatusDraft      = "draft"
	CustomizationStatusPending    = "pending"
	CustomizationStatusQuoteSent  = "quote_sent"
	CustomizationStatusAccepted   = "accepted"
	CustomizationStatusInProgress = "in_progress"
	CustomizationStatusCompleted  = "completed"
)

type Dimensions struct {
	Width  float64 `json:"width" firestore:"width"`
	Height float64 `json:"height" firestore:"height"`
	Depth  float64 `json:"depth,omitempty" firestore:"depth,omitempty"`
	Unit   string  `json:"unit" firestore:"unit"` // "cm", "in"
}

// CustomizationData is the negotiation payload attached to a room. Both
// participants may write it; concurrent writes are last-writer-wins per field.
type CustomizationData struct {
	Options    map[string]string `json:"options,omitempty" firestore:"options,omitempty"`
	Dimensions *Dimensions       `json:"dimensions,omitempty" firestore:"dimensions,omitempty"`
	Quantity   *int              `json:"quantity,omitempty" firestore:"quantity,omitempty"`
	Deadline   *time.Time        `json:"deadline,omitempty" firestore:"deadline,omitempty"`
	Price      *float64          `json:"price,omitempty" firestore:"price,omitempty"`
	Notes      *string           `json:"notes,omitempty" firestore:"notes,omitempty"`
}

// CustomizationPatch is a partial update; nil fields leave the stored value
// untouched, non-nil fields replace it. Options entries are merged key-wise.
type CustomizationPatch struct {
	Options    map[string]string `json:"options,omitempty"`
	Dimensions *Dimensions       `json:"dimensions,omitempty"`
	Quantity   *int              `json:"quantity,omitempty"`
	Deadline   *time.Time        `json:"deadline,omitempty"`
	Price      *float64          `json:"price,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Status     *string           `json:"status,omitempty"`
}

func (p CustomizationPatch) IsEmpty() bool {
	return len(p.Options) == 0 && p.Dimensions == nil && p.Quantity == nil &&
		p.Deadline == nil && p.Price == nil && p.Notes == nil && p.Status == nil
}

// Apply merges the patch into the data, later fields winning.
func (d *CustomizationData) Apply(patch CustomizationPatch) {
	if len(patch.Options) > 0 {
		if d.Options == nil {
			d.Options = make(map[string]string, len(patch.Options))
		}
		for k, v := range patch.Options {
			d.Options[k] = v
		}
	}
	if patch.Dimensions != nil {
		d.Dimensions = patch.Dimensions
	}
	if patch.Quantity != nil {
		d.Quantity = patch.Quantity
	}
	if patch.Deadline != nil {
		d.Deadline = patch.Deadline
	}
	if patch.Price != nil {
		d.Price = patch.Price
	}
	if patch.Notes != nil {
		d.Notes = patch.Notes
	}
}

func ValidCustomizationStatus(s string) bool {
	switch s {
	case CustomizationStatusDraft, CustomizationStatusPending,
		CustomizationStatusQuoteSent, CustomizationStatusAccepted,
		CustomizationStatusInProgress, CustomizationStatusCompleted:
		return true
	}
	return false
}

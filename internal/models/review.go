package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a room or a product. Kind and ItemID name the
// reviewed item; Username is joined in on read.
type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Kind      ItemKind  `json:"item_kind"`
	ItemID    int64     `json:"item_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRating reports whether r is within the star scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

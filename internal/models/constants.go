package models

const (
	// DateLayout is the wire and storage format of stay dates.
	DateLayout = "2006-01-02"

	// DefaultMaxNights caps the length of a single booking.
	DefaultMaxNights = 365

	// DefaultListLimit is used by admin listings when no limit is given.
	DefaultListLimit = 50

	// MaxListLimit bounds any listing page.
	MaxListLimit = 500

	// RateLimitWrites is the default number of writes a user may issue per window.
	RateLimitWrites = 30

	// RateLimitWindow is the default write window in seconds.
	RateLimitWindow = 60
)

// ListFilter narrows admin listings.
type ListFilter struct {
	Keyword string
	Limit   int
	Offset  int
}

// Normalize clamps Limit and Offset to usable values.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

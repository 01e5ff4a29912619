package models

import "time"

// Column limits of the movies table.
const (
	MaxTitleLen  = 250
	MaxReviewLen = 250
	MaxImgURLLen = 500
)

// Movie is one watchlist entry. Optional attributes are pointers; nil means
// the value is absent, which is distinct from zero.
type Movie struct {
	ID          int
	Title       string
	Year        *int
	Description *string
	Rating      *float64 // 0-10, nil until rated
	Ranking     *int     // derived, rewritten on every list view
	Review      *string
	ImgURL      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMovie carries the fields of an entry created from external metadata.
// Rating, review and ranking are never set at creation.
type NewMovie struct {
	Title       string
	Year        *int
	Description *string
	ImgURL      *string
}

func (m Movie) HasRating() bool {
	return m.Rating != nil
}

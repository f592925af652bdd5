// internal/domain/models/polarity.go
package models

// Polarity is the direction of a vote.
type Polarity string

const (
	Upvote   Polarity = "upvote"
	Downvote Polarity = "downvote"
)

// Valid reports whether p is one of the two defined polarities.
func (p Polarity) Valid() bool {
	return p == Upvote || p == Downvote
}

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity {
	if p == Upvote {
		return Downvote
	}
	return Upvote
}

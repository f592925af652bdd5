// Package reputation derives a user's reputation score from the vote
// counters on their document. The score is the canonical formula
// totalUpvotes - totalDownvotes; it is maintained incrementally by applying
// Delta alongside every counter mutation, so the stored score is always
// consistent with the stored counters.
package reputation

import "github.com/freethub/freethub/internal/domain/models"

// Score computes the reputation score for the given received-vote totals.
// It can go negative.
func Score(totalUpvotes, totalDownvotes int64) int64 {
	return totalUpvotes - totalDownvotes
}

// Delta returns the reputation adjustment that accompanies a change of
// `step` (+1 or -1) to the counter for the given polarity. Adding an upvote
// raises the score by one; adding a downvote lowers it by one; retractions
// invert.
func Delta(p models.Polarity, step int64) int64 {
	if p == models.Upvote {
		return step
	}
	return -step
}

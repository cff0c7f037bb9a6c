package msc

import "time"

// ClosestComment returns the comment whose creation time is nearest to the
// closure timestamp, or nil when the list is empty. Ties go to the comment
// encountered first.
//
// This is a best-effort heuristic: there is no API that reports which comment
// closed a proposal, so the nearest-in-time comment stands in for it. It can
// misattribute when several comments cluster around the closure time.
func ClosestComment(closedAt time.Time, comments []Comment) *Comment {
	var closest *Comment
	var closestDiff time.Duration
	for i := range comments {
		diff := comments[i].Created.Sub(closedAt)
		if diff < 0 {
			diff = -diff
		}
		if closest == nil || diff < closestDiff {
			closest = &comments[i]
			closestDiff = diff
		}
	}
	return closest
}

// Package msc defines the proposal domain model and the pure functions that
// derive a proposal's lifecycle state, cross-references and review metadata
// from raw pull request signals.
package msc

import "time"

// State classifies a proposal's progress through the review lifecycle.
type State int

const (
	StateDraft State = iota
	StateOpen
	StateProposedFinalCommentPeriod
	StateFinalCommentPeriod
	StateProposedMerge
	StateMerged
	StateProposedClose
	StateClosed
	StateUnknown
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateOpen:
		return "open"
	case StateProposedFinalCommentPeriod:
		return "proposed-final-comment-period"
	case StateFinalCommentPeriod:
		return "final-comment-period"
	case StateProposedMerge:
		return "proposed-merge"
	case StateMerged:
		return "merged"
	case StateProposedClose:
		return "proposed-close"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transitional reports whether the state is one of the checklist-driven
// transitional states, where a bot comment tracks reviewer sign-off.
func (s State) Transitional() bool {
	return s == StateProposedClose || s == StateProposedFinalCommentPeriod
}

// PRStatus is the raw pull request lifecycle status as reported by the API.
type PRStatus string

const (
	StatusOpen   PRStatus = "OPEN"
	StatusClosed PRStatus = "CLOSED"
	StatusMerged PRStatus = "MERGED"
)

// Comment is a single pull request or review thread comment.
type Comment struct {
	Author  string     `json:"author"`
	Body    string     `json:"body"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated,omitempty"`
}

// Thread is a review thread anchored to a line of the proposal document.
// Comments is never empty for a thread returned by the resolver.
type Thread struct {
	Line     int       `json:"line"`
	Resolved bool      `json:"resolved"`
	Comments []Comment `json:"comments"`
}

// Implementation is an external pull or merge request claimed to implement
// this proposal.
type Implementation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Review is a latest formal review left on the pull request.
type Review struct {
	Author string `json:"author"`
	State  string `json:"state"`
	Body   string `json:"body,omitempty"`
}

// MSC is a fully resolved proposal record. It is immutable once returned by
// the resolver; callers must not mutate a cached copy in place.
//
// ClosingComment is only set when State is StateClosed, and ProposalState is
// only set when State is transitional. Go has no sum types, so these
// invariants are enforced by the resolver rather than the type system.
type MSC struct {
	PRNumber int       `json:"prNumber"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	State    State     `json:"state"`
	Author   string    `json:"author"`

	// Kind holds the proposal categories derived from "kind:" labels.
	Kind []string `json:"kind,omitempty"`

	// PRBody is the pull request description. Body is the proposal document
	// content; nil when the pull request carries no proposals/*.md file.
	PRBody string  `json:"prBody"`
	Body   *string `json:"body"`

	MentionedMSCs   []int            `json:"mentionedMSCs,omitempty"`
	Implementations []Implementation `json:"implementations,omitempty"`
	Threads         []Thread         `json:"threads,omitempty"`
	Comments        []Comment        `json:"comments,omitempty"`
	Reviews         []Review         `json:"reviews,omitempty"`

	ProposalState  map[string]bool `json:"proposalState,omitempty"`
	ClosingComment *Comment        `json:"closingComment,omitempty"`
}

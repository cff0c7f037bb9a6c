package msc

import "strings"

// Labels that drive the checklist-period states. The classifier checks them
// in this order; "finished-final-comment-period" outranks the other two
// because the bot leaves earlier period labels in place when it advances.
const (
	labelFinishedFCP = "finished-final-comment-period"
	labelFCP         = "final-comment-period"
	labelProposedFCP = "proposed-final-comment-period"
)

// kindLabelPrefix marks labels that categorise a proposal (e.g. "kind:core").
const kindLabelPrefix = "kind:"

// ClassifyState maps raw pull request signals to a lifecycle state.
//
// The decision order is load-bearing: a closed or merged pull request always
// resolves to Closed or Merged regardless of leftover labels or the draft
// flag, and the draft flag outranks any label-derived state.
func ClassifyState(status PRStatus, draft bool, labels []string) State {
	switch status {
	case StatusClosed:
		return StateClosed
	case StatusMerged:
		return StateMerged
	}

	if draft {
		return StateDraft
	}

	if hasLabel(labels, labelFinishedFCP) {
		return StateProposedMerge
	}
	if hasLabel(labels, labelFCP) {
		return StateFinalCommentPeriod
	}
	if hasLabel(labels, labelProposedFCP) {
		return StateProposedFinalCommentPeriod
	}

	return StateOpen
}

// KindsFromLabels extracts proposal categories from "kind:" labels,
// preserving label order.
func KindsFromLabels(labels []string) []string {
	var kinds []string
	for _, l := range labels {
		if strings.HasPrefix(l, kindLabelPrefix) {
			kinds = append(kinds, strings.TrimPrefix(l, kindLabelPrefix))
		}
	}
	return kinds
}

func hasLabel(labels []string, name string) bool {
	for _, l := range labels {
		if l == name {
			return true
		}
	}
	return false
}

package msc

import "regexp"

// DefaultBotLogin is the account that posts reviewer sign-off checklists.
const DefaultBotLogin = "mscbot"

// Sentence templates the bot uses when opening a sign-off checklist. Which
// one applies depends on the transition being proposed.
var (
	proposedClosePattern = regexp.MustCompile(`Team member @(.+) has proposed to \*\*close\*\* this\.`)
	proposedMergePattern = regexp.MustCompile(`Team member @(.+) has proposed to \*\*merge\*\* this\.`)
)

// checklistItemPattern matches one reviewer line of the checklist,
// e.g. "- [x] @alice" or "- [ ] @bob".
var checklistItemPattern = regexp.MustCompile(`- \[(x| )\] @(.+)`)

// ParseChecklist locates the most recent checklist comment posted by the bot
// for the expected transitional state and parses its reviewer checkboxes into
// a username-to-approved mapping.
//
// It returns nil when no comment matches, which simply means the bot has not
// posted yet. A matching comment with no checklist lines yields an empty,
// non-nil map.
func ParseChecklist(comments []Comment, botLogin string, expected State) map[string]bool {
	pattern := checklistPattern(expected)
	if pattern == nil {
		return nil
	}

	// Comments arrive in creation order; the last match is the most recent.
	var checklist *Comment
	for i := range comments {
		c := &comments[i]
		if c.Author != botLogin {
			continue
		}
		if pattern.MatchString(c.Body) {
			checklist = c
		}
	}
	if checklist == nil {
		return nil
	}

	state := make(map[string]bool)
	for _, m := range checklistItemPattern.FindAllStringSubmatch(checklist.Body, -1) {
		state[m[2]] = m[1] == "x"
	}
	return state
}

func checklistPattern(expected State) *regexp.Regexp {
	switch expected {
	case StateProposedClose:
		return proposedClosePattern
	case StateProposedFinalCommentPeriod:
		return proposedMergePattern
	default:
		return nil
	}
}

package msc

import (
	"regexp"
	"sort"
	"strconv"
)

// mentionPattern matches free-text references to other proposals, e.g.
// "MSC1234" or "msc 1234". The separating whitespace is optional and the
// prefix is case-insensitive.
var mentionPattern = regexp.MustCompile(`(?i)MSC\s?(\d+)`)

// ExtractMentions scans the given texts for proposal references and returns
// the deduplicated, sorted set of mentioned proposal numbers. The proposal's
// own number is excluded: a self-reference is not a mention.
//
// Malformed or empty text yields an empty result; extraction never fails.
func ExtractMentions(selfNumber int, texts ...string) []int {
	seen := make(map[int]bool)
	for _, text := range texts {
		for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n == selfNumber {
				continue
			}
			seen[n] = true
		}
	}

	mentions := make([]int, 0, len(seen))
	for n := range seen {
		mentions = append(mentions, n)
	}
	sort.Ints(mentions)
	return mentions
}

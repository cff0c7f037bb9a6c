package msc

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed known_projects.yaml
var knownProjectsYAML []byte

// specRepositories are the proposal-hosting repositories. Links pointing back
// at them are cross-references between proposals, not implementations.
var specRepositories = map[string]bool{
	"matrix-org/matrix-spec":           true,
	"matrix-org/matrix-spec-proposals": true,
	"matrix-org/matrix-doc":            true,
}

// implementationThreadMarker identifies the review thread conventionally used
// to track implementations of a proposal.
const implementationThreadMarker = "Implementation requirements:"

type knownProject struct {
	Title  string   `yaml:"title"`
	Owners []string `yaml:"owners"`
	Repo   string   `yaml:"repo"`
}

type knownProjectsFile struct {
	Projects []knownProject `yaml:"projects"`
}

// patternFamily pairs one hosting-convention pattern with a builder that
// produces an implementation entry from a match. A builder returning false
// rejects the match without claiming its span.
type patternFamily struct {
	re    *regexp.Regexp
	build func(m []string) (Implementation, bool)
}

// implementationFamilies is the ordered list of pattern families. Known
// projects come first so that the generic GitHub families cannot re-match
// their URLs under a less specific title.
var implementationFamilies = mustLoadFamilies(knownProjectsYAML)

func mustLoadFamilies(raw []byte) []patternFamily {
	var file knownProjectsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		panic(fmt.Sprintf("msc: invalid known projects table: %v", err))
	}

	var families []patternFamily
	for _, p := range file.Projects {
		families = append(families, projectFamilies(p)...)
	}
	return append(families, genericFamilies()...)
}

// projectFamilies builds the full-URL and owner/repo#123 shorthand families
// for one known project.
func projectFamilies(p knownProject) []patternFamily {
	title := p.Title
	repo := p.Repo
	owners := strings.Join(quoteAll(p.Owners), "|")

	urlRe := regexp.MustCompile(
		`https://github\.com/(?:` + owners + `)/` + regexp.QuoteMeta(repo) + `/pull/(\d+)`)
	shortRe := regexp.MustCompile(
		`/(` + owners + `)/` + regexp.QuoteMeta(repo) + `#(\d+)`)

	return []patternFamily{
		{
			re: urlRe,
			build: func(m []string) (Implementation, bool) {
				return Implementation{
					Title: fmt.Sprintf("%s #%s", title, m[1]),
					URL:   m[0],
				}, true
			},
		},
		{
			re: shortRe,
			build: func(m []string) (Implementation, bool) {
				return Implementation{
					Title: fmt.Sprintf("%s #%s", title, m[2]),
					URL:   fmt.Sprintf("https://github.com/%s/%s/pull/%s", m[1], repo, m[2]),
				}, true
			},
		},
	}
}

// genericFamilies builds the catch-all GitHub, GitHub shorthand and GitLab
// families. The GitHub families reject the proposal-hosting repositories.
func genericFamilies() []patternFamily {
	return []patternFamily{
		{
			re: regexp.MustCompile(`https://github\.com/([^/\s]+)/([^/\s]+)/pull/(\d+)`),
			build: func(m []string) (Implementation, bool) {
				if specRepositories[m[1]+"/"+m[2]] {
					return Implementation{}, false
				}
				return Implementation{
					Title: fmt.Sprintf("GitHub %s/%s #%s", m[1], m[2], m[3]),
					URL:   m[0],
				}, true
			},
		},
		{
			re: regexp.MustCompile(`([^/\s]+)/([^/\d\s]+)#(\d+)`),
			build: func(m []string) (Implementation, bool) {
				if specRepositories[m[1]+"/"+m[2]] {
					return Implementation{}, false
				}
				return Implementation{
					Title: fmt.Sprintf("GitHub %s/%s #%s", m[1], m[2], m[3]),
					URL:   fmt.Sprintf("https://github.com/%s/%s/pull/%s", m[1], m[2], m[3]),
				}, true
			},
		},
		{
			re: regexp.MustCompile(`https://gitlab\.com/([^/\s]+)/([^/\s]+)/-/merge_requests/(\d+)`),
			build: func(m []string) (Implementation, bool) {
				return Implementation{
					Title: fmt.Sprintf("GitLab %s/%s #%s", m[1], m[2], m[3]),
					URL:   m[0],
				}, true
			},
		},
	}
}

// span is a claimed half-open byte range in the scanned text.
type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// ExtractImplementations scans the given texts for implementation links and
// returns them in pattern-family order per text. Each match claims its byte
// range, so a reference recognised by a specific family is never re-matched
// by a more generic one later in the list.
//
// Absent or malformed text yields an empty result; extraction never fails.
func ExtractImplementations(texts ...string) []Implementation {
	var impls []Implementation
	for _, text := range texts {
		impls = append(impls, extractFromText(text)...)
	}
	return impls
}

func extractFromText(text string) []Implementation {
	if text == "" {
		return nil
	}

	var impls []Implementation
	var claimed []span
	for _, fam := range implementationFamilies {
		for _, idx := range fam.re.FindAllStringSubmatchIndex(text, -1) {
			s := span{idx[0], idx[1]}
			if overlapsAny(claimed, s) {
				continue
			}
			impl, ok := fam.build(groupsFromIndex(text, idx))
			if !ok {
				continue
			}
			impls = append(impls, impl)
			claimed = append(claimed, s)
		}
	}
	return impls
}

// ImplementationThread returns the review thread whose first comment starts
// with the implementation requirements marker, or nil if no thread does.
func ImplementationThread(threads []Thread) *Thread {
	for i := range threads {
		t := &threads[i]
		if len(t.Comments) > 0 && strings.HasPrefix(t.Comments[0].Body, implementationThreadMarker) {
			return t
		}
	}
	return nil
}

func overlapsAny(claimed []span, s span) bool {
	for _, c := range claimed {
		if c.overlaps(s) {
			return true
		}
	}
	return false
}

// groupsFromIndex converts a SubmatchIndex result into submatch strings,
// with empty strings for groups that did not participate in the match.
func groupsFromIndex(text string, idx []int) []string {
	groups := make([]string, 0, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[idx[i]:idx[i+1]])
	}
	return groups
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return quoted
}

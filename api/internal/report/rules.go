package report

import (
	"regexp"
	"strings"
)

var (
	reNumbered      = regexp.MustCompile(`^\d+\.\s`)
	reNumberedBold  = regexp.MustCompile(`^\d+\.\s*\*\*([^:*]+)\*\*:?`)
	reNumberedPlain = regexp.MustCompile(`^\d+\.\s*([^:*]+):?`)
)

// keywords open a new section wherever they appear in a line, case-insensitive.
var keywords = []string{"disease name", "severity", "symptoms", "treatment"}

// TriggerRule decides whether a line starts a new section.
type TriggerRule struct {
	Name  string
	Match func(line string) bool
}

// triggers are checked in order; any match makes the line a trigger line.
var triggers = []TriggerRule{
	{Name: "numbered", Match: reNumbered.MatchString},
	{Name: "keyword", Match: containsKeyword},
}

// SplitRule extracts a title and content from a trigger line.
// ok is false when the rule does not apply.
type SplitRule struct {
	Name    string
	Extract func(line string) (title, content string, ok bool)
}

// splitRules are tried in order; the first that applies wins.
var splitRules = []SplitRule{
	{Name: "numbered-label", Extract: splitNumbered},
	{Name: "colon", Extract: splitColon},
}

// Keywords returns a copy of the section keywords.
func Keywords() []string { return append([]string(nil), keywords...) }

// Triggers returns a copy of the trigger table in evaluation order.
func Triggers() []TriggerRule { return append([]TriggerRule(nil), triggers...) }

// SplitRules returns a copy of the split table in evaluation order.
func SplitRules() []SplitRule { return append([]SplitRule(nil), splitRules...) }

func containsKeyword(line string) bool {
	l := strings.ToLower(line)
	for _, k := range keywords {
		if strings.Contains(l, k) {
			return true
		}
	}
	return false
}

func splitNumbered(line string) (string, string, bool) {
	for _, re := range []*regexp.Regexp{reNumberedBold, reNumberedPlain} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return cleanTitle(m[1]), strings.TrimSpace(line[len(m[0]):]), true
	}
	return "", "", false
}

func splitColon(line string) (string, string, bool) {
	before, after, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return cleanTitle(before), strings.TrimSpace(after), true
}

func cleanTitle(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

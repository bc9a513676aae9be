package report

import "strings"

// IsTrigger reports whether line opens a new section.
func IsTrigger(line string) bool {
	for _, r := range triggers {
		if r.Match(line) {
			return true
		}
	}
	return false
}

// Split returns the title and content of a trigger line. Without a numbered
// label or a colon the title is empty and the line is kept as content.
func Split(line string) (title, content string) {
	for _, r := range splitRules {
		if t, c, ok := r.Extract(line); ok {
			return t, c
		}
	}
	return "", line
}

// Segment walks text line by line and returns its sections in order of
// appearance. Lines before the first trigger each become their own
// Overview section.
func Segment(text string) []Section {
	var (
		out []Section
		cur *Section
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case IsTrigger(line):
			if cur != nil {
				out = append(out, *cur)
			}
			t, c := Split(line)
			cur = &Section{Title: t, Content: c}
		case cur != nil:
			cur.Content += "\n" + line
		default:
			out = append(out, Section{Title: OverviewTitle, Content: line})
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

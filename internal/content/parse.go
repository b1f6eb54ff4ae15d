package content

import "strings"

// MaxSuggestions caps the number of suggested questions.
const MaxSuggestions = 4

// ParseSuggestions splits model output into at most MaxSuggestions
// trimmed, non-empty lines.
func ParseSuggestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// ParseFact extracts the "Fact:" and "Explanation:" lines. Without a
// "Fact:" label the first line is the fact; without an "Explanation:"
// label the remaining lines are joined as the explanation.
func ParseFact(text string) Fact {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var f Fact
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Fact:"):
			f.Fact = strings.TrimSpace(strings.TrimPrefix(line, "Fact:"))
		case strings.HasPrefix(line, "Explanation:"):
			f.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "Explanation:"))
		}
	}

	if f.Fact == "" {
		f.Fact = strings.TrimSpace(lines[0])
	}
	if f.Explanation == "" && len(lines) > 1 {
		rest := make([]string, 0, len(lines)-1)
		for _, line := range lines[1:] {
			if line = strings.TrimSpace(line); line != "" {
				rest = append(rest, line)
			}
		}
		f.Explanation = strings.Join(rest, " ")
	}
	return f
}

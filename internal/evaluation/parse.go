package evaluation

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultScore    = 5
	DefaultFeedback = "No specific feedback available."

	minScore = 1
	maxScore = 10
)

// ParseReply extracts the score and feedback from a model reply. It never
// fails: unparseable parts fall back to DefaultScore and DefaultFeedback.
func ParseReply(reply string) (int, string) {
	lines := strings.Split(reply, "\n")
	return parseScore(lines), parseFeedback(reply, lines)
}

func parseScore(lines []string) int {
	for _, line := range lines {
		if !strings.Contains(strings.ToUpper(line), "SCORE:") {
			continue
		}
		value := strings.TrimSpace(line[strings.LastIndex(line, ":")+1:])
		n, err := strconv.Atoi(value)
		if errors.Is(err, strconv.ErrRange) {
			// Atoi saturates out of range values, so clamping still applies.
			return clamp(n)
		}
		if err != nil {
			return DefaultScore
		}
		return clamp(n)
	}
	return DefaultScore
}

func parseFeedback(reply string, lines []string) string {
	var candidates []string
	if idx := strings.LastIndex(reply, "FEEDBACK:"); idx >= 0 {
		candidates = strings.Split(reply[idx+len("FEEDBACK:"):], "\n")
	} else {
		for _, line := range lines {
			if !strings.Contains(strings.ToUpper(line), "SCORE:") {
				candidates = append(candidates, line)
			}
		}
	}

	kept := make([]string, 0, 2)
	for _, line := range candidates {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
			if len(kept) == 2 {
				break
			}
		}
	}
	if len(kept) == 0 {
		return DefaultFeedback
	}
	return strings.Join(kept, "\n")
}

func clamp(n int) int {
	if n < minScore {
		return minScore
	}
	if n > maxScore {
		return maxScore
	}
	return n
}

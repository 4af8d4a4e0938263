package matchers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/render"
)

// Filter narrows a fetched message list on the client side.
type Filter struct {
	// Query matches case-insensitively against the subject, the sender
	// display name or the raw From value.
	Query        string
	SenderRegex  []string
	SubjectRegex []string
}

func (f *Filter) IsEmpty() bool {
	return f == nil || (strings.TrimSpace(f.Query) == "" && len(f.SenderRegex) == 0 && len(f.SubjectRegex) == 0)
}

// MatchesSummary returns true if the message satisfies every configured
// part of the filter.
func MatchesSummary(filter *Filter, data message.Summary) (bool, error) {
	if filter.IsEmpty() {
		return true, nil
	}
	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		subject := strings.ToLower(data.Subject)
		name := strings.ToLower(render.DisplayName(data.From))
		from := strings.ToLower(data.From)
		if !strings.Contains(subject, query) && !strings.Contains(name, query) && !strings.Contains(from, query) {
			return false, nil
		}
	}
	if len(filter.SenderRegex) > 0 {
		ok, err := matchAnyRegex(filter.SenderRegex, data.From)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(filter.SubjectRegex) > 0 {
		ok, err := matchAnyRegex(filter.SubjectRegex, data.Subject)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Apply keeps the summaries that match filter, preserving order.
func Apply(filter *Filter, summaries []message.Summary) ([]message.Summary, error) {
	if filter.IsEmpty() {
		return summaries, nil
	}
	out := make([]message.Summary, 0, len(summaries))
	for _, s := range summaries {
		ok, err := MatchesSummary(filter, s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func matchAnyRegex(patterns []string, value string) (bool, error) {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		if re.MatchString(value) {
			return true, nil
		}
	}
	return false, nil
}

package domain

import "strings"

// ValidateQuestions checks question content at ingestion so malformed
// entries fail up front instead of during scoring. It also applies the
// default duration to questions that omit one, returning the normalized
// slice.
func ValidateQuestions(questions []Question) ([]Question, error) {
	seen := make(map[string]struct{}, len(questions))
	out := make([]Question, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, validationf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, validationf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, validationf("question %q: missing prompt", q.ID)
		}
		if q.Duration < 0 {
			return nil, validationf("question %q: negative duration", q.ID)
		}
		if q.Duration == 0 {
			q.Duration = DefaultDuration
		}
		if len(q.Choices) > 0 {
			choiceIDs := make(map[string]struct{}, len(q.Choices))
			for _, c := range q.Choices {
				if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Text) == "" {
					return nil, validationf("question %q: choice missing id or text", q.ID)
				}
				if _, dup := choiceIDs[c.ID]; dup {
					return nil, validationf("question %q: duplicate choice id %q", q.ID, c.ID)
				}
				choiceIDs[c.ID] = struct{}{}
			}
			if q.Answer == "" {
				return nil, validationf("question %q: missing answer", q.ID)
			}
			if _, ok := choiceIDs[q.Answer]; !ok {
				return nil, validationf("question %q: answer %q is not a choice id", q.ID, q.Answer)
			}
		} else if strings.TrimSpace(q.Answer) == "" {
			return nil, validationf("question %q: missing answer", q.ID)
		}
		out[i] = q
	}
	return out, nil
}

// NormalizeEmail folds an email identity for allow-list and registry lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

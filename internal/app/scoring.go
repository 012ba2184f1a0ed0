package app

import (
	"sort"
	"strings"
	"time"

	"livequiz-service/internal/domain"
)

// Scoring policy: a correct answer earns scoreBase minus a linear
// time-decay down to scoreMin at the deadline. The curve is
// monotonically non-increasing in elapsed time and never awards less
// than scoreMin for a correct answer. Incorrect or missing answers earn
// nothing.
const (
	scoreBase = 100
	scoreMin  = 10
)

func awardFor(elapsed time.Duration, durationSec int) int {
	total := time.Duration(durationSec) * time.Second
	if total <= 0 {
		return scoreBase
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	decay := float64(scoreBase-scoreMin) * float64(elapsed) / float64(total)
	return scoreBase - int(decay)
}

// isCorrect compares a submission to the question's answer: exact match
// on choice id for multiple choice, case-insensitive trimmed match for
// open-ended text. A question with no answer set never grades correct.
func isCorrect(q domain.Question, value string) bool {
	if len(q.Choices) > 0 {
		return value == q.Answer
	}
	if strings.TrimSpace(q.Answer) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(q.Answer))
}

// buildLeaderboard ranks participants by score descending; ties break
// by who reached their score first, then by registration order. The
// input slice is already in registration order, so the stable sort
// provides the final fallback for free.
func buildLeaderboard(participants []*participant, now time.Time) domain.Leaderboard {
	ranked := make([]*participant, len(participants))
	copy(ranked, participants)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		ti, tj := ranked[i].scoreAt, ranked[j].scoreAt
		if ti.Equal(tj) {
			return false
		}
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})

	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.LeaderboardEntry{
			Rank:        i + 1,
			DisplayName: p.name,
			Code:        p.email,
			Score:       p.score,
		}
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: now}
}

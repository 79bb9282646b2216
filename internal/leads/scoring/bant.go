package scoring

import (
	"math"
	"strings"
	"time"
)

const (
	maxBANTScore   = 100
	maxBudgetScore = 30
	maxNeedScore   = 10
)

var needIndicators = []string{"problem", "challenge", "issue", "looking for", "need", "urgent"}

// BANTScore applies the Budget, Authority, Need, Timeline heuristics.
func BANTScore(lead Lead, now time.Time) int {
	score := 0

	if lead.EstimatedBudget != nil && *lead.EstimatedBudget > 0 {
		score += int(min(*lead.EstimatedBudget/1000, maxBudgetScore))
	}

	score += ScoreJobTitle(lead.JobTitle) / 3

	if notes := strings.ToLower(lead.Notes); strings.TrimSpace(notes) != "" {
		matches := 0
		for _, indicator := range needIndicators {
			if strings.Contains(notes, indicator) {
				matches++
			}
		}
		score += min(3*matches, maxNeedScore)
	}

	if lead.ExpectedCloseDate != nil {
		score += timelineScore(daysUntil(*lead.ExpectedCloseDate, now))
	}

	return clampInt(score, 0, maxBANTScore)
}

// daysUntil returns whole days from now to t, rounded toward negative
// infinity, so a date twelve hours in the past counts as -1.
func daysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

func timelineScore(days int) int {
	switch {
	case days < 30:
		return 15
	case days < 90:
		return 10
	default:
		return 5
	}
}

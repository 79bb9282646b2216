package scoring

import (
	"strings"
	"time"
)

const (
	maxEngagementScore = 35
	maxFrequencyBonus  = 20
	maxRecencyBonus    = 15
	recentWindow       = 7 * 24 * time.Hour
)

// interactionTypeScores is matched by substring, first hit wins.
var interactionTypeScores = []struct {
	token string
	score int
}{
	{"meeting", 5},
	{"demo", 5},
	{"call", 3},
	{"email_reply", 2},
	{"email_open", 1},
	{"website_visit", 1},
}

const defaultInteractionScore = 1

// EngagementScore weighs frequency, recency and type of the interaction
// history. Each dimension has its own cap so a flood of low-value touches
// cannot dominate.
func EngagementScore(interactions []Interaction, now time.Time) int {
	if len(interactions) == 0 {
		return 0
	}

	frequency := min(5*len(interactions), maxFrequencyBonus)

	cutoff := now.Add(-recentWindow)
	recent := 0
	typeBonus := 0
	for _, it := range interactions {
		if !it.CreatedAt.Before(cutoff) {
			recent++
		}
		typeBonus += ScoreInteractionType(it.Type)
	}
	recency := min(3*recent, maxRecencyBonus)

	return clampInt(frequency+recency+typeBonus, 0, maxEngagementScore)
}

// ScoreInteractionType rates a single touchpoint by its type token.
func ScoreInteractionType(interactionType string) int {
	normalized := strings.ToLower(interactionType)
	for _, entry := range interactionTypeScores {
		if strings.Contains(normalized, entry.token) {
			return entry.score
		}
	}
	return defaultInteractionScore
}

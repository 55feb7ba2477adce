package game

import (
	"sort"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// ScoreOf is stake*clicks computed in 128 bits.
// For a fixed stake it never decreases as clicks grow.
func ScoreOf(e models.ParticipantEntry) models.Score {
	return models.MulScore(e.Stake, e.Clicks)
}

// Resolve picks the entry with the highest score. entries must be in join
// order: on equal scores the earliest joiner wins. This tie rule is our own
// choice, nothing upstream of the engine defines one.
func Resolve(entries []models.ParticipantEntry) (models.ParticipantEntry, models.Score, error) {
	if len(entries) == 0 {
		return models.ParticipantEntry{}, models.Score{}, ErrNoParticipants
	}
	best, bestScore := entries[0], ScoreOf(entries[0])
	for _, e := range entries[1:] {
		if s := ScoreOf(e); s.Cmp(bestScore) > 0 {
			best, bestScore = e, s
		}
	}
	return best, bestScore, nil
}

// Rank orders entries by score, highest first, keeping join order on ties.
func Rank(entries []models.ParticipantEntry) []models.LeaderboardEntry {
	ranked := make([]models.LeaderboardEntry, len(entries))
	for i, e := range entries {
		ranked[i] = models.LeaderboardEntry{ParticipantEntry: e, Score: ScoreOf(e)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Cmp(ranked[j].Score) > 0
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

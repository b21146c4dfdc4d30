package leaderboard

import (
	"context"
	"math"
	"sort"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/arnavshah/walk-scheduler/pkg/participants"
	"github.com/arnavshah/walk-scheduler/pkg/slots"
)

// Counter groups booked walks by name over a date range.
type Counter interface {
	CountByName(ctx context.Context, from, until string) ([]slots.NameCount, error)
}

// Colors looks up stored participant colors without registering anyone.
type Colors interface {
	ColorIndexes(ctx context.Context, names []string) (map[string]int, error)
}

// Aggregator ranks walkers by how many walks they have booked
type Aggregator struct {
	counts Counter
	colors Colors
}

// NewAggregator creates a new aggregator instance
func NewAggregator(counts Counter, colors Colors) *Aggregator {
	return &Aggregator{counts: counts, colors: colors}
}

// AllTime ranks every walker over the whole booking history
func (a *Aggregator) AllTime(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return a.rank(ctx, "", "")
}

// NextWindow ranks walkers over the seven calendar days beginning at start
func (a *Aggregator) NextWindow(ctx context.Context, start string) ([]models.LeaderboardEntry, error) {
	from, until, err := calendar.Window(start)
	if err != nil {
		vErr := &models.ValidationError{}
		vErr.Add("start", "must be a calendar date in YYYY-MM-DD form")
		return nil, vErr
	}
	return a.rank(ctx, from, until)
}

func (a *Aggregator) rank(ctx context.Context, from, until string) ([]models.LeaderboardEntry, error) {
	counts, err := a.counts.CountByName(ctx, from, until)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Name
	}
	colors, err := a.colors.ColorIndexes(ctx, names)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, len(counts))
	for i, c := range counts {
		color, ok := colors[c.Name]
		if !ok {
			color = participants.FallbackColorIndex(c.Name)
		}
		entries[i] = models.LeaderboardEntry{Name: c.Name, TotalWalks: c.Count, ColorIndex: color}
	}
	Sort(entries)
	return entries, nil
}

// Sort orders entries by walks descending, then name ascending
func Sort(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalWalks != entries[j].TotalWalks {
			return entries[i].TotalWalks > entries[j].TotalWalks
		}
		return entries[i].Name < entries[j].Name
	})
}

// Total sums the walks across entries
func Total(entries []models.LeaderboardEntry) int {
	total := 0
	for _, e := range entries {
		total += e.TotalWalks
	}
	return total
}

// Fairness returns a percentage (0-100) representing how evenly walks are
// spread across walkers. 100% is perfectly even (Standard Deviation = 0).
func Fairness(entries []models.LeaderboardEntry) float64 {
	if len(entries) == 0 {
		return 100.0
	}

	sum := float64(Total(entries))
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(entries))

	var varianceSum float64
	for _, e := range entries {
		diff := float64(e.TotalWalks) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(entries)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

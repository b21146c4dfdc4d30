package leaderboard

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/arnavshah/walk-scheduler/internal/testfixtures"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/arnavshah/walk-scheduler/pkg/participants"
	"github.com/arnavshah/walk-scheduler/pkg/slots"
)

func seed(t *testing.T, bookings ...models.BookingInput) (*Aggregator, *participants.Registry) {
	t.Helper()
	db := testfixtures.OpenDB(t)
	store := slots.NewStore(db)
	registry := participants.NewRegistry(db)
	for _, in := range bookings {
		if _, err := store.Add(context.Background(), in); err != nil {
			t.Fatalf("Add(%+v) returned error: %v", in, err)
		}
	}
	return NewAggregator(store, registry), registry
}

func TestAllTime(t *testing.T) {
	agg, registry := seed(t,
		models.BookingInput{Date: "2025-04-20", Time: "1200", Name: "Alice"},
		models.BookingInput{Date: "2025-04-21", Time: "1200", Name: "Alice"},
		models.BookingInput{Date: "2025-04-20", Time: "0900", Name: "Bob"},
	)
	ctx := context.Background()
	_, _ = registry.ColorIndex(ctx, "Bob")
	_, _ = registry.ColorIndex(ctx, "Alice")

	got, err := agg.AllTime(ctx)
	if err != nil {
		t.Fatalf("AllTime returned error: %v", err)
	}
	want := []models.LeaderboardEntry{
		{Name: "Alice", TotalWalks: 2, ColorIndex: 1},
		{Name: "Bob", TotalWalks: 1, ColorIndex: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestAllTime_TieBreakAndFallbackColor(t *testing.T) {
	agg, registry := seed(t,
		models.BookingInput{Date: "2025-04-20", Time: "1200", Name: "Zoe"},
		models.BookingInput{Date: "2025-04-20", Time: "1230", Name: "Amir"},
	)
	ctx := context.Background()

	got, err := agg.AllTime(ctx)
	if err != nil {
		t.Fatalf("AllTime returned error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Amir" || got[1].Name != "Zoe" {
		t.Fatalf("Expected name ascending on ties, got %+v", got)
	}
	if got[0].ColorIndex != participants.FallbackColorIndex("Amir") {
		t.Errorf("Expected fallback color for unregistered walker")
	}
	if list, _ := registry.List(ctx); len(list) != 0 {
		t.Errorf("Expected aggregation not to register walkers, got %d", len(list))
	}
}

func TestNextWindow(t *testing.T) {
	agg, _ := seed(t,
		models.BookingInput{Date: "2025-04-19", Time: "1200", Name: "Alice"},
		models.BookingInput{Date: "2025-04-20", Time: "1200", Name: "Alice"},
		models.BookingInput{Date: "2025-04-26", Time: "2030", Name: "Bob"},
		models.BookingInput{Date: "2025-04-26", Time: "0800", Name: "Bob"},
		models.BookingInput{Date: "2025-04-27", Time: "0800", Name: "Carol"},
	)

	got, err := agg.NextWindow(context.Background(), "2025-04-20")
	if err != nil {
		t.Fatalf("NextWindow returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected Bob and Alice only, got %+v", got)
	}
	if got[0].Name != "Bob" || got[0].TotalWalks != 2 || got[1].Name != "Alice" || got[1].TotalWalks != 1 {
		t.Errorf("Unexpected window ranking %+v", got)
	}
}

func TestNextWindow_InvalidStart(t *testing.T) {
	agg, _ := seed(t)
	_, err := agg.NextWindow(context.Background(), "2025-4-20")
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestFairness(t *testing.T) {
	if Fairness(nil) != 100.0 {
		t.Error("Expected empty leaderboard to be perfectly fair")
	}
	even := []models.LeaderboardEntry{{Name: "a", TotalWalks: 3}, {Name: "b", TotalWalks: 3}}
	if Fairness(even) != 100.0 {
		t.Errorf("Expected 100, got %f", Fairness(even))
	}
	uneven := []models.LeaderboardEntry{{Name: "a", TotalWalks: 3}, {Name: "b", TotalWalks: 1}}
	// mean 2, stddev 1
	if got := Fairness(uneven); math.Abs(got-50.0) > 1e-9 {
		t.Errorf("Expected 50, got %f", got)
	}
	skewed := []models.LeaderboardEntry{{Name: "a", TotalWalks: 10}, {Name: "b", TotalWalks: 0}, {Name: "c", TotalWalks: 0}, {Name: "d", TotalWalks: 0}}
	if Fairness(skewed) != 0.0 {
		t.Errorf("Expected floor at 0, got %f", Fairness(skewed))
	}
}

type failingCounter struct{}

func (failingCounter) CountByName(context.Context, string, string) ([]slots.NameCount, error) {
	return nil, models.ErrUnavailable
}

func TestAllTime_StoreDown(t *testing.T) {
	agg := NewAggregator(failingCounter{}, nil)
	if _, err := agg.AllTime(context.Background()); !errors.Is(err, models.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

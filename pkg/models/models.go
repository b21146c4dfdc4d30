package models

// PaletteSize is the number of distinct participant colors.
const PaletteSize = 10

// Slot is a booked half-hour walk
type Slot struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Contact   string `json:"contact,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Participant is anyone who has booked a walk or registered explicitly
type Participant struct {
	Name       string `json:"name"`
	ColorIndex int    `json:"colorIndex"`
	Contact    string `json:"contact,omitempty"`
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Name       string `json:"name"`
	TotalWalks int    `json:"totalWalks"`
	ColorIndex int    `json:"colorIndex"`
}

// BookingInput is the data structure for booking a slot
type BookingInput struct {
	Date    string `json:"date" validate:"walkdate"`
	Time    string `json:"time" validate:"walktime"`
	Name    string `json:"name" validate:"nonblank"`
	Contact string `json:"contact,omitempty"`
	Note    string `json:"note,omitempty"`
}

// CancelInput is the data structure for cancelling a slot
type CancelInput struct {
	Date string `json:"date" validate:"walkdate"`
	Time string `json:"time" validate:"walktime"`
	Name string `json:"name" validate:"nonblank"`
}

// ParticipantInput is the data structure for registering a participant
type ParticipantInput struct {
	Name    string `json:"name" validate:"nonblank"`
	Contact string `json:"contact,omitempty"`
}

// WeekSchedule maps each of seven dates to its slots, ordered by time
type WeekSchedule map[string][]Slot

// StatsResponse summarises both leaderboard windows
type StatsResponse struct {
	Start          string  `json:"start"`
	TotalWalks     int     `json:"total_walks"`
	Participants   int     `json:"participants"`
	AllTimeFair    float64 `json:"all_time_fairness"`
	WindowWalks    int     `json:"window_walks"`
	WindowWalkers  int     `json:"window_walkers"`
	WindowFairness float64 `json:"window_fairness"`
}

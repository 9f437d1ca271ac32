package model

// AttemptSnapshot is the locally persisted in-progress attempt state,
// written on every session mutation and read back once at session start.
// Answers maps question ID to the selected option index.
type AttemptSnapshot struct {
	TimeLeft        int           `json:"timeLeft"`
	Answers         map[int64]int `json:"answers"`
	CurrentQuestion int           `json:"currentQuestion"`
}

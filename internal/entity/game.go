package entity

import "time"

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	WinnerNone = "-"
)

// GameRecord is the archived summary of an ended session.
type GameRecord struct {
	ID          string    `json:"id"`
	DwarfPlayer string    `json:"dwarf_player"`
	TrollPlayer string    `json:"troll_player"`
	Status      string    `json:"status"`
	Winner      string    `json:"winner"`
	DwarfScore  int       `json:"dwarf_score"`
	TrollScore  int       `json:"troll_score"`
	Moves       int       `json:"moves"`
	EndedAt     time.Time `json:"ended_at"`
}

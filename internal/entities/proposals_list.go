package entities

import (
	"time"

	"practiceplanner/internal/db"
)

type ProposalsList struct {
	Total     int                  `json:"total"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Proposals []db.ProposedSession `json:"proposals"`
}

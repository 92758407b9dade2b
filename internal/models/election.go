package models

import (
	"time"
)

// Election status moves upcoming -> ongoing -> closed; transitions are
// administrative updates.
const (
	ElectionUpcoming = "upcoming"
	ElectionOngoing  = "ongoing"
	ElectionClosed   = "closed"
)

type Election struct {
	Base
	PeriodStart int        `gorm:"uniqueIndex:idx_election_period;not null" json:"period_start"`
	PeriodEnd   int        `gorm:"uniqueIndex:idx_election_period;index;not null" json:"period_end"`
	VotingStart *time.Time `gorm:"index" json:"voting_start,omitempty"`
	VotingEnd   *time.Time `gorm:"index" json:"voting_end,omitempty"`
	Status      string     `gorm:"size:20;index;default:'upcoming';not null" json:"status"`
}

func (Election) TableName() string { return "elections" }

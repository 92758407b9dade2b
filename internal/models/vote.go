package models

// Vote copies position and period from its candidate so the one vote per
// user, position and period rule is a plain unique index (idx_vote_once).
type Vote struct {
	Base
	UserID      string `gorm:"size:36;uniqueIndex:idx_vote_once;not null" json:"user_id"`
	CandidateID string `gorm:"size:36;index;not null" json:"candidate_id"`
	PositionID  int    `gorm:"uniqueIndex:idx_vote_once;index;not null" json:"position_id"`
	PeriodStart int    `gorm:"uniqueIndex:idx_vote_once;index:idx_vote_period;not null" json:"period_start"`
	PeriodEnd   int    `gorm:"uniqueIndex:idx_vote_once;index:idx_vote_period;not null" json:"period_end"`
}

func (Vote) TableName() string { return "votes" }

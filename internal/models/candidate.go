package models

type VisionMission struct {
	Vision  string `json:"vision,omitempty"`
	Mission string `json:"mission,omitempty"`
}

// Candidate is unique per ballot slot (position, number, period). A user may
// stand once per period among live candidates, enforced by the partial
// unique index idx_candidate_user_period.
type Candidate struct {
	Base
	PositionID      int            `gorm:"uniqueIndex:idx_candidate_slot;index;not null" json:"position_id"`
	CandidateNumber int            `gorm:"uniqueIndex:idx_candidate_slot;not null" json:"candidate_number"`
	PeriodStart     int            `gorm:"uniqueIndex:idx_candidate_slot;uniqueIndex:idx_candidate_user_period,where:deleted_at IS NULL;index:idx_candidate_period;not null" json:"period_start"`
	PeriodEnd       int            `gorm:"uniqueIndex:idx_candidate_slot;uniqueIndex:idx_candidate_user_period,where:deleted_at IS NULL;index:idx_candidate_period;not null" json:"period_end"`
	UserID          string         `gorm:"size:36;index;uniqueIndex:idx_candidate_user_period,where:deleted_at IS NULL;not null" json:"user_id"`
	Name            string         `gorm:"not null" json:"name"`
	Image           string         `json:"image,omitempty"`
	Profile         string         `gorm:"type:text;not null" json:"profile"`
	VisionMission   *VisionMission `gorm:"serializer:json;type:text" json:"vision_mission,omitempty"`
	ProgramKerja    string         `gorm:"type:text" json:"program_kerja,omitempty"`
	Status          string         `gorm:"size:20;index;default:'active';not null" json:"status"`
}

func (Candidate) TableName() string { return "candidates" }

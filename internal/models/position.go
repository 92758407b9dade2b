package models

type Position struct {
	Base
	PositionID  int    `gorm:"uniqueIndex;not null" json:"position_id"`
	Name        string `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `gorm:"size:20;index;default:'active';not null" json:"status"`
}

func (Position) TableName() string { return "positions" }

package models

import (
	"time"
)

const (
	RoleVoter = "voter"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	Base
	NIS         string     `gorm:"column:nis;size:64;uniqueIndex;not null" json:"nis"`
	Password    string     `gorm:"not null" json:"password,omitempty"` // bcrypt hash
	NamaLengkap string     `gorm:"not null" json:"nama_lengkap"`
	Role        string     `gorm:"size:20;index;default:'voter';not null" json:"role"`     // voter, admin
	Status      string     `gorm:"size:20;index;default:'active';not null" json:"status"` // active, inactive
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

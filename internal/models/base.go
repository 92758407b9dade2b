package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the wire form of a stored record: declared fields, the
// schemaless attributes merged at the top level and any embedded relations.
type Document map[string]any

// ID returns the document identifier.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Base carries the columns every collection shares.
type Base struct {
	ID         string            `gorm:"primaryKey;size:36" json:"_id"`
	Attributes datatypes.JSONMap `gorm:"column:attributes" json:"-"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt  *time.Time        `gorm:"index" json:"deleted_at,omitempty"`
}

// Meta exposes the shared columns of any collection model.
func (b *Base) Meta() *Base { return b }

// Record is implemented by every collection model through the embedded Base.
type Record interface {
	Meta() *Base
}

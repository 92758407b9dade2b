package services

import (
	"testing"

	"gorm.io/gorm"

	"pemiyos/internal/testutil"
)

type env struct {
	db    *gorm.DB
	docs  *DocumentService
	crud  *CRUDService
	stats *StatisticsService
}

func setup(t *testing.T) *env {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	log := testutil.Logger(t)
	docs := NewDocumentService(conn, log)
	return &env{
		db:    conn,
		docs:  docs,
		crud:  NewCRUDService(conn, docs, log),
		stats: NewStatisticsService(conn, log),
	}
}

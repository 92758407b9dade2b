package services

import (
	"context"

	"github.com/rs/zerolog"

	"pemiyos/internal/schema"
)

// SeedSampleData creates a demo data set through the CRUD engine. Documents
// that already exist are skipped.
func SeedSampleData(ctx context.Context, crud *CRUDService, docs *DocumentService, adminPassword string, log zerolog.Logger) error {
	log = log.With().Str("component", "seed").Logger()

	users := []map[string]any{
		{"nis": "Admin", "password": adminPassword, "nama_lengkap": "Admin User", "role": "admin", "status": "active"},
		{"nis": "234567", "password": "voter123", "nama_lengkap": "John Doe", "role": "voter", "status": "active", "class": "XII IPA 1", "gender": "L"},
		{"nis": "345678", "password": "voter123", "nama_lengkap": "Jane Smith", "role": "voter", "status": "active", "class": "XII IPS 2", "gender": "P"},
	}
	positions := []map[string]any{
		{"position_id": 1, "name": "Ketua", "description": "Ketua Organisasi", "status": "active"},
		{"position_id": 2, "name": "Sekretaris", "description": "Sekretaris Organisasi", "status": "active"},
		{"position_id": 3, "name": "Bendahara", "description": "Bendahara Organisasi", "status": "active"},
	}
	elections := []map[string]any{
		{"period_start": 2025, "period_end": 2026, "voting_start": "2025-01-01", "voting_end": "2025-01-31", "status": "upcoming"},
	}

	seed := func(c schema.Collection, items []map[string]any, label string) error {
		for _, item := range items {
			name, _ := item[label].(string)
			if name == "" {
				name = "item"
			}
			_, err := crud.Create(ctx, c, item)
			switch {
			case err == nil:
				log.Info().Str("collection", string(c)).Str("name", name).Msg("created")
			case KindOf(err) == KindConflict:
				log.Info().Str("collection", string(c)).Str("name", name).Msg("already exists, skipped")
			case KindOf(err) == KindInternal:
				return err
			default:
				log.Warn().Err(err).Str("collection", string(c)).Str("name", name).Msg("failed to seed")
			}
		}
		return nil
	}

	if err := seed(schema.Users, users, "nama_lengkap"); err != nil {
		return err
	}
	if err := seed(schema.Positions, positions, "name"); err != nil {
		return err
	}
	if err := seed(schema.Elections, elections, "status"); err != nil {
		return err
	}

	voters, err := docs.FindAll(ctx, schema.Users, ListParams{
		Limit:   2,
		Filters: map[string]any{"role": "voter"},
	})
	if err != nil {
		return err
	}
	if len(voters.Data) < 2 {
		return nil
	}

	candidates := []map[string]any{
		{
			"position_id": 1, "candidate_number": 1, "period_start": 2025, "period_end": 2026,
			"user_id": voters.Data[0].ID(), "name": voters.Data[0]["nama_lengkap"],
			"profile": "Experienced leader with vision for change",
			"vision_mission": map[string]any{
				"vision":  "To create a better organization for everyone",
				"mission": "To create a better organization for everyone",
			},
			"program_kerja": "1. Improve communication\n2. Increase participation\n3. Better events",
			"status":        "active",
		},
		{
			"position_id": 1, "candidate_number": 2, "period_start": 2025, "period_end": 2026,
			"user_id": voters.Data[1].ID(), "name": voters.Data[1]["nama_lengkap"],
			"profile": "Fresh perspective with innovative ideas",
			"vision_mission": map[string]any{
				"vision":  "Innovation and progress for our organization",
				"mission": "Innovation and progress for our organization",
			},
			"program_kerja": "1. Digital transformation\n2. Youth engagement\n3. Sustainability",
			"status":        "active",
		},
	}
	return seed(schema.Candidates, candidates, "name")
}

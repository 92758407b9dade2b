package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pemiyos/internal/models"
)

// CandidateTally is the vote count of one candidate.
type CandidateTally struct {
	CandidateID     string `json:"candidate_id"`
	CandidateNumber int    `json:"candidate_number"`
	Name            string `json:"name"`
	Voters          int64  `json:"voters"`
}

// Tally is the vote count of a position in the reference election.
type Tally struct {
	PositionID  int              `json:"position_id"`
	PeriodStart int              `json:"period_start"`
	PeriodEnd   int              `json:"period_end"`
	TotalVotes  int64            `json:"total_votes"`
	Data        []CandidateTally `json:"data"`
}

// NonVoter is the public projection of a voter who has not voted.
type NonVoter struct {
	ID          string `json:"_id"`
	NIS         string `json:"nis"`
	NamaLengkap string `json:"nama_lengkap"`
	Class       any    `json:"class,omitempty"`
	Gender      any    `json:"gender,omitempty"`
}

// NonVoters lists the voters of a position's reference election who have
// not voted yet.
type NonVoters struct {
	PositionID     int        `json:"position_id"`
	PeriodStart    int        `json:"period_start"`
	PeriodEnd      int        `json:"period_end"`
	NonVoters      []NonVoter `json:"non_voters"`
	TotalNonVoters int        `json:"total_non_voters"`
}

// StatisticsService computes vote tallies scoped to the reference election.
type StatisticsService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewStatisticsService(db *gorm.DB, log zerolog.Logger) *StatisticsService {
	return &StatisticsService{db: db, log: log.With().Str("component", "statistics").Logger()}
}

// VoteStatistics returns a *Tally, or a *NonVoters when notVotes is set.
func (s *StatisticsService) VoteStatistics(ctx context.Context, positionID int, notVotes bool) (any, error) {
	if notVotes {
		return s.NonVoters(ctx, positionID)
	}
	return s.Tally(ctx, positionID)
}

// ReferenceElection picks the ongoing election ending last, falling back to
// the closed election ending last.
func (s *StatisticsService) ReferenceElection(ctx context.Context) (*models.Election, error) {
	for _, status := range []string{models.ElectionOngoing, models.ElectionClosed} {
		var e models.Election
		err := s.db.WithContext(ctx).
			Where("status = ? AND deleted_at IS NULL", status).
			Order("period_end DESC").
			First(&e).Error
		if err == nil {
			return &e, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Internal(err, "Failed to load elections")
		}
	}
	return nil, ErrNoElection
}

// Tally counts live votes per active candidate of the position, ordered by
// candidate number.
func (s *StatisticsService) Tally(ctx context.Context, positionID int) (*Tally, error) {
	e, err := s.ReferenceElection(ctx)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var candidates []models.Candidate
	err = db.Where("position_id = ? AND period_start = ? AND period_end = ? AND status = ? AND deleted_at IS NULL",
		positionID, e.PeriodStart, e.PeriodEnd, models.StatusActive).
		Order("candidate_number ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, Internal(err, "Failed to load candidates")
	}

	var counts []struct {
		CandidateID string
		Voters      int64
	}
	err = db.Model(&models.Vote{}).
		Select("candidate_id, COUNT(*) AS voters").
		Where("position_id = ? AND period_start = ? AND period_end = ? AND deleted_at IS NULL",
			positionID, e.PeriodStart, e.PeriodEnd).
		Group("candidate_id").
		Scan(&counts).Error
	if err != nil {
		return nil, Internal(err, "Failed to count votes")
	}
	byCandidate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCandidate[c.CandidateID] = c.Voters
	}

	t := &Tally{
		PositionID:  positionID,
		PeriodStart: e.PeriodStart,
		PeriodEnd:   e.PeriodEnd,
		Data:        make([]CandidateTally, 0, len(candidates)),
	}
	for _, c := range candidates {
		n := byCandidate[c.ID]
		t.Data = append(t.Data, CandidateTally{
			CandidateID:     c.ID,
			CandidateNumber: c.CandidateNumber,
			Name:            c.Name,
			Voters:          n,
		})
		t.TotalVotes += n
	}
	return t, nil
}

// NonVoters lists live, active voters with no live vote for the position in
// the reference election, ordered by nis.
func (s *StatisticsService) NonVoters(ctx context.Context, positionID int) (*NonVoters, error) {
	e, err := s.ReferenceElection(ctx)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	voted := db.Model(&models.Vote{}).
		Select("user_id").
		Where("position_id = ? AND period_start = ? AND period_end = ? AND deleted_at IS NULL",
			positionID, e.PeriodStart, e.PeriodEnd)

	var users []models.User
	err = db.Select("id", "nis", "nama_lengkap", "attributes").
		Where("role = ? AND status = ? AND deleted_at IS NULL", models.RoleVoter, models.StatusActive).
		Where("id NOT IN (?)", voted).
		Order("nis ASC").
		Find(&users).Error
	if err != nil {
		return nil, Internal(err, "Failed to load voters")
	}

	out := &NonVoters{
		PositionID:  positionID,
		PeriodStart: e.PeriodStart,
		PeriodEnd:   e.PeriodEnd,
		NonVoters:   make([]NonVoter, 0, len(users)),
	}
	for _, u := range users {
		out.NonVoters = append(out.NonVoters, NonVoter{
			ID:          u.ID,
			NIS:         u.NIS,
			NamaLengkap: u.NamaLengkap,
			Class:       u.Attributes["class"],
			Gender:      u.Attributes["gender"],
		})
	}
	out.TotalNonVoters = len(out.NonVoters)
	return out, nil
}

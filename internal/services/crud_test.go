package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/testutil"
	"pemiyos/internal/utils"
)

func candidatePayload(userID string, number int) map[string]any {
	return map[string]any{
		"position_id":      1,
		"candidate_number": number,
		"period_start":     2025,
		"period_end":       2026,
		"user_id":          userID,
		"name":             "Candidate",
		"profile":          "**Profile**",
		"vision_mission":   map[string]any{"vision": "Maju", "mission": "Bersama"},
	}
}

func TestCreateUserHashesPasswordAndAppliesDefaults(t *testing.T) {
	e := setup(t)

	doc, err := e.crud.Create(context.Background(), schema.Users, map[string]any{
		"nis":          "2001",
		"password":     "voter123",
		"nama_lengkap": "John Doe",
		"class":        "XII IPA 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "voter", doc["role"])
	assert.Equal(t, "active", doc["status"])
	assert.Equal(t, "XII IPA 1", doc["class"])
	assert.NotContains(t, doc, "password")
	assert.NotEmpty(t, doc["created_at"])

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", doc.ID()).Error)
	assert.NotEqual(t, "voter123", stored.Password)
	assert.True(t, utils.CheckPasswordHash("voter123", stored.Password))
	assert.Equal(t, "XII IPA 1", stored.Attributes["class"])
}

func TestCreateValidationFailure(t *testing.T) {
	e := setup(t)

	_, err := e.crud.Create(context.Background(), schema.Users, map[string]any{"nis": "1"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "Password is required and must be a string")

	_, err = e.crud.Create(context.Background(), schema.Users, map[string]any{})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateDuplicateUniqueField(t *testing.T) {
	e := setup(t)
	testutil.CreatePosition(t, e.db, 1, "Ketua")

	_, err := e.crud.Create(context.Background(), schema.Positions, map[string]any{"position_id": 1, "name": "Wakil"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateCandidateTwiceInPeriod(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	doc, err := e.crud.Create(context.Background(), schema.Candidates, candidatePayload(u.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "/candidate/default.png", doc["image"])
	assert.Equal(t, map[string]any{"vision": "Maju", "mission": "Bersama"}, doc["vision_mission"])
	assert.Contains(t, doc["profile_html"], "<strong>Profile</strong>")

	_, err = e.crud.Create(context.Background(), schema.Candidates, candidatePayload(u.ID, 2))
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "already registered as a candidate")

	// Another period is fine.
	next := candidatePayload(u.ID, 1)
	next["period_start"], next["period_end"] = 2026, 2027
	_, err = e.crud.Create(context.Background(), schema.Candidates, next)
	require.NoError(t, err)
}

func TestCreateCandidateAfterSoftDelete(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	first, err := e.crud.Create(context.Background(), schema.Candidates, candidatePayload(u.ID, 1))
	require.NoError(t, err)
	require.NoError(t, e.crud.SoftDelete(context.Background(), schema.Candidates, first.ID()))

	_, err = e.crud.Create(context.Background(), schema.Candidates, candidatePayload(u.ID, 2))
	require.NoError(t, err)
}

func TestBulkCreateCandidatesConflict(t *testing.T) {
	e := setup(t)
	u1 := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	u2 := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	testutil.CreateCandidate(t, e.db, 2, 1, 2025, 2026, u1.ID)

	_, err := e.crud.BulkCreate(context.Background(), schema.Candidates, []map[string]any{
		candidatePayload(u2.ID, 1),
		candidatePayload(u1.ID, 2),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), u1.ID)
	assert.Contains(t, err.Error(), "period 2025-2026")

	var n int64
	e.db.Model(&models.Candidate{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestBulkCreateCandidatesDuplicateWithinBatch(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	_, err := e.crud.BulkCreate(context.Background(), schema.Candidates, []map[string]any{
		candidatePayload(u.ID, 1),
		candidatePayload(u.ID, 2),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	var n int64
	e.db.Model(&models.Candidate{}).Count(&n)
	assert.Zero(t, n)
}

func TestBulkCreateAllOrNothing(t *testing.T) {
	e := setup(t)

	_, err := e.crud.BulkCreate(context.Background(), schema.Positions, []map[string]any{
		{"position_id": 1, "name": "Ketua"},
		{"position_id": 2, "name": "Sekretaris"},
		{"position_id": 1, "name": "Bendahara"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)

	var n int64
	e.db.Model(&models.Position{}).Count(&n)
	assert.Zero(t, n)

	res, err := e.crud.BulkCreate(context.Background(), schema.Positions, []map[string]any{
		{"position_id": 1, "name": "Ketua"},
		{"position_id": 2, "name": "Sekretaris"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.InsertedCount)
	assert.Len(t, res.InsertedIDs, 2)
	assert.Equal(t, "Bulk create successful", res.Message)
}

func TestBulkCreateValidatesEveryItem(t *testing.T) {
	e := setup(t)

	_, err := e.crud.BulkCreate(context.Background(), schema.Users, []map[string]any{
		{"nis": "1", "password": "pw", "nama_lengkap": "A"},
		{"nis": "2", "nama_lengkap": "B"},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "item 1: Password is required")

	_, err = e.crud.BulkCreate(context.Background(), schema.Users, nil)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateVoteCopiesCandidatePeriod(t *testing.T) {
	e := setup(t)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	owner := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	cand := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, owner.ID)

	doc, err := e.crud.Create(context.Background(), schema.Votes, map[string]any{
		"user_id":      voter.ID,
		"candidate_id": cand.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), doc["position_id"])
	assert.Equal(t, float64(2025), doc["period_start"])
	assert.Equal(t, float64(2026), doc["period_end"])

	voted, err := e.crud.CheckVoteConstraint(context.Background(), voter.ID, 1, 2025, 2026)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = e.crud.CheckVoteConstraint(context.Background(), voter.ID, 2, 2025, 2026)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestCreateVoteRejectsMismatchAndInactiveCandidate(t *testing.T) {
	e := setup(t)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	owner := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	cand := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, owner.ID)

	_, err := e.crud.Create(context.Background(), schema.Votes, map[string]any{
		"user_id":      voter.ID,
		"candidate_id": cand.ID,
		"position_id":  2,
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "Position ID does not match the candidate")

	_, err = e.crud.Create(context.Background(), schema.Votes, map[string]any{
		"user_id":      voter.ID,
		"candidate_id": uuid.NewString(),
	})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, e.db.Model(cand).Update("status", models.StatusInactive).Error)
	_, err = e.crud.Create(context.Background(), schema.Votes, map[string]any{
		"user_id":      voter.ID,
		"candidate_id": cand.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Candidate is not active")
}

func TestCreateVoteTwiceConflicts(t *testing.T) {
	e := setup(t)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	owner1 := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	owner2 := testutil.CreateUser(t, e.db, "3", models.RoleVoter)
	c1 := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, owner1.ID)
	c2 := testutil.CreateCandidate(t, e.db, 1, 2, 2025, 2026, owner2.ID)

	_, err := e.crud.Create(context.Background(), schema.Votes, map[string]any{"user_id": voter.ID, "candidate_id": c1.ID})
	require.NoError(t, err)

	_, err = e.crud.Create(context.Background(), schema.Votes, map[string]any{"user_id": voter.ID, "candidate_id": c2.ID})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "User has already voted for this position in this period", err.Error())
}

func TestCreateVoteConcurrent(t *testing.T) {
	e := setup(t)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	owner := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	cand := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, owner.ID)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.crud.Create(context.Background(), schema.Votes, map[string]any{
				"user_id":      voter.ID,
				"candidate_id": cand.ID,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, KindConflict, KindOf(err), err.Error())
	}
	assert.Equal(t, 1, wins)

	var n int64
	e.db.Model(&models.Vote{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestUpdateIgnoresImmutableFields(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter, testutil.WithAttributes(map[string]any{"gender": "L"}))

	doc, err := e.crud.Update(context.Background(), schema.Users, u.ID, map[string]any{
		"nama_lengkap": "Renamed",
		"_id":          uuid.NewString(),
		"created_at":   "2000-01-01",
		"deleted_at":   "2000-01-01",
		"class":        "XI",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, doc.ID())
	assert.Equal(t, "Renamed", doc["nama_lengkap"])
	assert.Equal(t, "XI", doc["class"])
	assert.Equal(t, "L", doc["gender"])
	assert.NotContains(t, doc, "deleted_at")

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", u.ID).Error)
	assert.WithinDuration(t, u.CreatedAt, stored.CreatedAt, time.Second)
	assert.Equal(t, models.RoleVoter, stored.Role)
}

func TestUpdateRehashesPassword(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	_, err := e.crud.Update(context.Background(), schema.Users, u.ID, map[string]any{"password": "changed"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", u.ID).Error)
	assert.True(t, utils.CheckPasswordHash("changed", stored.Password))
}

func TestUpdateValidatesPatch(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	_, err := e.crud.Update(context.Background(), schema.Users, u.ID, map[string]any{"role": "root"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpdateRejectsClearingRequiredFields(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	_, err := e.crud.Update(ctx, schema.Users, u.ID, map[string]any{"role": nil, "nis": nil, "status": nil})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = e.crud.Update(ctx, schema.Users, u.ID, map[string]any{"password": ""})
	assert.Equal(t, KindValidation, KindOf(err))

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.RoleVoter, stored.Role)
	assert.Equal(t, models.StatusActive, stored.Status)
	assert.Equal(t, "1", stored.NIS)
	assert.True(t, utils.CheckPasswordHash(testutil.TestPassword, stored.Password))

	doc, err := e.crud.Update(ctx, schema.Users, u.ID, map[string]any{"last_login_at": nil})
	require.NoError(t, err)
	assert.Nil(t, doc["last_login_at"])
}

func TestUpdateNotFound(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	testutil.SoftDelete(t, e.db, &models.User{}, u.ID)

	_, err := e.crud.Update(context.Background(), schema.Users, u.ID, map[string]any{"nama_lengkap": "X"})
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = e.crud.Update(context.Background(), schema.Users, "bogus", map[string]any{"nama_lengkap": "X"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateDuplicateConflicts(t *testing.T) {
	e := setup(t)
	testutil.CreatePosition(t, e.db, 1, "Ketua")
	p := testutil.CreatePosition(t, e.db, 2, "Sekretaris")

	_, err := e.crud.Update(context.Background(), schema.Positions, p.ID, map[string]any{"name": "Ketua"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSoftDelete(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.db, "1", models.RoleVoter)

	require.NoError(t, e.crud.SoftDelete(context.Background(), schema.Users, u.ID))

	_, err := e.docs.FindByID(context.Background(), schema.Users, u.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", u.ID).Error)
	assert.NotNil(t, stored.DeletedAt)

	err = e.crud.SoftDelete(context.Background(), schema.Users, u.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	err = e.crud.HardDelete(context.Background(), schema.Users, u.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteAdminReadsAsNotFound(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.db, "admin", models.RoleAdmin)

	err := e.crud.SoftDelete(context.Background(), schema.Users, admin.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = e.crud.HardDelete(context.Background(), schema.Users, admin.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = e.docs.FindByID(context.Background(), schema.Users, admin.ID)
	assert.NoError(t, err)
}

func TestHardDelete(t *testing.T) {
	e := setup(t)
	p := testutil.CreatePosition(t, e.db, 1, "Ketua")

	require.NoError(t, e.crud.HardDelete(context.Background(), schema.Positions, p.ID))

	var n int64
	e.db.Model(&models.Position{}).Where("id = ?", p.ID).Count(&n)
	assert.Zero(t, n)

	err := e.crud.HardDelete(context.Background(), schema.Positions, "not-an-id")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFlushKeepsAdmins(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.db, "admin", models.RoleAdmin)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	cand := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, voter.ID)
	testutil.CreateVote(t, e.db, voter.ID, cand)

	res, err := e.crud.Flush(context.Background(), []schema.Collection{schema.Votes, schema.Users})
	require.NoError(t, err)
	assert.Equal(t, "All specified collections flushed successfully", res.Message)
	require.Len(t, res.Details, 2)
	assert.Equal(t, FlushOutcome{Collection: "votes", DeletedCount: 1, Message: "votes flushed successfully"}, res.Details[0])
	assert.Equal(t, int64(2), res.Details[1].DeletedCount)

	var users []models.User
	require.NoError(t, e.db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)

	_, err = e.crud.Flush(context.Background(), nil)
	assert.Equal(t, KindValidation, KindOf(err))
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/testutil"
)

func TestRelationsOf(t *testing.T) {
	rels := relationsOf(schema.Votes)
	byField := map[string]relation{}
	for _, r := range rels {
		byField[r.field] = r
	}
	require.Len(t, byField, 3)
	assert.Equal(t, relation{field: "user_id", target: schema.Users, byID: true, embedAs: "user"}, byField["user_id"])
	assert.Equal(t, relation{field: "candidate_id", target: schema.Candidates, byID: true, embedAs: "candidate"}, byField["candidate_id"])
	assert.Equal(t, relation{field: "position_id", target: schema.Positions, byID: false, embedAs: "position"}, byField["position_id"])

	assert.Empty(t, relationsOf(schema.Users))
	assert.Empty(t, relationsOf(schema.Positions))
}

func TestFindAllIncludeRelations(t *testing.T) {
	e := setup(t)
	voter := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	owner := testutil.CreateUser(t, e.db, "2", models.RoleVoter)
	pos := testutil.CreatePosition(t, e.db, 1, "Ketua")
	cand := testutil.CreateCandidate(t, e.db, 1, 1, 2025, 2026, owner.ID)
	testutil.CreateVote(t, e.db, voter.ID, cand)

	res, err := e.docs.FindAll(context.Background(), schema.Votes, ListParams{IncludeRelations: true})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	doc := res.Data[0]

	user, ok := doc["user"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, voter.ID, user.ID())
	assert.NotContains(t, user, "password")

	candidate, ok := doc["candidate"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, cand.ID, candidate.ID())

	position, ok := doc["position"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, pos.ID, position.ID())
}

func TestPopulateOmitsUnresolvedRelations(t *testing.T) {
	e := setup(t)
	owner := testutil.CreateUser(t, e.db, "1", models.RoleVoter)
	testutil.CreateCandidate(t, e.db, 9, 1, 2025, 2026, owner.ID)
	testutil.SoftDelete(t, e.db, &models.User{}, owner.ID)

	res, err := e.docs.FindAll(context.Background(), schema.Candidates, ListParams{IncludeRelations: true})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.NotContains(t, res.Data[0], "user")
	assert.NotContains(t, res.Data[0], "position")
	assert.Equal(t, float64(9), res.Data[0]["position_id"])
}

func TestPopulateWithoutRelationsIsIdentity(t *testing.T) {
	e := setup(t)
	docs := []models.Document{{"_id": "a"}}
	assert.Equal(t, docs, e.docs.Relations().Populate(context.Background(), schema.Users, docs))
}

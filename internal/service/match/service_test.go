package match_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/db"
	"github.com/oggyb/run-together/internal/service/match"
	"github.com/oggyb/run-together/internal/testutil"
)

// setupService seeds a small runner pool:
//
//   - 1: TelAviv, morning+evening, level 1 (the requesting user)
//   - 2: TelAviv, morning, level 1 -> 85
//   - 3: TelAviv, morning, level 2 -> 55
//   - 4: Haifa, morning+evening, level 1 -> different city
//   - 5: " telaviv ", morning+evening, level 1 -> 100
//   - 0: TelAviv, afternoon, level 1 -> no overlap
func setupService(t *testing.T) *match.Service {
	t.Helper()
	env := testutil.NewEnv(t)

	testutil.CreateUsers(t, env.DB,
		db.User{ID: 0, FullName: "Zero", Email: "u0@test.com", City: "TelAviv", Level: testutil.Level(1), Availability: []string{"afternoon"}},
		db.User{ID: 1, FullName: "Dana", Email: "u1@test.com", City: "TelAviv", Level: testutil.Level(1), Availability: []string{"morning", "evening"}},
		db.User{ID: 2, FullName: "Avi", Email: "u2@test.com", City: "TelAviv", Phone: "050", Level: testutil.Level(1), Availability: []string{"morning"}},
		db.User{ID: 3, Nickname: "Speedy", Email: "u3@test.com", City: "TelAviv", Level: testutil.Level(2), Availability: []string{"morning"}},
		db.User{ID: 4, FullName: "Noa", Email: "u4@test.com", City: "Haifa", Level: testutil.Level(1), Availability: []string{"morning", "evening"}},
		db.User{ID: 5, FullName: "Lior", Email: "u5@test.com", City: " telaviv ", Level: testutil.Level(1), Availability: []string{"morning", "evening", "night"}},
	)

	return match.NewMatchService(env.App)
}

func candidateIDs(resp *api.FindMatchesResponse) []string {
	ids := make([]string, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		ids = append(ids, m.CandidateID)
	}
	return ids
}

func TestFindMatchesDefaults(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	resp, err := svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "1"})
	require.NoError(t, err)

	require.Equal(t, []string{"5", "2"}, candidateIDs(resp))
	assert.Equal(t, 100.0, resp.Matches[0].Score)
	assert.Equal(t, 85.0, resp.Matches[1].Score)

	avi := resp.Matches[1]
	assert.Equal(t, "Avi", avi.Name)
	assert.Equal(t, "050", avi.Phone)
	require.NotNil(t, avi.Level)
	assert.Equal(t, 1, *avi.Level)
	assert.Equal(t, []string{"morning"}, avi.Availability)
}

func TestFindMatchesMinScoreOverride(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	minScore := 50.0
	resp, err := svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "1", MinScore: &minScore})
	require.NoError(t, err)

	require.Equal(t, []string{"5", "2", "3"}, candidateIDs(resp))
	assert.Equal(t, 55.0, resp.Matches[2].Score)
	assert.Equal(t, "Speedy", resp.Matches[2].Name) // falls back to nickname

	minScore = 85
	resp, err = svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "1", MinScore: &minScore})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "2"}, candidateIDs(resp))
}

func TestFindMatchesWeightOverride(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	zero := 0.0
	resp, err := svc.FindMatches(ctx, &api.FindMatchesRequest{
		UserID:  "1",
		Weights: &api.WeightsInput{Time: &zero, Level: &zero},
	})
	require.NoError(t, err)

	// only the city weight remains: every filtered-in candidate scores 100, ties by id
	assert.Equal(t, []string{"2", "3", "5"}, candidateIDs(resp))
	for _, m := range resp.Matches {
		assert.Equal(t, 100.0, m.Score)
	}
}

func TestFindMatchesAllZeroWeights(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	zero := 0.0
	resp, err := svc.FindMatches(ctx, &api.FindMatchesRequest{
		UserID:  "1",
		Weights: &api.WeightsInput{Time: &zero, Level: &zero, City: &zero},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "2"}, candidateIDs(resp))
}

func TestFindMatchesUserZero(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	resp, err := svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "0"})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.NotNil(t, resp.Matches)
}

func TestFindMatchesErrors(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	negative := -0.1
	nan := math.NaN()

	tests := []struct {
		name string
		req  *api.FindMatchesRequest
		code codes.Code
	}{
		{"non numeric id", &api.FindMatchesRequest{UserID: "abc"}, codes.InvalidArgument},
		{"empty id", &api.FindMatchesRequest{}, codes.InvalidArgument},
		{"unknown user", &api.FindMatchesRequest{UserID: "99"}, codes.NotFound},
		{"negative weight", &api.FindMatchesRequest{UserID: "1", Weights: &api.WeightsInput{Level: &negative}}, codes.InvalidArgument},
		{"nan min score", &api.FindMatchesRequest{UserID: "1", MinScore: &nan}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FindMatches(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

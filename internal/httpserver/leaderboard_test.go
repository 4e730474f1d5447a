package httpserver

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pokerhall/internal/cache"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/models"
)

// seedResults records finished tournament results for a user directly.
func (env *testEnv) seedResults(tournamentID, userID uint, position int, prize float64) {
	env.T.Helper()
	require.NoError(env.T, env.DB.Create(&models.TournamentPlayer{
		TournamentID:   tournamentID,
		UserID:         userID,
		Status:         "eliminated",
		FinishPosition: &position,
		PrizeUSD:       &prize,
	}).Error)
}

func TestLeaderboard_RanksByWinnings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	t1 := env.seedTournament(8)
	t2 := env.seedTournament(8)

	alice := env.createUser("alice", "Secret123", models.RolePlayer)
	bob := env.createUser("bob", "Secret123", models.RolePlayer)

	env.seedResults(t1.ID, alice.ID, 1, 100)
	env.seedResults(t2.ID, alice.ID, 3, 0)
	env.seedResults(t1.ID, bob.ID, 2, 40)

	rec := env.do(http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := env.decodeBody(rec)
	entries := body["leaderboard"].([]any)
	require.GreaterOrEqual(t, len(entries), 2)

	top := entries[0].(map[string]any)
	assert.Equal(t, "alice", top["username"])
	assert.EqualValues(t, 1, top["rank"])
	assert.EqualValues(t, 2, top["tournaments_played"])
	assert.EqualValues(t, 1, top["tournament_wins"])
	assert.EqualValues(t, 100, top["total_winnings"])
	assert.EqualValues(t, 2, top["avg_finish"])

	second := entries[1].(map[string]any)
	assert.Equal(t, "bob", second["username"])
	assert.EqualValues(t, 2, second["rank"])
}

func TestLeaderboard_CachesPages(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lbCache := cache.NewWithClient(client, time.Minute)

	env := newTestEnvWithCache(t, lbCache)
	tournament := env.seedTournament(8)
	alice := env.createUser("alice", "Secret123", models.RolePlayer)
	env.seedResults(tournament.ID, alice.ID, 1, 100)

	rec := env.do(http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	firstBody := rec.Body.String()

	require.True(t, mr.Exists(cache.Key(0, 50)), "page should be cached after first hit")

	// New results land but the cached page is still served.
	bob := env.createUser("bob", "Secret123", models.RolePlayer)
	env.seedResults(tournament.ID, bob.ID, 2, 500)

	rec = env.do(http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, firstBody, rec.Body.String())

	// Until the TTL ages it out.
	mr.FastForward(2 * time.Minute)
	rec = env.do(http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, firstBody, rec.Body.String())
}

func TestCompleteTournament_InvalidatesLeaderboardCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lbCache := cache.NewWithClient(client, time.Hour)

	env := newTestEnvWithCache(t, lbCache)
	tournament := env.seedTournament(8)
	alice := env.createUser("alice", "Secret123", models.RolePlayer)
	require.NoError(t, env.DB.Create(&models.TournamentPlayer{
		TournamentID: tournament.ID, UserID: alice.ID, Status: "active",
	}).Error)

	// Warm the cache.
	rec := env.do(http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, mr.Exists(cache.Key(0, 50)))

	env.createUser("boss", "Secret123", models.RoleAdmin)
	access, _ := env.login("boss", "Secret123")
	rec = env.do(http.MethodPost, fmt.Sprintf("/api/tournaments/%d/complete", tournament.ID), map[string]any{
		"results": []map[string]any{
			{"user_id": alice.ID, "finish_position": 1, "prize_usd": 100},
		},
	}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.False(t, mr.Exists(cache.Key(0, 50)), "completing a tournament drops cached pages")
}

func TestPlayerStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tournament := env.seedTournament(8)
	alice := env.createUser("alice", "Secret123", models.RolePlayer)
	env.seedResults(tournament.ID, alice.ID, 1, 250)

	rec := env.do(http.MethodGet, fmt.Sprintf("/api/leaderboard/%d", alice.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := env.decodeBody(rec)
	assert.Equal(t, "alice", body["username"])
	assert.EqualValues(t, 1, body["tournament_wins"])
	assert.EqualValues(t, 250, body["total_winnings"])
}

func TestPlayerStats_UnknownUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/leaderboard/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httperr.CodeNotFound, env.errorCode(rec))
}

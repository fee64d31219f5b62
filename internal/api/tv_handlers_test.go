package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/tvguide/internal/models"
)

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)
	rr := env.do(t, http.MethodGet, "/api/health", nil, false)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), body["timestamp"])
}

func TestHandleGetVersion(t *testing.T) {
	env := setupTestServer(t)
	rr := env.do(t, http.MethodGet, "/api/version", nil, false)
	assert.JSONEq(t, `{"version":"test"}`, rr.Body.String())
}

func TestHandleOnNow(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "1", "Yle TV1", 1)
	env.seedChannel(t, "13", "Yle TV2", 2)

	env.seedProgram(t, "airing", "13", "Uutiset", fixedNow.Add(-10*time.Minute), 30, "")
	env.seedProgram(t, "ends-now", "1", "Aamu-tv", fixedNow.Add(-60*time.Minute), 60, "")
	env.seedProgram(t, "starts-now", "1", "Elokuva", fixedNow, 90, "")
	env.seedProgram(t, "ended", "1", "Vanha", fixedNow.Add(-3*time.Hour), 60, "")
	env.seedProgram(t, "later", "13", "Myöhemmin", fixedNow.Add(time.Minute), 30, "")

	rr := env.do(t, http.MethodGet, "/api/tv/now", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)

	programs := decode[[]models.ProgramWithChannel](t, rr)
	assert.ElementsMatch(t, []string{"airing", "ends-now", "starts-now"}, programIDs(programs))
	for _, p := range programs {
		require.NotNil(t, p.Expand.Channel, "channel is expanded")
		assert.Equal(t, p.ChannelID, p.Expand.Channel.ID)
	}
}

func TestHandleOnNowEmpty(t *testing.T) {
	env := setupTestServer(t)
	rr := env.do(t, http.MethodGet, "/api/tv/now", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHandleTonight(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "1", "Yle TV1", 1)

	at := func(h, m int) time.Time { return time.Date(2025, 12, 16, h, m, 0, 0, helsinki) }
	env.seedProgram(t, "too-early", "1", "A", at(19, 59), 1, "")
	env.seedProgram(t, "opener", "1", "B", at(20, 0), 60, "")
	env.seedProgram(t, "late", "1", "C", at(23, 0), 60, "")
	env.seedProgram(t, "too-late", "1", "D", at(23, 1), 60, "")
	env.seedProgram(t, "tomorrow", "1", "E", at(21, 0).AddDate(0, 0, 1), 60, "")

	rr := env.do(t, http.MethodGet, "/api/tv/tonight", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"opener", "late"}, programIDs(decode[[]models.ProgramWithChannel](t, rr)))
}

func TestHandleChannelSchedule(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "1", "Yle TV1", 1)
	env.seedChannel(t, "13", "Yle TV2", 2)

	day := time.Date(2025, 12, 17, 0, 0, 0, 0, helsinki)
	env.seedProgram(t, "b", "13", "Second", day.Add(9*time.Hour), 30, "")
	env.seedProgram(t, "a", "13", "First", day, 30, "")
	env.seedProgram(t, "other-channel", "1", "Other", day.Add(time.Hour), 30, "")
	env.seedProgram(t, "next-day", "13", "Next", day.AddDate(0, 0, 1), 30, "")
	env.seedProgram(t, "prev-day", "13", "Prev", day.Add(-time.Minute), 1, "")

	t.Run("Success", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/tv/schedule/13/2025-12-17", nil, false)
		require.Equal(t, http.StatusOK, rr.Code)
		programs := decode[[]models.Program](t, rr)
		require.Len(t, programs, 2)
		assert.Equal(t, "a", programs[0].ID)
		assert.Equal(t, "b", programs[1].ID)
	})

	t.Run("Unknown channel is empty", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/tv/schedule/999/2025-12-17", nil, false)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("Invalid date", func(t *testing.T) {
		for _, date := range []string{"20251217", "2025-13-01", "tomorrow"} {
			rr := env.do(t, http.MethodGet, "/api/tv/schedule/13/"+date, nil, false)
			assert.Equal(t, http.StatusBadRequest, rr.Code, date)
		}
	})
}

func TestHandleStats(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "1", "Yle TV1", 1)
	env.seedChannel(t, "2", "Yle TV2", 2)
	require.NoError(t, env.store.SetChannelActive("2", false))
	require.NoError(t, env.store.UpsertSeries("1109", "BUU-klubben", fixedNow))
	env.seedProgram(t, "p1", "1", "BUU-klubben", fixedNow, 26, "1109")
	env.seedProgram(t, "p2", "1", "Uutiset", fixedNow.Add(time.Hour), 10, "")

	rr := env.do(t, http.MethodGet, "/api/tv/stats", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[models.Stats](t, rr)
	assert.Equal(t, 2, stats.TotalPrograms)
	assert.Equal(t, 1, stats.TotalChannels)
	assert.Equal(t, 1, stats.TotalSeries)
	require.NotNil(t, stats.ProgramsFrom)
	require.NotNil(t, stats.ProgramsUntil)
	assert.True(t, fixedNow.Equal(*stats.ProgramsFrom))
	assert.True(t, fixedNow.Add(70*time.Minute).Equal(*stats.ProgramsUntil))
	assert.Nil(t, stats.LastFetch)
	assert.Equal(t, []models.ChannelProgramCount{
		{ChannelID: "1", ChannelName: "Yle TV1", Programs: 2},
	}, stats.ProgramsPerChannel)
}

func TestHandleListChannels(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "13", "Yle TV2", 2)
	env.seedChannel(t, "1", "Yle TV1", 1)
	require.NoError(t, env.store.SetChannelActive("13", false))

	rr := env.do(t, http.MethodGet, "/api/tv/channels", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	channels := decode[[]models.Channel](t, rr)
	require.Len(t, channels, 1)
	assert.Equal(t, "1", channels[0].ID)

	rr = env.do(t, http.MethodGet, "/api/tv/channels?all=1", nil, false)
	channels = decode[[]models.Channel](t, rr)
	require.Len(t, channels, 2)
	assert.Equal(t, "13", channels[1].ID)
}

func TestHandleSearch(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "1", "Yle TV1", 1)
	env.seedProgram(t, "old", "1", "Pikku Kakkonen", fixedNow.Add(-24*time.Hour), 30, "")
	env.seedProgram(t, "new", "1", "Pikku Kakkonen", fixedNow, 30, "")
	env.seedProgram(t, "other", "1", "Uutiset", fixedNow, 30, "")

	rr := env.do(t, http.MethodGet, "/api/tv/search?q=kakko", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"new", "old"}, programIDs(decode[[]models.ProgramWithChannel](t, rr)))

	rr = env.do(t, http.MethodGet, "/api/tv/search?q=", nil, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGetSeries(t *testing.T) {
	env := setupTestServer(t)
	env.seedChannel(t, "13", "Yle TV2", 1)
	require.NoError(t, env.store.UpsertSeries("1109", "BUU-klubben", fixedNow.Add(-48*time.Hour)))
	env.seedProgram(t, "past", "13", "BUU-klubben", fixedNow.Add(-24*time.Hour), 26, "1109")
	env.seedProgram(t, "next", "13", "BUU-klubben", fixedNow.Add(24*time.Hour), 26, "1109")

	rr := env.do(t, http.MethodGet, "/api/tv/series/1109", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[struct {
		models.Series
		Upcoming []models.ProgramWithChannel `json:"upcoming"`
	}](t, rr)
	assert.Equal(t, "BUU-klubben", body.Name)
	assert.Equal(t, 2, body.EpisodeCount)
	assert.Equal(t, []string{"next"}, programIDs(body.Upcoming))

	rr = env.do(t, http.MethodGet, "/api/tv/series/404", nil, false)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

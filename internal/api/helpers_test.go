package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/tvguide/internal/api"
	"github.com/vrsandeep/tvguide/internal/auth"
	"github.com/vrsandeep/tvguide/internal/config"
	"github.com/vrsandeep/tvguide/internal/core"
	"github.com/vrsandeep/tvguide/internal/models"
	"github.com/vrsandeep/tvguide/internal/store"
	"github.com/vrsandeep/tvguide/internal/testutil"
)

const (
	adminUser     = "admin"
	adminPassword = "secret"
)

var adminHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		panic(err)
	}
	return hash
})

var helsinki = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		panic(err)
	}
	return loc
}()

// fixedNow is 18:30 in Helsinki.
var fixedNow = time.Date(2025, 12, 16, 18, 30, 0, 0, helsinki)

type testEnv struct {
	app    *core.App
	store  *store.Store
	source *testutil.MockSource
	router http.Handler
}

type setupOption func(cfg *config.Config)

func withoutAdmin(cfg *config.Config) { cfg.Admin.PasswordHash = "" }

// setupTestServer wires a full App against a temporary database and a
// mock schedule source.
func setupTestServer(t *testing.T, opts ...setupOption) *testEnv {
	t.Helper()
	source := testutil.NewMockSource(t)

	cfg := &config.Config{}
	cfg.Source.BaseURL = source.URL()
	cfg.Schedule.Timezone = "Europe/Helsinki"
	cfg.Admin.Username = adminUser
	cfg.Admin.PasswordHash = adminHash()
	for _, opt := range opts {
		opt(cfg)
	}

	app := core.NewWithDB(cfg, testutil.SetupTestDB(t))
	app.Version = "test"
	server := api.NewServer(app, api.WithClock(func() time.Time { return fixedNow }))
	return &testEnv{app: app, store: app.Store(), source: source, router: server.Router()}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if admin {
		req.SetBasicAuth(adminUser, adminPassword)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedChannel(t *testing.T, id, name string, order int) {
	t.Helper()
	require.NoError(t, e.store.UpsertChannel(models.Channel{ID: id, Name: name, ShowOrder: order}))
}

func (e *testEnv) seedProgram(t *testing.T, id, channelID, name string, start time.Time, minutes int, seriesID string) {
	t.Helper()
	p := models.Program{
		ID:        id,
		ChannelID: channelID,
		Name:      name,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		Duration:  minutes,
	}
	if seriesID != "" {
		p.SeriesID = &seriesID
		p.IsSeries = true
	}
	require.NoError(t, e.store.UpsertProgram(p))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func programIDs(programs []models.ProgramWithChannel) []string {
	ids := make([]string, 0, len(programs))
	for _, p := range programs {
		ids = append(ids, p.ID)
	}
	return ids
}

package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

const fixtureJSON = `{
  "results": 1,
  "errors": [],
  "response": [{
    "fixture": {"id": 1035037, "date": "2024-08-16T19:00:00+00:00", "status": {"long": "Match Finished", "short": "FT"}},
    "league": {"id": 61, "name": "Ligue 1", "country": "France", "season": 2024, "round": "Regular Season - 1"},
    "teams": {"home": {"id": 80, "name": "Lyon"}, "away": {"id": 96, "name": "Toulouse"}},
    "goals": {"home": 2, "away": 1},
    "score": {"halftime": {"home": 0, "away": 1}, "fulltime": {"home": 2, "away": 1}}
  }]
}`

func TestClient_GetFixture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures", r.URL.Path)
		assert.Equal(t, "1035037", r.URL.Query().Get("id"))
		assert.Equal(t, "secret", r.Header.Get("x-apisports-key"))
		_, _ = w.Write([]byte(fixtureJSON))
	}))
	defer srv.Close()

	c := NewClient(&config.APIFootballConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	f, err := c.GetFixture(context.Background(), 1035037)
	require.NoError(t, err)

	row := f.Row()
	assert.Equal(t, int64(1035037), row.ID)
	assert.Equal(t, "FT", row.StatusShort)
	assert.Equal(t, 2024, row.Season)
	assert.Equal(t, int64(80), *row.HomeTeamID)
	assert.Equal(t, 2, *row.GoalsHome)
	assert.Equal(t, 1, *row.GoalsAwayHT)
	assert.Equal(t, 19, row.DateUTC.Hour())
	assert.True(t, row.IsFinished())

	res := f.Result()
	assert.Equal(t, "Match Finished", res.StatusLong)
	assert.Equal(t, 0, *res.GoalsHomeHT)

	assert.Equal(t, "Toulouse", f.TeamRows()[1].Name)
	assert.Equal(t, "Ligue 1", f.CompetitionRow().Name)
}

func TestClient_GetFixture_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": 0, "errors": [], "response": []}`))
	}))
	defer srv.Close()

	c := NewClient(&config.APIFootballConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.GetFixture(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoFixture)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("league") == "1" {
			_, _ = w.Write([]byte(`{"errors": {"rateLimit": "Too many requests"}, "response": []}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(&config.APIFootballConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.GetLeagueFixtures(context.Background(), 1, 2024)
	assert.ErrorContains(t, err, "rateLimit: Too many requests")

	_, err = c.GetLeagueFixtures(context.Background(), 2, 2024)
	assert.ErrorContains(t, err, "status 403")

	noKey := NewClient(&config.APIFootballConfig{BaseURL: srv.URL})
	_, err = noKey.GetFixture(context.Background(), 1)
	assert.ErrorContains(t, err, "key is not set")
}

func TestEnvelopeError(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{``, ""},
		{`[]`, ""},
		{`{}`, ""},
		{`null`, ""},
		{`{"token": "bad", "access": "denied"}`, "access: denied; token: bad"},
		{`["boom"]`, `["boom"]`},
	}
	for _, tt := range tests {
		if got := envelopeError([]byte(tt.in)); got != tt.want {
			t.Errorf("envelopeError(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

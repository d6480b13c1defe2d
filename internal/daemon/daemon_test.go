package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/clomonitor/internal/config"
)

func TestRestartFields(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			DB:     config.DBConfig{URL: "postgres://localhost/clomonitor"},
			GitHub: config.GitHubConfig{Tokens: []string{"token-a"}},
			Tracker: config.TrackerConfig{
				Concurrency:       10,
				Schedule:          "30m",
				ScorecardBin:      "scorecard",
				RepositoryTimeout: "600s",
			},
			Server: config.ServerConfig{Addr: ":8000"},
		}
	}

	t.Run("identical configs need nothing", func(t *testing.T) {
		assert.Empty(t, restartFields(base(), base()))
	})

	t.Run("log changes are not restart fields", func(t *testing.T) {
		next := base()
		next.Log.Level = config.LogLevelDebug
		assert.Empty(t, restartFields(base(), next))
	})

	t.Run("changed settings are named", func(t *testing.T) {
		next := base()
		next.DB.URL = "postgres://elsewhere/clomonitor"
		next.Tracker.Concurrency = 2
		next.GitHub.Tokens = []string{"token-a", "token-b"}

		fields := restartFields(base(), next)
		assert.ElementsMatch(t,
			[]string{"db.url", "tracker.concurrency", "github.tokens"},
			fields)
	})
}

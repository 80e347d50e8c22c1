package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-threads/internal/cli"
)

const apiKey = "cli-test-key"

func fakeAPI(t *testing.T, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(delay)
		if r.URL.Query().Get("appid") != apiKey {
			http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
			return
		}
		city := r.URL.Query().Get("q")
		if city == "Atlantis" {
			_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
			return
		}
		_, _ = fmt.Fprintf(w, `{"name":%q,"weather":[{"description":"light rain"}],"main":{"temp":7}}`, city)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func setEnv(t *testing.T, url string) {
	t.Setenv("OPEN_WEATHER_MAP_API_KEY", apiKey)
	t.Setenv("OPEN_WEATHER_MAP_URL", url)
	t.Setenv("LOG_LEVEL", "error")
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = cli.Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_AllSucceed(t *testing.T) {
	srv, calls := fakeAPI(t, 0)
	setEnv(t, srv.URL)

	code, stdout, _ := run("Lviv", "Kyiv")

	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout, "Temperature in Lviv is 7C with light rain\n")
	assert.Contains(t, stdout, "Temperature in Kyiv is 7C with light rain\n")
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun_PartialFailure(t *testing.T) {
	srv, _ := fakeAPI(t, 0)
	setEnv(t, srv.URL)

	code, stdout, stderr := run("Lviv", "Atlantis")

	assert.Equal(t, cli.ExitPartialFailure, code)
	assert.Equal(t, "Temperature in Lviv is 7C with light rain\n", stdout)
	assert.Contains(t, stderr, "Failed to fetch weather for Atlantis")
	assert.NotContains(t, stderr, "Error:")
}

func TestRun_NoCities(t *testing.T) {
	srv, calls := fakeAPI(t, 0)
	setEnv(t, srv.URL)
	t.Setenv("OPEN_WEATHER_MAP_API_KEY", "")

	code, stdout, _ := run()

	assert.Equal(t, cli.ExitOK, code)
	assert.Empty(t, stdout)
	assert.Zero(t, calls.Load())
}

func TestRun_MissingAPIKey(t *testing.T) {
	srv, calls := fakeAPI(t, 0)
	setEnv(t, srv.URL)
	t.Setenv("OPEN_WEATHER_MAP_API_KEY", "")

	code, stdout, stderr := run("Lviv")

	assert.Equal(t, cli.ExitSetupError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: OPEN_WEATHER_MAP_API_KEY is not set")
	assert.Zero(t, calls.Load())
}

func TestRun_TimeoutFlag(t *testing.T) {
	srv, _ := fakeAPI(t, 500*time.Millisecond)
	setEnv(t, srv.URL)

	code, stdout, stderr := run("--timeout", "50ms", "Lviv")

	assert.Equal(t, cli.ExitPartialFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Failed to fetch weather for Lviv")
}

func TestRun_ConcurrencyFlag(t *testing.T) {
	srv, _ := fakeAPI(t, 0)
	setEnv(t, srv.URL)

	code, _, stderr := run("--concurrency", "-1", "Lviv")

	assert.Equal(t, cli.ExitSetupError, code)
	assert.Contains(t, stderr, "Error:")
}

func TestRun_EnvFile(t *testing.T) {
	srv, _ := fakeAPI(t, 0)
	t.Setenv("OPEN_WEATHER_MAP_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")
	require.NoError(t, os.Unsetenv("OPEN_WEATHER_MAP_API_KEY"))
	t.Cleanup(func() { _ = os.Unsetenv("OPEN_WEATHER_MAP_API_KEY") })

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPEN_WEATHER_MAP_API_KEY="+apiKey+"\n"), 0o600))

	code, stdout, _ := run("--env-file", envFile, "Lviv")

	assert.Equal(t, cli.ExitOK, code)
	assert.Equal(t, "Temperature in Lviv is 7C with light rain\n", stdout)
}

func TestRun_MissingExplicitEnvFile(t *testing.T) {
	srv, _ := fakeAPI(t, 0)
	setEnv(t, srv.URL)

	code, _, stderr := run("--env-file", filepath.Join(t.TempDir(), "absent.env"), "Lviv")

	assert.Equal(t, cli.ExitSetupError, code)
	assert.Contains(t, stderr, "absent.env")
}

func TestRun_UsageErrors(t *testing.T) {
	srv, _ := fakeAPI(t, 0)
	setEnv(t, srv.URL)

	tests := []struct {
		name string
		args []string
	}{
		{"UnknownFlag", []string{"--bogus", "Lviv"}},
		{"WatchWithoutCities", []string{"watch"}},
		{"WatchBadSchedule", []string{"watch", "--schedule", "whenever", "Lviv"}},
		{"ServeWithArgs", []string{"serve", "Lviv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(tt.args...)
			assert.Equal(t, cli.ExitSetupError, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, cli.ExitOK, cli.ExitCode(nil))
	assert.Equal(t, cli.ExitPartialFailure, cli.ExitCode(fmt.Errorf("run: %w", cli.ErrPartialFailure)))
	assert.Equal(t, cli.ExitSetupError, cli.ExitCode(errors.New("boom")))
}

func TestNewRootCmd_Structure(t *testing.T) {
	root := cli.NewRootCmd()

	for _, name := range []string{"timeout", "concurrency", "log-level", "env-file"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["watch"])
	assert.True(t, names["serve"])
}

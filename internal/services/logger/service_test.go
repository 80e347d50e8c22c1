package logger_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Nazarious-ucu/weather-threads/internal/services/logger"
)

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestRoundTripper_LogsAndPreservesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"Paris"}`)
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.InfoLevel)
	client := &http.Client{Transport: logger.NewRoundTripper(zap.New(core), nil)}

	resp, err := client.Get(srv.URL + "?q=Paris&appid=top-secret&units=metric")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Paris"}`, string(body))

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusOK), fields["status_code"])
	assert.Equal(t, `{"name":"Paris"}`, fields["body_snipped"])
	assert.NotContains(t, fields["url"], "top-secret")
	assert.Contains(t, fields["url"], "appid=REDACTED")
	assert.Contains(t, fields["url"], "q=Paris")
}

func TestRoundTripper_TransportError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	client := &http.Client{Transport: logger.NewRoundTripper(zap.New(core), failingTransport{})}

	_, err := client.Get("http://weather.test/data?q=Lviv&appid=top-secret")
	require.Error(t, err)

	entries := logs.FilterMessage("HTTP request failed").All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap()["url"], "top-secret")
}

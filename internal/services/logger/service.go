package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const redacted = "REDACTED"

// RoundTripper logs every upstream request with its response body. The
// appid query parameter never reaches the log.
type RoundTripper struct {
	Logger *zap.Logger
	Proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.Logger, proxy http.RoundTripper) *RoundTripper {
	if proxy == nil {
		proxy = http.DefaultTransport
	}
	return &RoundTripper{
		Logger: logger,
		Proxy:  proxy,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Error("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", redactURL(req.URL)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err != nil {
		l.Logger.Error("Failed to read response body",
			zap.String("method", req.Method),
			zap.String("url", redactURL(req.URL)),
			zap.Duration("duration", duration),
			zap.Int("bytes_read", len(bodyBytes)),
			zap.Error(err),
		)
		return resp, nil
	}

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", redactURL(req.URL)),
		zap.ByteString("body_snipped", bodyBytes),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

func redactURL(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("appid") {
		q.Set("appid", redacted)
		c.RawQuery = q.Encode()
	}
	return c.String()
}

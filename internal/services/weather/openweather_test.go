//go:build unit

package weather_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
	"github.com/Nazarious-ucu/weather-threads/internal/services/weather"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, ok := args.Get(0).(*http.Response)
	if !ok {
		return nil, args.Error(1)
	}
	return resp, args.Error(1)
}

func newClient(t *testing.T, httpClient weather.HTTPClient) *weather.ClientOpenWeatherMap {
	t.Helper()
	c, err := weather.NewClientOpenWeatherMap("1234567890", "http://weather.test/data/2.5/weather", httpClient, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func Test_OpenWeather_Fetch_Success(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return req.Method == http.MethodGet &&
			q.Get("q") == "paris" &&
			q.Get("appid") == "1234567890" &&
			q.Get("units") == "metric"
	})).Return(okResponse(parisBody), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	data, err := newClient(t, m).Fetch(context.Background(), "paris")
	require.NoError(t, err)
	assert.Equal(t, models.CallResult{City: "Paris", Weather: "clear sky", Temperature: 18.5}, data)
}

func Test_OpenWeather_RequestURL_EncodesQuery(t *testing.T) {
	u := newClient(t, &mockHTTPClient{}).RequestURL("São Paulo,BR")

	assert.Equal(t,
		"http://weather.test/data/2.5/weather?appid=1234567890&q=S%C3%A3o+Paulo%2CBR&units=metric", u)
}

func Test_OpenWeather_NewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"://broken", "not-a-url", ""} {
		_, err := weather.NewClientOpenWeatherMap("k", raw, &mockHTTPClient{}, zerolog.Nop())
		assert.ErrorIs(t, err, weather.ErrInvalidURL, raw)
	}
}

func Test_OpenWeather_TransportError(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	c := newClient(t, m)
	assert.Empty(t, c.FetchRaw(context.Background(), "Lviv"))

	m.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	data, err := c.Fetch(context.Background(), "Lviv")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrInvalidJSON)
	assert.Contains(t, err.Error(), "Lviv")
	assert.Equal(t, models.CallResult{}, data)
}

func Test_OpenWeather_NonUTF8Body(t *testing.T) {
	m := &mockHTTPClient{}
	const nonUTF8 = "{\"name\":\"\xff\xfe\"}"
	m.On("Do", mock.Anything).Return(okResponse(nonUTF8), nil).Once()
	m.On("Do", mock.Anything).Return(okResponse(nonUTF8), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	c := newClient(t, m)
	assert.Equal(t,
		"Malformed data encountered while fetching weather data for Kyiv",
		c.FetchRaw(context.Background(), "Kyiv"))

	data, err := c.Fetch(context.Background(), "Kyiv")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrInvalidJSON)
	assert.Equal(t, models.CallResult{}, data)
}

func Test_OpenWeather_PartialBodyOnReadError(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body: io.NopCloser(io.MultiReader(
			strings.NewReader(`{"name":"Par`),
			iotest.ErrReader(errors.New("connection reset")),
		)),
	}, nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	assert.Equal(t, `{"name":"Par`, newClient(t, m).FetchRaw(context.Background(), "Paris"))
}

func Test_OpenWeather_CityNotFound(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"cod":"404","message":"city not found"}`)),
	}, nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	data, err := newClient(t, m).Fetch(context.Background(), "UnknownCity")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrMissingField)
	assert.Equal(t, models.CallResult{}, data)
}

func Test_OpenWeather_AgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "1234567890" {
			http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"`+r.URL.Query().Get("q")+`","weather":[{"description":"mist"}],"main":{"temp":7}}`)
	}))
	t.Cleanup(srv.Close)

	c, err := weather.NewClientOpenWeatherMap("1234567890", srv.URL, srv.Client(), zerolog.Nop())
	require.NoError(t, err)

	data, err := c.Fetch(context.Background(), "Odesa")
	require.NoError(t, err)
	assert.Equal(t, models.CallResult{City: "Odesa", Weather: "mist", Temperature: 7}, data)

	bad, err := weather.NewClientOpenWeatherMap("wrong", srv.URL, srv.Client(), zerolog.Nop())
	require.NoError(t, err)
	_, err = bad.Fetch(context.Background(), "Odesa")
	assert.ErrorIs(t, err, weather.ErrMissingField)
}

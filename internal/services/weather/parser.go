package weather

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

const snippetLen = 120

var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrMissingField = errors.New("missing or mistyped field")
)

// ParseCallResult extracts name, weather[0].description and main.temp from
// an OpenWeatherMap response. All three are required.
func ParseCallResult(body string) (models.CallResult, error) {
	data := []byte(body)
	if !jsoniter.Valid(data) {
		return models.CallResult{}, fmt.Errorf("%w: %q", ErrInvalidJSON, snippet(body))
	}

	city, err := stringAt(data, "name")
	if err != nil {
		return models.CallResult{}, err
	}

	description, err := stringAt(data, "weather", 0, "description")
	if err != nil {
		return models.CallResult{}, err
	}

	temp := jsoniter.Get(data, "main", "temp")
	if temp.ValueType() != jsoniter.NumberValue {
		return models.CallResult{}, fmt.Errorf("%w: main.temp is not a number", ErrMissingField)
	}

	return models.CallResult{
		City:        city,
		Weather:     description,
		Temperature: temp.ToFloat64(),
	}, nil
}

func stringAt(data []byte, path ...interface{}) (string, error) {
	v := jsoniter.Get(data, path...)
	if v.ValueType() != jsoniter.StringValue {
		return "", fmt.Errorf("%w: %s is not a string", ErrMissingField, fieldPath(path))
	}
	return v.ToString(), nil
}

func fieldPath(path []interface{}) string {
	var b strings.Builder
	for i, p := range path {
		switch v := p.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

func snippet(body string) string {
	if len(body) <= snippetLen {
		return body
	}
	return body[:snippetLen] + "..."
}

package dispatcher

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

// ConsolePrinter writes successes to out and failures to diag.
type ConsolePrinter struct {
	out  io.Writer
	diag io.Writer
}

func NewConsolePrinter(out, diag io.Writer) *ConsolePrinter {
	return &ConsolePrinter{out: out, diag: diag}
}

func (p *ConsolePrinter) Handle(_ context.Context, r models.Result) error {
	if !r.OK() {
		_, err := fmt.Fprintf(p.diag, "Failed to fetch weather for %s: %v\n", r.Query, r.Err)
		return err
	}
	_, err := fmt.Fprintln(p.out, FormatLine(r.CallResult))
	return err
}

// FormatLine renders the temperature with the fewest digits that round-trip.
func FormatLine(c models.CallResult) string {
	return fmt.Sprintf("Temperature in %s is %sC with %s",
		c.City,
		strconv.FormatFloat(c.Temperature, 'f', -1, 64),
		c.Weather,
	)
}

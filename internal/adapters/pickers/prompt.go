package pickers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
)

// Prompt reads picker answers line by line. An empty line or end of input
// closes the picker without a selection.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a line-based picker over in; prompts go to out
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

var (
	_ providers.DatePicker = (*Prompt)(nil)
	_ providers.TimePicker = (*Prompt)(nil)
)

// RequestDate asks for a YYYY-MM-DD date no earlier than lowerBound's day
func (p *Prompt) RequestDate(ctx context.Context, lowerBound, initial time.Time) (time.Time, bool, error) {
	loc := lowerBound.Location()
	floor := midnight(lowerBound)

	for {
		line, ok, err := p.Ask(ctx, fmt.Sprintf("Date (YYYY-MM-DD) [%s]: ", initial.Format(entities.DateLayout)))
		if err != nil || !ok {
			return time.Time{}, false, err
		}

		picked, err := time.ParseInLocation(entities.DateLayout, line, loc)
		if err != nil {
			fmt.Fprintf(p.out, "Not a date: %q\n", line)
			continue
		}
		if picked.Before(floor) {
			fmt.Fprintf(p.out, "Pick %s or later\n", floor.Format(entities.DateLayout))
			continue
		}
		return picked, true, nil
	}
}

// RequestTime asks for an HH:MM time whose minutes are a multiple of minuteInterval.
// The result keeps initial's calendar day.
func (p *Prompt) RequestTime(ctx context.Context, initial time.Time, minuteInterval int) (time.Time, bool, error) {
	if minuteInterval <= 0 {
		minuteInterval = 1
	}

	for {
		line, ok, err := p.Ask(ctx, fmt.Sprintf("Time (HH:MM, %d-minute steps) [%s]: ", minuteInterval, initial.Format(entities.TimeLayout)))
		if err != nil || !ok {
			return time.Time{}, false, err
		}

		clock, err := time.Parse(entities.TimeLayout, line)
		if err != nil {
			fmt.Fprintf(p.out, "Not a time: %q\n", line)
			continue
		}
		if clock.Minute()%minuteInterval != 0 {
			fmt.Fprintf(p.out, "Minutes must be a multiple of %d\n", minuteInterval)
			continue
		}
		return atClock(initial, clock), true, nil
	}
}

// Ask prints prompt and reads one trimmed line; ok is false for an empty
// line or end of input.
func (p *Prompt) Ask(ctx context.Context, prompt string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, nil
	}
	return line, true, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atClock(day, clock time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location())
}

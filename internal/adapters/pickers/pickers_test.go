package pickers

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.May, 15, 10, 20, 0, 0, time.UTC)

func TestPrompt_RequestDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "valid date", input: "2024-05-20\n", want: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "today is allowed", input: "2024-05-15\n", want: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "reprompts after garbage", input: "soon\n2024-06-01\n", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "reprompts on past date", input: "2024-05-01\n2024-05-17\n", want: time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "empty line cancels", input: "\n"},
		{name: "end of input cancels", input: ""},
		{name: "last line without newline", input: "2024-05-21", want: time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC), wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out)

			got, ok, err := p.RequestDate(context.Background(), now, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestPrompt_RequestTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		interval int
		want     time.Time
		wantOK   bool
	}{
		{name: "on the half hour", input: "14:30\n", interval: 30, want: time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC), wantOK: true},
		{name: "off-step minutes reprompt", input: "14:10\n09:00\n", interval: 30, want: time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC), wantOK: true},
		{name: "finer interval", input: "08:45\n", interval: 15, want: time.Date(2024, 5, 15, 8, 45, 0, 0, time.UTC), wantOK: true},
		{name: "garbage reprompts", input: "noon\n12:00\n", interval: 30, want: time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), wantOK: true},
		{name: "cancel", input: "\n", interval: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompt(strings.NewReader(tt.input), &bytes.Buffer{})

			got, ok, err := p.RequestTime(context.Background(), now, tt.interval)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestPrompt_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompt(strings.NewReader("2024-05-20\n"), &bytes.Buffer{})
	_, ok, err := p.RequestDate(ctx, now, now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestFixed(t *testing.T) {
	value := time.Date(2024, 5, 20, 16, 30, 0, 0, time.UTC)
	f := Fixed{Value: value}

	date, ok, err := f.RequestDate(context.Background(), now, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value, date)

	clock, ok, err := f.RequestTime(context.Background(), now, 30)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 15, 16, 30, 0, 0, time.UTC), clock)
}

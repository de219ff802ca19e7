package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		format string
		want   []string
	}{
		{FormatText, []string{"level=INFO", "msg=hello", "k=v"}},
		{"", []string{"level=INFO", "msg=hello", "k=v"}},
		{FormatJSON, []string{`"level":"INFO"`, `"msg":"hello"`, `"k":"v"`}},
		{FormatConsole, []string{"INF", "hello", "k=v"}},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&buf, tc.format, "info")
			require.NoError(t, err)

			l.Info(ctx, "hello", "k", "v")
			for _, s := range tc.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	ctx := context.Background()

	for _, format := range []string{FormatText, FormatConsole} {
		var buf bytes.Buffer
		l, err := New(&buf, format, "warn")
		require.NoError(t, err)

		l.Debug(ctx, "dbg-line")
		l.Info(ctx, "inf-line")
		l.Warn(ctx, "wrn-line")

		out := buf.String()
		assert.NotContains(t, out, "dbg-line", format)
		assert.NotContains(t, out, "inf-line", format)
		assert.Contains(t, out, "wrn-line", format)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	require.ErrorContains(t, err, "unknown log format")

	_, err = New(&bytes.Buffer{}, FormatText, "loud")
	require.ErrorContains(t, err, "unknown log level")
}

func TestZerologLogger_With_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologConsole(&buf, slog.LevelDebug)

	l.With("component", "auth").Error(context.Background(), "boom", "op", "login")

	out := buf.String()
	for _, s := range []string{"ERR", "boom", "component=auth", "op=login"} {
		assert.Contains(t, out, s)
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop()
	ctx := context.TODO()
	l.Debug(ctx, "x")
	l.With("a", 1).Error(ctx, "y")
}

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []Entry {
	t.Helper()
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLoggerEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, nil)
	defer Configure(nil, LevelInfo, nil)

	Get("sandbox").Info("container started")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	require.Equal(t, "sandbox", entries[0].Component)
	require.Equal(t, "info", entries[0].Level)
	require.Equal(t, "container started", entries[0].Message)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelWarn, nil)
	defer Configure(nil, LevelInfo, nil)

	Get("queue").Debug("dropped")
	Get("queue").Info("also dropped")
	Get("queue").Warn("kept")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	require.Equal(t, "kept", entries[0].Message)
}

func TestComponentAllowlist(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, []string{"queue"})
	defer Configure(nil, LevelInfo, nil)

	Get("sandbox").Info("filtered out")
	Get("queue").Info("passes through")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	require.Equal(t, "queue", entries[0].Component)
}

func TestLogStepEmitsStartAndEnd(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, nil)
	defer Configure(nil, LevelInfo, nil)

	span := LogStep("repro_worker", "job-1", "clone")
	span.End(nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	require.Equal(t, "clone_start", entries[0].Event)
	require.Equal(t, "clone_end", entries[1].Event)
	require.Equal(t, "success", entries[1].Status)
	require.Equal(t, "job-1", entries[1].JobID)
}

func TestLogStepEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, nil)
	defer Configure(nil, LevelInfo, nil)

	span := LogStep("repro_worker", "job-2", "build")
	span.End(errTest("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	require.Equal(t, "build_error", entries[1].Event)
	require.Equal(t, "error", entries[1].Status)
	require.Equal(t, "boom", entries[1].Error)
}

func TestLogStepEndIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, nil)
	defer Configure(nil, LevelInfo, nil)

	span := LogStep("repro_worker", "job-3", "exec")
	span.End(nil)
	span.End(nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2, "End called twice must still emit exactly one terminal event")
}

type errTest string

func (e errTest) Error() string { return string(e) }

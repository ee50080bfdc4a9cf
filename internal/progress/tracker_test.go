package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTracker(buf *bytes.Buffer) *Tracker {
	return New(Options{
		TitleLength:       40,
		MinUpdateInterval: 0,
		Out:               buf,
	})
}

func TestSetPreRendersDotsAndSavesCursor(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)

	require.True(t, tr.SetPre("Building firmware", false))
	out := buf.String()
	require.True(t, strings.Contains(out, "Building firmware"))
	require.True(t, strings.Contains(out, "."))
	require.True(t, strings.Contains(out, "\x1b[s"))
}

func TestSetPreOutOfStateIsNoop(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)
	require.True(t, tr.SetPre("first", false))
	require.False(t, tr.SetPre("second", false))
}

func TestSetBodyInPlaceBeforePreIsNoop(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)
	require.False(t, tr.SetBodyInPlace("line", false))
}

func TestSetBodyInPlaceThrottled(t *testing.T) {
	var buf bytes.Buffer
	tr := New(Options{TitleLength: 40, MinUpdateInterval: time.Hour, Out: &buf})
	require.True(t, tr.SetPre("step", false))
	require.True(t, tr.SetBodyInPlace("first update", false))
	require.False(t, tr.SetBodyInPlace("second update", false))
}

func TestSetResultReturnsToIdle(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)
	require.True(t, tr.SetPre("step", false))
	require.True(t, tr.SetResult("done", 0))
	require.Equal(t, stateIdle, tr.st)

	require.True(t, tr.SetPre("step2", false))
}

func TestSetResultColorSelection(t *testing.T) {
	require.NotNil(t, resultColor("ok", 0))
	c := resultColor("warning: slow", 0)
	require.Equal(t, "test", c("test"))
}

func TestSetCompleteLine(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)
	require.True(t, tr.SetCompleteLine("quick step", "done", 0))
	require.Equal(t, stateIdle, tr.st)
}

func TestSetEndRestoresCursorVisibility(t *testing.T) {
	var buf bytes.Buffer
	tr := New(Options{TitleLength: 40, HideCursor: true, Out: &buf})
	tr.SetEnd()
	require.True(t, strings.Contains(buf.String(), "\x1b[?25h"))
}

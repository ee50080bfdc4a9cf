// Package progress implements the single-line progress tracker the
// sequence runner drives while a step's subprocess streams output: a
// "<title> ... (dots) ..." prefix, an in-place updated body, and a
// colored result tag, all written through cursor save/restore rather than
// full-line redraws.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emichael72/auto-forge/internal/style"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

type state int

const (
	stateIdle state = iota
	statePre
	stateBody
)

// Tracker is not safe for concurrent use from multiple goroutines; it is
// driven single-threaded by the runner/supervisor the way the contract
// requires.
type Tracker struct {
	mu sync.Mutex

	out         io.Writer
	titleLength int
	addTimeFix  bool
	minInterval time.Duration
	hideCursor  bool
	lingerFor   time.Duration

	st          state
	preText     string
	bodyStart   int
	lastUpdate  time.Time
	startedAt   time.Time
}

// Options configures a new Tracker. Zero values fall back to the same
// defaults the tracker's Python ancestor used: 80-column titles, no clock
// prefix, and a 250ms update floor. Cursor hiding is off unless HideCursor
// is set.
type Options struct {
	TitleLength        int
	AddTimePrefix      bool
	MinUpdateInterval  time.Duration
	HideCursor         bool
	LingerInterval     time.Duration
	Out                io.Writer
}

// New constructs an idle Tracker.
func New(opts Options) *Tracker {
	if opts.TitleLength <= 0 {
		opts.TitleLength = 80
	}
	if opts.MinUpdateInterval <= 0 {
		opts.MinUpdateInterval = 250 * time.Millisecond
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Tracker{
		out:         opts.Out,
		titleLength: opts.TitleLength,
		addTimeFix:  opts.AddTimePrefix,
		minInterval: opts.MinUpdateInterval,
		hideCursor:  opts.HideCursor,
		lingerFor:   opts.LingerInterval,
		st:          stateIdle,
	}
}

func normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

// preFormat renders text padded with dots to titleLength, truncating from
// the left when the text itself doesn't fit.
func (t *Tracker) preFormat(text string) string {
	text = normalize(text)
	if t.addTimeFix {
		text = fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	}

	textLen := runewidth.StringWidth(text)
	dotsCount := t.titleLength - textLen - 2
	if dotsCount < 3 {
		dotsCount = 3
	}

	if textLen > t.titleLength-5 {
		// Truncate from the left, keep a leading ellipsis marker.
		budget := t.titleLength - 5
		if budget < 1 {
			budget = 1
		}
		runes := []rune(text)
		for len(runes) > 0 && runewidth.StringWidth(string(runes)) > budget {
			runes = runes[1:]
		}
		text = "…" + string(runes)
	}

	return text + " " + strings.Repeat(".", dotsCount) + " "
}

// SetPre transitions IDLE -> PRE. Returns false (a no-op) when called out
// of the IDLE state, or when the rendered prefix is wider than the
// configured title width plus 8 columns.
func (t *Tracker) SetPre(text string, newLine bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != stateIdle {
		return false
	}

	rendered := t.preFormat(text)
	if runewidth.StringWidth(rendered) > t.titleLength+8 {
		return false
	}

	t.preText = rendered
	t.bodyStart = runewidth.StringWidth(rendered)
	t.startedAt = time.Now()
	t.lastUpdate = time.Time{}

	if t.hideCursor {
		fmt.Fprint(t.out, "\x1b[?25l")
	}
	fmt.Fprint(t.out, rendered)
	fmt.Fprint(t.out, "\x1b[s") // save cursor
	if newLine {
		fmt.Fprint(t.out, "\n")
	}

	t.st = statePre
	return true
}

// terminalWidth returns the current terminal column count, falling back
// to 80 when it cannot be determined (non-TTY output, piped logs).
func terminalWidth() int {
	if w := termWidthOverride; w > 0 {
		return w
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// termWidthOverride lets tests pin a deterministic width; zero means
// "use the fallback/terminal probe".
var termWidthOverride int

// SetBodyInPlace writes the in-place body line, throttled by the
// configured minimum update interval. Returns false (silently skipped)
// if called before SetPre or if the throttle window hasn't elapsed.
func (t *Tracker) SetBodyInPlace(text string, updateClock bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != statePre && t.st != stateBody {
		return false
	}

	now := time.Now()
	if !t.lastUpdate.IsZero() && now.Sub(t.lastUpdate) < t.minInterval {
		return false
	}
	t.lastUpdate = now

	avail := terminalWidth() - t.bodyStart
	if avail < 1 {
		avail = 1
	}
	body := normalize(text)
	body = runewidth.Truncate(body, avail, "")

	fmt.Fprint(t.out, "\x1b[u") // restore cursor
	fmt.Fprint(t.out, "\x1b[K") // clear to end of line

	if updateClock && t.addTimeFix {
		fmt.Fprintf(t.out, "[%s] ", time.Now().Format("15:04:05"))
	}
	fmt.Fprint(t.out, body)

	t.st = stateBody
	return true
}

func resultColor(text string, statusCode int) func(string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case statusCode == 0 && !strings.HasPrefix(lower, "error"):
		return style.Success
	case strings.HasPrefix(lower, "warning"):
		return style.Warn
	case strings.HasPrefix(lower, "error") || statusCode != 0:
		return style.Error
	default:
		return style.Magenta
	}
}

// SetResult restores the cursor, writes the colored status tag, and
// returns to IDLE. Color selection: green for a zero status code, yellow
// for "warning"-prefixed text, red for "error"-prefixed text or any
// non-zero code, magenta otherwise.
func (t *Tracker) SetResult(text string, statusCode int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != statePre && t.st != stateBody {
		return false
	}

	fmt.Fprint(t.out, "\x1b[u")
	fmt.Fprint(t.out, "\x1b[K")
	colorFn := resultColor(text, statusCode)
	fmt.Fprintln(t.out, colorFn(text))

	if t.lingerFor > 0 {
		time.Sleep(t.lingerFor)
	}

	t.st = stateIdle
	return true
}

// SetCompleteLine renders a pre+result pair in one shot, for steps whose
// duration is too short to warrant an in-place body update.
func (t *Tracker) SetCompleteLine(pre, result string, statusCode int) bool {
	if !t.SetPre(pre, false) {
		return false
	}
	return t.SetResult(result, statusCode)
}

// SetEnd restores cursor visibility and emits a trailing newline; call
// once when the runner is done driving the tracker.
func (t *Tracker) SetEnd() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hideCursor {
		fmt.Fprint(t.out, "\x1b[?25h")
	}
	fmt.Fprintln(t.out)
	t.st = stateIdle
}

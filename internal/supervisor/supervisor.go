// Package supervisor runs child processes on behalf of sequence steps: it
// chooses between a PTY and a pipe-backed pipeline, streams decoded lines
// through an optional progress sink, enforces timeouts, and reports a
// structured forgeerr.CommandResult whether the child succeeds or not.
package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"
	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/style"
)

// EchoType controls how captured output lines are mirrored to the
// controlling terminal while a command runs.
type EchoType int

const (
	EchoNone EchoType = iota
	EchoByte
	EchoLine
	EchoClearLine
	EchoSingleLine
)

// DefaultInteractivePatterns lists the binary base names the supervisor
// refuses to run under supervision because they expect to own the whole
// terminal (an editor, a pager, a TUI). Automated sequences never get a
// real terminal to hand off, so these are always rejected rather than
// promoted to a full-TTY mode.
var DefaultInteractivePatterns = []string{
	"vim", "vi", "nano", "less", "more", "top", "htop", "tmux", "screen", "ssh",
}

const maxCapturedLines = 1024

// Tracker is the subset of progress.Tracker the supervisor drives while a
// command streams output. Declared locally to avoid an import cycle; the
// concrete *progress.Tracker satisfies it.
type Tracker interface {
	SetBodyInPlace(text string, updateClock bool) bool
}

// Options configures a single Run invocation.
type Options struct {
	Command             []string // token[0] is the binary; shell=true re-joins these into one line
	Shell               bool
	UsePTY              bool
	Cwd                 string
	Env                 []string // full child environment, already merged by the caller
	Timeout             time.Duration
	EchoType            EchoType
	Check               bool
	SearchedToken       string
	MaxReadChunk        int
	ApplyColorization   bool
	ColorizeKeywords    []string
	InteractivePatterns []string
	Stdout              io.Writer // where echoed bytes/lines land; defaults to os.Stdout
	Tracker             Tracker
}

// Supervisor is stateless beyond its configured defaults; construct once
// and reuse across steps.
type Supervisor struct {
	interactivePatterns []string
}

// New returns a Supervisor using patterns (or DefaultInteractivePatterns
// when nil) to recognize commands that must not run under supervision.
func New(patterns []string) *Supervisor {
	if patterns == nil {
		patterns = DefaultInteractivePatterns
	}
	return &Supervisor{interactivePatterns: patterns}
}

func (s *Supervisor) isInteractive(patterns []string, binary string) bool {
	if patterns == nil {
		patterns = s.interactivePatterns
	}
	base := strings.ToLower(filepath.Base(binary))
	for _, p := range patterns {
		if matched, err := filepath.Match(strings.ToLower(p), base); err == nil && matched {
			return true
		}
	}
	return false
}

var shellMetaChars = regexp.MustCompile(`[|&;<>()]`)

// Run executes opts.Command and blocks until it finishes, times out, or
// the context is canceled.
func (s *Supervisor) Run(ctx context.Context, opts Options) (forgeerr.CommandResult, error) {
	if len(opts.Command) == 0 {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInvalidArgument, "empty command")
	}

	commandLine := strings.Join(opts.Command, " ")

	if s.isInteractive(opts.InteractivePatterns, opts.Command[0]) {
		msg := fmt.Sprintf("interactive command %q is not allowed in automated mode", opts.Command[0])
		return forgeerr.CommandResult{
			ReturnCode: 1,
			Message:    &msg,
			Command:    commandLine,
		}, nil
	}

	if !opts.Shell {
		for _, tok := range opts.Command[1:] {
			if shellMetaChars.MatchString(tok) {
				return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInvalidArgument,
					"compound shell expression %q requires shell=true", tok)
			}
		}
	}

	var cmd *exec.Cmd
	if opts.Shell {
		cmd = exec.Command("sh", "-c", commandLine)
	} else {
		cmd = exec.Command(opts.Command[0], opts.Command[1:]...)
	}
	if opts.Cwd != "" {
		cmd.Dir = opts.Cwd
	}
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	maxChunk := opts.MaxReadChunk
	if maxChunk <= 0 {
		maxChunk = 4096
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	lines := make(chan string, 256)
	var readErr error

	var closer func()
	if opts.UsePTY {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "pty start: %v", err)
		}
		closer = func() { _ = ptmx.Close() }
		go func() {
			readErr = streamLines(ptmx, maxChunk, lines)
			close(lines)
		}()
	} else {
		stdoutPipe, err := cmd.StdoutPipe()
		if err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "stdout pipe: %v", err)
		}
		cmd.Stderr = cmd.Stdout
		if err := cmd.Start(); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "start: %v", err)
		}
		closer = func() {}
		go func() {
			readErr = streamLines(stdoutPipe, maxChunk, lines)
			close(lines)
		}()
	}
	defer closer()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var captured []string
	sawToken := false
	atLineStart := true

	// drain blocks until the producer goroutine closes lines, which it does
	// right after streamLines returns; ranging to completion here is what
	// makes reading readErr below race-free (the close happens-before the
	// range loop observing it).
	drain := func() {
		for line := range lines {
			s.consumeLine(opts, line, &captured, &sawToken, &atLineStart, stdout)
		}
	}

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			s.consumeLine(opts, line, &captured, &sawToken, &atLineStart, stdout)
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-waitCh
			drain()
			if opts.Timeout > 0 {
				return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrTimeout,
					"command %q timed out after %d seconds", commandLine, int(opts.Timeout/time.Second))
			}
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrTimeout,
				"command %q: context canceled", commandLine)
		case werr := <-waitCh:
			drain()
			return s.finalize(opts, commandLine, werr, readErr, captured, sawToken)
		}
	}

	werr := <-waitCh
	return s.finalize(opts, commandLine, werr, readErr, captured, sawToken)
}

func (s *Supervisor) consumeLine(opts Options, line string, captured *[]string, sawToken *bool, atLineStart *bool, stdout io.Writer) {
	clean := style.StripANSI(line)

	if len(*captured) >= maxCapturedLines {
		*captured = (*captured)[1:]
	}
	*captured = append(*captured, clean)

	if opts.SearchedToken != "" && strings.Contains(clean, opts.SearchedToken) {
		*sawToken = true
	}

	display := clean
	if opts.ApplyColorization && len(opts.ColorizeKeywords) > 0 {
		display = colorizeKeywords(display, opts.ColorizeKeywords, atLineStart)
	}

	switch opts.EchoType {
	case EchoNone:
	case EchoByte, EchoLine:
		fmt.Fprintln(stdout, display)
	case EchoClearLine:
		fmt.Fprintf(stdout, "\r\x1b[K%s\n", display)
	case EchoSingleLine:
		fmt.Fprintf(stdout, "\r\x1b[K%s", display)
	}

	if opts.Tracker != nil {
		opts.Tracker.SetBodyInPlace(clean, true)
	}
}

func colorizeKeywords(line string, keywords []string, atLineStart *bool) string {
	out := line
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(strings.ToLower(out), strings.ToLower(kw)) {
			colored := style.Warn(kw)
			out = strings.ReplaceAll(out, kw, colored)
			if !*atLineStart {
				out = "\n" + out
			}
		}
	}
	*atLineStart = false
	return out
}

func (s *Supervisor) finalize(opts Options, commandLine string, waitErr, streamErr error, captured []string, sawToken bool) (forgeerr.CommandResult, error) {
	rc := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			rc = exitErr.ExitCode()
		} else {
			rc = -1
		}
	}

	response := strings.Join(captured, "\n")
	result := forgeerr.CommandResult{
		Response:   &response,
		ReturnCode: rc,
		Command:    commandLine,
	}

	if opts.SearchedToken != "" && !sawToken && rc == 0 {
		msg := fmt.Sprintf("expected token %q not found in output", opts.SearchedToken)
		result.Message = &msg
		result.ReturnCode = 1
	}

	if streamErr != nil {
		return result, forgeerr.Wrap(forgeerr.ErrInternal, "command %q: read output: %v", commandLine, streamErr)
	}

	if opts.Check && !result.Success() {
		return result, &forgeerr.CommandFailedError{Result: result}
	}
	return result, nil
}

// streamLines reads from r in maxChunk-sized pieces, decodes UTF-8
// incrementally, and emits complete lines (split on \n or \r) to out. A
// multi-byte rune split across a read boundary is carried over in pending
// and prepended to the next chunk rather than discarded.
func streamLines(r io.Reader, maxChunk int, out chan<- string) error {
	reader := bufio.NewReaderSize(r, maxChunk)
	var lineBuf bytes.Buffer
	var pending []byte
	buf := make([]byte, maxChunk)

	flush := func() {
		if lineBuf.Len() > 0 {
			out <- lineBuf.String()
			lineBuf.Reset()
		}
	}

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if len(pending) > 0 {
				chunk = append(pending, chunk...)
				pending = nil
			}
			for len(chunk) > 0 {
				rn, size := utf8.DecodeRune(chunk)
				if rn == utf8.RuneError && size == 1 && len(chunk) < utf8.UTFMax {
					// Possibly a split multi-byte rune at the chunk boundary;
					// carry the remainder over and let the next read complete it.
					pending = append([]byte(nil), chunk...)
					break
				}
				switch rn {
				case '\n', '\r':
					flush()
				default:
					lineBuf.WriteRune(rn)
				}
				chunk = chunk[size:]
			}
		}
		if err != nil {
			if len(pending) > 0 {
				lineBuf.Write(pending)
				pending = nil
			}
			flush()
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

package executor

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
)

const maxLineSize = 1024 * 1024

// Stream is a running command whose stdout and stderr lines are delivered
// through one channel as they are read. Lines from the same pipe keep their
// order; the interleaving of the two pipes is best effort.
type Stream struct {
	cmd     Command
	proc    *exec.Cmd
	lines   chan Line
	readers sync.WaitGroup

	mu     sync.Mutex
	stderr strings.Builder
}

// Stream starts cmd and returns immediately. The process is not tied to any
// context: it runs until it exits on its own.
func (e *Executor) Stream(cmd Command) (*Stream, error) {
	s := &Stream{cmd: cmd, lines: make(chan Line, 64)}

	if e.dryRun {
		e.traceDryRun(cmd)
		close(s.lines)
		return s, nil
	}

	c, err := e.prepare(context.Background(), cmd)
	if err != nil {
		return nil, err
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Name: cmd.Name, Err: err}
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Name: cmd.Name, Err: err}
	}

	e.trace(cmd, c)

	if err := c.Start(); err != nil {
		return nil, &LaunchError{Name: cmd.Name, Err: err}
	}
	s.proc = c

	s.readers.Add(2)
	go s.pump(stdout, Stdout)
	go s.pump(stderr, Stderr)
	go func() {
		s.readers.Wait()
		close(s.lines)
	}()

	return s, nil
}

// Lines returns the channel of output lines. It is closed once both pipes reach EOF.
func (s *Stream) Lines() <-chan Line {
	return s.lines
}

// Stderr returns everything read from stderr so far.
func (s *Stream) Stderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderr.String()
}

// Wait drains any unread lines, waits for the process to exit and returns its
// exit code together with the classified error, if any.
func (s *Stream) Wait() (int, error) {
	for range s.lines {
	}
	if s.proc == nil {
		return 0, nil
	}
	return classify(s.cmd, s.proc.Wait(), s.Stderr())
}

func (s *Stream) pump(r io.Reader, kind StreamKind) {
	defer s.readers.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		text := scanner.Text()
		if kind == Stderr {
			s.mu.Lock()
			s.stderr.WriteString(text)
			s.stderr.WriteByte('\n')
			s.mu.Unlock()
		}
		s.lines <- Line{Text: text, Stream: kind}
	}
	// keep the child from blocking on a full pipe after an oversized line
	_, _ = io.Copy(io.Discard, r) //nolint:errcheck
}

// Package submit delivers passive check results to the monitoring server.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"ozzus/checkplugin/internal/domain"
	"ozzus/checkplugin/internal/platform"
)

var (
	ErrUnsupportedPlatform = errors.New("submission method not supported on this platform")
	ErrMultilineCommand    = errors.New("command line contains a line break")
)

type Submitter interface {
	Submit(ctx context.Context, s domain.Submission) error
}

// Writer prints each line to w, for piping into send_nsca-like tools.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Submit(_ context.Context, sub domain.Submission) error {
	if err := checkLine(sub); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintln(s.w, sub.Line); err != nil {
		return fmt.Errorf("write submission %s: %w", sub.ID, err)
	}
	return nil
}

// CommandFile appends lines to the monitoring server's external command
// file, usually a named pipe.
type CommandFile struct {
	mu   sync.Mutex
	path string
}

func NewCommandFile(path string, info platform.Info) (*CommandFile, error) {
	if info.IsWindowsLike() {
		return nil, fmt.Errorf("%w: command file %s", ErrUnsupportedPlatform, path)
	}
	if path == "" {
		return nil, errors.New("command file path is required")
	}
	return &CommandFile{path: path}, nil
}

// Submit opens the file for each line. The open does not block: a pipe
// nobody reads fails at once, and a full pipe waits at most until ctx's
// deadline. Nothing is written once Submit has returned.
func (c *CommandFile) Submit(ctx context.Context, sub domain.Submission) error {
	if err := checkLine(sub); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(ctx, sub.Line); err != nil {
		return fmt.Errorf("write submission %s to %s: %w", sub.ID, c.path, err)
	}
	return nil
}

func (c *CommandFile) write(ctx context.Context, line string) error {
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_APPEND|syscall.O_NONBLOCK, 0)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := f.SetWriteDeadline(deadline); err != nil && !errors.Is(err, os.ErrNoDeadline) {
			f.Close()
			return err
		}
	}

	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// checkLine refuses lines that would reach the command file as more than
// one external command.
func checkLine(sub domain.Submission) error {
	if strings.ContainsAny(sub.Line, "\r\n") {
		return fmt.Errorf("%w: submission %s", ErrMultilineCommand, sub.ID)
	}
	return nil
}

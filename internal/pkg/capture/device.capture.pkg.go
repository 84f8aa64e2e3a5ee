package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Format struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

func (f Format) withDefaults() Format {
	if f.SampleRate <= 0 {
		f.SampleRate = 16000
	}
	if f.Channels <= 0 {
		f.Channels = 1
	}
	if f.InputFormat == "" {
		f.InputFormat = "pulse"
	}
	if f.InputDevice == "" {
		f.InputDevice = "default"
	}
	return f
}

// Stream yields raw s16le PCM. Stop ends the capture; reads then drain what
// the source flushed and hit io.EOF. Close releases the read side.
type Stream interface {
	io.ReadCloser
	Stop() error
}

// Device is a microphone source.
type Device interface {
	Open(ctx context.Context, format Format) (Stream, error)
}

// FFMPEGDevice captures the microphone through an ffmpeg child process.
type FFMPEGDevice struct {
	command string
}

func NewFFMPEGDevice(command string) *FFMPEGDevice {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGDevice{command: command}
}

func (d *FFMPEGDevice) Open(ctx context.Context, format Format) (Stream, error) {
	format = format.withDefaults()

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", format.InputFormat,
		"-i", format.InputDevice,
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		"-f", "s16le",
		"-",
	}

	// The pipe is ours so Wait never closes the read end under a reader still
	// draining the tail ffmpeg flushes on SIGINT.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.command, args...)
	var stderr bytes.Buffer
	cmd.Stdout = pw
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	_ = pw.Close()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An unavailable or refused input makes ffmpeg exit almost at once.
	select {
	case err := <-waitErr:
		_ = pr.Close()
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	return &ffmpegStream{
		stdout:  pr,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

type ffmpegStream struct {
	stdout  *os.File
	stderr  *bytes.Buffer
	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Stop interrupts ffmpeg and waits for it to exit, killing it if it lingers.
// The read end stays open so buffered output can still be drained.
func (s *ffmpegStream) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExitErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeExitErr(err)
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

func (s *ffmpegStream) Close() error {
	if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// normalizeExitErr treats the non-zero exit ffmpeg reports after SIGINT as a clean stop.
func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"voice-order/internal/common/enum"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/logger"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrAlreadyRecording = errors.New("recorder is already recording")
	ErrNotRecording     = errors.New("recorder is not recording")
)

// Recorder wraps a Device with permission tracking. A denial sticks until
// RequestPermission is called again.
type Recorder struct {
	device Device
	format Format
	now    func() time.Time

	mu         sync.Mutex
	permission enum.PermissionEnum
	stream     Stream
	cancel     context.CancelFunc
	buf        *bytes.Buffer
	pumpDone   chan error
	startedAt  time.Time
}

func NewRecorder(device Device, format Format) *Recorder {
	return &Recorder{
		device:     device,
		format:     format.withDefaults(),
		now:        time.Now,
		permission: enum.PERMISSION_UNKNOWN,
	}
}

func (r *Recorder) Permission() enum.PermissionEnum {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permission
}

// RequestPermission probes the device by opening and closing it.
func (r *Recorder) RequestPermission(ctx context.Context) enum.PermissionEnum {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return r.permission
	}

	stream, err := r.device.Open(ctx, r.format)
	if err != nil {
		logger.Warning.Printf("microphone probe failed: %v", err)
		r.permission = enum.PERMISSION_DENIED
		return r.permission
	}
	_ = stream.Stop()
	_ = stream.Close()
	r.permission = enum.PERMISSION_GRANTED
	return r.permission
}

// Start begins capturing. A denied or unavailable microphone returns
// ErrPermissionDenied and the recorder stays idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return ErrAlreadyRecording
	}
	if r.permission == enum.PERMISSION_DENIED {
		return ErrPermissionDenied
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := r.device.Open(streamCtx, r.format)
	if err != nil {
		cancel()
		r.permission = enum.PERMISSION_DENIED
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	r.permission = enum.PERMISSION_GRANTED
	r.stream = stream
	r.cancel = cancel
	r.buf = &bytes.Buffer{}
	r.pumpDone = make(chan error, 1)
	r.startedAt = r.now()

	go func(buf *bytes.Buffer, done chan<- error) {
		_, err := io.Copy(buf, stream)
		done <- err
	}(r.buf, r.pumpDone)

	return nil
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// Elapsed is the whole seconds since Start, or 0 when idle.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return 0
	}
	return int(r.now().Sub(r.startedAt) / time.Second)
}

// Stop ends the capture, releases the device and returns the recording.
func (r *Recorder) Stop() (*types.AudioBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil, ErrNotRecording
	}

	// The pump runs to EOF before the read side is released.
	stopErr := r.stream.Stop()
	pumpErr := <-r.pumpDone
	if err := r.stream.Close(); err != nil {
		logger.Warning.Printf("failed to release capture stream: %v", err)
	}
	r.cancel()

	pcm := r.buf.Bytes()
	r.stream, r.cancel, r.buf, r.pumpDone = nil, nil, nil, nil

	if stopErr != nil {
		return nil, fmt.Errorf("failed to stop capture: %w", stopErr)
	}
	if pumpErr != nil {
		logger.Warning.Printf("capture stream ended with error: %v", pumpErr)
	}

	wav := EncodeWAV(pcm, r.format.SampleRate, r.format.Channels)
	return &types.AudioBlob{
		MimeType: MimeTypeWAV,
		Size:     len(wav),
		Buffer:   wav,
	}, nil
}

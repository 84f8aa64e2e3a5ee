package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order/internal/common/enum"
)

type fakeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (s *fakeStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *fakeStream) Stop() error { return s.w.Close() }

func (s *fakeStream) Close() error { return s.r.Close() }

type fakeDevice struct {
	fail   bool
	opened int
	last   *fakeStream
}

func (d *fakeDevice) Open(_ context.Context, _ Format) (Stream, error) {
	d.opened++
	if d.fail {
		return nil, errors.New("NotAllowedError")
	}
	r, w := io.Pipe()
	d.last = &fakeStream{r: r, w: w}
	return d.last, nil
}

func TestRecorderDeniedNeverRecords(t *testing.T) {
	dev := &fakeDevice{fail: true}
	rec := NewRecorder(dev, Format{})

	err := rec.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, rec.IsRecording())
	assert.Equal(t, enum.PERMISSION_DENIED, rec.Permission())

	// Sticky: no further device access until a manual re-request.
	err = rec.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, dev.opened)

	dev.fail = false
	assert.Equal(t, enum.PERMISSION_GRANTED, rec.RequestPermission(context.Background()))
	require.NoError(t, rec.Start(context.Background()))
	assert.True(t, rec.IsRecording())
}

func TestRecorderStopReturnsWAV(t *testing.T) {
	dev := &fakeDevice{}
	rec := NewRecorder(dev, Format{SampleRate: 8000, Channels: 1})
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return clock }

	require.NoError(t, rec.Start(context.Background()))
	assert.ErrorIs(t, rec.Start(context.Background()), ErrAlreadyRecording)

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	_, err := dev.last.w.Write(pcm)
	require.NoError(t, err)

	clock = clock.Add(2500 * time.Millisecond)
	assert.Equal(t, 2, rec.Elapsed())

	blob, err := rec.Stop()
	require.NoError(t, err)
	assert.Equal(t, MimeTypeWAV, blob.MimeType)
	assert.Equal(t, wavHeaderSize+len(pcm), blob.Size)
	assert.Equal(t, pcm, blob.Buffer[wavHeaderSize:])
	assert.False(t, rec.IsRecording())
	assert.Equal(t, 0, rec.Elapsed())

	_, err = rec.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 320)
	wav := EncodeWAV(pcm, 16000, 1)

	require.Len(t, wav, wavHeaderSize+320)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+320), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(320), binary.LittleEndian.Uint32(wav[40:44]))
}

// fakeFFMPEG ignores its arguments, streams a short header and flushes a
// large tail only once interrupted.
const fakeFFMPEG = `#!/bin/sh
trap 'head -c 2000000 /dev/zero; exit 255' INT
printf 'abcd'
while :; do sleep 0.05; done
`

func TestFFMPEGStopKeepsFlushedTail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte(fakeFFMPEG), 0o755))

	for i := 0; i < 5; i++ {
		rec := NewRecorder(NewFFMPEGDevice(script), Format{SampleRate: 8000, Channels: 1})
		require.NoError(t, rec.Start(context.Background()))

		blob, err := rec.Stop()
		require.NoError(t, err)
		assert.Equal(t, wavHeaderSize+4+2000000, blob.Size, "run %d", i)
		assert.Equal(t, "abcd", string(blob.Buffer[wavHeaderSize:wavHeaderSize+4]))
	}
}

func TestFFMPEGEarlyExitIsDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'no such device' >&2\nexit 1\n"), 0o755))

	rec := NewRecorder(NewFFMPEGDevice(script), Format{})
	err := rec.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "no such device")
	assert.False(t, rec.IsRecording())
}

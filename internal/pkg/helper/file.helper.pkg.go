package helper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	types "voice-order/internal/common/type"
)

var ErrEmptyAudio = errors.New("audio recording is empty")

// ReadAudioUpload drains an uploaded recording into an AudioBlob. The mime
// type falls back to content sniffing when the client sent none.
func ReadAudioUpload(p types.UploadFile, maxBytes int64) (*types.AudioBlob, error) {
	if seeker, ok := p.File.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek: %w", err)
		}
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(io.LimitReader(p.File, maxBytes+1)); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	if int64(buf.Len()) > maxBytes {
		return nil, fmt.Errorf("audio recording exceeds %d bytes", maxBytes)
	}

	contentType := ""
	if p.Header != nil {
		contentType = p.Header.Header.Get("Content-Type")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}
	// Browsers send "audio/webm;codecs=opus"; the provider wants the bare type.
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])

	return &types.AudioBlob{
		MimeType: contentType,
		Size:     buf.Len(),
		Buffer:   buf.Bytes(),
	}, nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"voice-order/internal/pkg/capture"
	"voice-order/internal/service/extraction"
)

func TestMain(m *testing.M) {
	cli.OsExiter = func(int) {}
	os.Exit(m.Run())
}

type pipeStream struct {
	*io.PipeReader
	w *io.PipeWriter
}

func (s *pipeStream) Stop() error { return s.w.Close() }

type fakeDevice struct {
	err error
}

func (d *fakeDevice) Open(context.Context, capture.Format) (capture.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	r, w := io.Pipe()
	go func() { _, _ = w.Write(make([]byte, 3200)) }()
	return &pipeStream{PipeReader: r, w: w}, nil
}

func run(t *testing.T, rt runtime, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(rt)
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"voiceorder"}, args...))
	return out.String(), err
}

func TestTextCommand(t *testing.T) {
	out, err := run(t, runtime{}, "", "text", "--mode", "simple", "--instant", "two pizzas please")
	require.NoError(t, err)
	assert.Contains(t, out, "Transcript: two pizzas please")
	assert.Contains(t, out, "Total: 59.45 USD")
}

func TestTextCommandEnrichesCustomer(t *testing.T) {
	out, err := run(t, runtime{}, "", "text", "--instant", "coffee")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer: John Smith (id 12345)")
	assert.Contains(t, out, "Total: 13.50 USD")
}

func TestTextCommandValidation(t *testing.T) {
	_, err := run(t, runtime{}, "", "text", "--instant")
	assert.Error(t, err)

	_, err = run(t, runtime{}, "", "text", "--mode", "turbo", "pizza")
	assert.Error(t, err)

	_, err = run(t, runtime{}, "", "text", "--external", "--api-key", "", "pizza")
	assert.ErrorIs(t, err, extraction.ErrCredentialRequired)
}

func TestRecordCommand(t *testing.T) {
	out, err := run(t, runtime{device: &fakeDevice{}}, "",
		"record", "--mode", "simple", "--instant", "--duration", "20ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Transcript: "+extraction.SimpleTranscript)
	assert.Contains(t, out, "Total: 59.45 USD")
}

func TestRecordCommandDeniedMicrophone(t *testing.T) {
	out, err := run(t, runtime{device: &fakeDevice{err: errors.New("no such device")}}, "",
		"record", "--mode", "simple", "--instant")
	assert.Error(t, err)
	assert.Contains(t, out, "voiceorder text")
}

func TestSimulateSimple(t *testing.T) {
	out, err := run(t, runtime{}, "", "simulate", "--mode", "simple", "--instant")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 59.45 USD")
	assert.Contains(t, out, "Order confirmed")
}

func TestSimulateExternalNeedsText(t *testing.T) {
	_, err := run(t, runtime{}, "", "simulate", "--external", "--api-key", "k")
	assert.Error(t, err)
}

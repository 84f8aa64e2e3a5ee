package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/capture"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/service/customer"
	"voice-order/internal/service/extraction"
)

// runtime holds what the commands talk to outside the process.
type runtime struct {
	device    capture.Device
	newClient extraction.ClientFactory
}

func newApp(rt runtime) *cli.App {
	return &cli.App{
		Name:  "voiceorder",
		Usage: "record, extract and confirm voice orders from the terminal",
		Commands: []*cli.Command{
			recordCommand(rt),
			textCommand(rt),
			simulateCommand(rt),
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Value:   enum.MODE_ENHANCED.ToString(),
			Usage:   "demo profile: simple or enhanced",
			EnvVars: []string{"VOICE_ORDER_MODE"},
		},
		&cli.BoolFlag{
			Name:  "external",
			Usage: "send audio and text to Gemini (enhanced mode only)",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Gemini API key used with --external",
			EnvVars: []string{"GEMINI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "model",
			Value:   "gemini-2.0-flash",
			EnvVars: []string{"GEMINI_MODEL"},
		},
		&cli.BoolFlag{
			Name:  "instant",
			Usage: "skip the simulated latency of the mock pipeline",
		},
	}
}

func modeFlag(c *cli.Context) (enum.DemoModeEnum, error) {
	mode := enum.DemoModeEnum(strings.ToLower(c.String("mode")))
	if !mode.IsValid() {
		return "", cli.Exit(fmt.Sprintf("unknown mode %q (want simple or enhanced)", c.String("mode")), 2)
	}
	return mode, nil
}

func noDelays(enum.DemoModeEnum) extraction.Delays {
	return extraction.Delays{}
}

func (rt runtime) factory(c *cli.Context) *extraction.Factory {
	opts := []extraction.Option{}
	if c.Bool("instant") {
		opts = append(opts, extraction.WithDelays(noDelays))
	}
	if rt.newClient != nil {
		opts = append(opts, extraction.WithClientFactory(rt.newClient))
	}
	return extraction.NewFactory(c.String("model"), opts...)
}

func (rt runtime) pipeline(c *cli.Context) (extraction.Pipeline, error) {
	mode, err := modeFlag(c)
	if err != nil {
		return nil, err
	}
	return rt.factory(c).For(c.Context, mode, c.Bool("external"), c.String("api-key"))
}

func customers(c *cli.Context) customer.IService {
	if c.Bool("instant") {
		return customer.NewService(c.Context, customer.WithLookupDelay(0))
	}
	return customer.NewService(c.Context)
}

// extract runs the text stage and fills missing customer details.
func extract(c *cli.Context, pipeline extraction.Pipeline, text string) (*extraction.Extraction, error) {
	result, err := pipeline.Extract(c.Context, text)
	if err != nil {
		return nil, err
	}
	result.Customer = customer.Enrich(c.Context, customers(c), result.Customer)
	return result, nil
}

func printOrder(w io.Writer, transcript string, customerDetails models.CustomerDetails, items []models.OrderItem, total float64, instructions *string) {
	if transcript != "" {
		fmt.Fprintf(w, "Transcript: %s\n", transcript)
	}
	if !customerDetails.IsEmpty() {
		fmt.Fprintf(w, "Customer: %s (id %s) %s\n",
			lo.FromPtrOr(customerDetails.Name, "unknown"),
			lo.FromPtrOr(customerDetails.ID, "-"),
			lo.FromPtr(customerDetails.Email))
	}
	for _, item := range items {
		line := fmt.Sprintf("  %d x %s @ %.2f = %.2f", item.Quantity, item.Name, item.Price, helper.RoundCents(item.LineTotal()))
		if len(item.Modifications) > 0 {
			line += " [" + strings.Join(item.Modifications, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
	if instructions != nil && *instructions != "" {
		fmt.Fprintf(w, "Instructions: %s\n", *instructions)
	}
	fmt.Fprintf(w, "Total: %.2f %s\n", total, helper.DefaultCurrency)
}

func textCommand(rt runtime) *cli.Command {
	return &cli.Command{
		Name:      "text",
		Usage:     "extract an order from typed text",
		ArgsUsage: "\"<order>\"",
		Flags:     pipelineFlags(),
		Action: func(c *cli.Context) error {
			text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if text == "" {
				return cli.Exit("order text is required", 2)
			}

			pipeline, err := rt.pipeline(c)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			result, err := extract(c, pipeline, text)
			if err != nil {
				return err
			}
			printOrder(c.App.Writer, text, result.Customer, result.Items, result.Total, result.SpecialInstructions)
			return nil
		},
	}
}

func recordCommand(rt runtime) *cli.Command {
	flags := append(pipelineFlags(),
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "how long to record; Enter stops early",
			Value: helper.GetEnvAsDuration("RECORD_DURATION", 8*time.Second),
		},
		&cli.StringFlag{
			Name:    "input-format",
			Value:   "pulse",
			Usage:   "ffmpeg input format (pulse, alsa, avfoundation)",
			EnvVars: []string{"AUDIO_INPUT_FORMAT"},
		},
		&cli.StringFlag{
			Name:    "device",
			Value:   "default",
			Usage:   "ffmpeg input device",
			EnvVars: []string{"AUDIO_INPUT_DEVICE"},
		},
	)

	return &cli.Command{
		Name:  "record",
		Usage: "record an order from the microphone and extract it",
		Flags: flags,
		Action: func(c *cli.Context) error {
			w := c.App.Writer

			pipeline, err := rt.pipeline(c)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			rec := capture.NewRecorder(rt.device, capture.Format{
				InputFormat: c.String("input-format"),
				InputDevice: c.String("device"),
			})
			if rec.RequestPermission(c.Context) != enum.PERMISSION_GRANTED {
				fmt.Fprintln(w, "Microphone unavailable. Type your order with `voiceorder text` instead.")
				return cli.Exit(capture.ErrPermissionDenied.Error(), 1)
			}

			blob, err := recordFor(c.Context, rec, c.Duration("duration"), c.App.Reader, w)
			if err != nil {
				return err
			}

			transcript, err := pipeline.Transcribe(c.Context, blob)
			if err != nil {
				return err
			}
			result, err := extract(c, pipeline, transcript)
			if err != nil {
				return err
			}
			printOrder(w, transcript, result.Customer, result.Items, result.Total, result.SpecialInstructions)
			return nil
		},
	}
}

// recordFor captures until the duration passes, a line arrives on in, or
// ctx ends. The recording is returned in every case but the last.
func recordFor(ctx context.Context, rec *capture.Recorder, d time.Duration, in io.Reader, w io.Writer) (*types.AudioBlob, error) {
	if err := rec.Start(ctx); err != nil {
		return nil, err
	}

	enter := make(chan struct{}, 1)
	if in != nil {
		go func() {
			buf := make([]byte, 1)
			for {
				n, err := in.Read(buf)
				if err != nil {
					return
				}
				if n > 0 && buf[0] == '\n' {
					enter <- struct{}{}
					return
				}
			}
		}()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fmt.Fprintln(w, "Recording... press Enter to stop")
	for {
		select {
		case <-ticker.C:
			fmt.Fprintf(w, "\r%ds", rec.Elapsed())
		case <-timer.C:
			fmt.Fprintln(w)
			return rec.Stop()
		case <-enter:
			return rec.Stop()
		case <-ctx.Done():
			_, _ = rec.Stop()
			return nil, ctx.Err()
		}
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"voice-order/internal/pkg/capture"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/logger"
)

func main() {
	logger.Setup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := newApp(runtime{
		device: capture.NewFFMPEGDevice(helper.GetEnv("FFMPEG_PATH", "ffmpeg")),
	})
	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error.Println(err)
		os.Exit(1)
	}
}

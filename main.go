// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanwars/kate-audio-experiments-sarah/cmd"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/audio"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/transport"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/transport/udp"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/tui"
	"github.com/vanwars/kate-audio-experiments-sarah/pkg/build"
)

func main() {
	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		// --help or --version already handled the invocation.
		return
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	switch cfg.Command {
	case "analyze":
		return runAnalyze(cfg)
	case "list":
		return withPortAudio(audio.ListDevices)
	default:
		return withPortAudio(func() error { return runLive(cfg) })
	}
}

// withPortAudio brackets fn with PortAudio initialization and teardown.
func withPortAudio(fn func() error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			applog.Errorf("%v", err)
		}
	}()
	return fn()
}

// runAnalyze processes a WAV file offline and prints a summary.
// No audio hardware is touched.
func runAnalyze(cfg *config.Config) error {
	var frameOut transport.Transport
	if cfg.Transport.ConsoleEnabled || cfg.Debug {
		frameOut = transport.NewConsoleTransport(os.Stdout)
	}

	summary, err := audio.AnalyzeFile(cfg.InputFile, cfg, frameOut)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", summary.Path)
	fmt.Printf("  %.0f Hz, %d channel(s), %s\n", summary.SampleRate, summary.Channels, summary.Duration.Round(10*time.Millisecond))
	fmt.Printf("  %d frames analyzed, %d beats detected\n", summary.Frames, summary.Beats)
	return nil
}

// runLive captures audio, runs the analysis pipeline and serves the history
// to the enabled consumers until interrupted.
func runLive(cfg *config.Config) error {
	pipeline, err := audio.NewAnalysisPipeline(cfg, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	var frameOut transport.Transport
	if cfg.Transport.ConsoleEnabled && !cfg.TUIMode {
		frameOut = transport.NewConsoleTransport(os.Stdout)
	}

	engine, err := audio.NewEngine(cfg, pipeline, frameOut)
	if err != nil {
		return err
	}
	defer engine.Close()

	history := pipeline.History()

	if cfg.Transport.WebSocketEnabled {
		broadcaster := transport.NewHistoryBroadcaster(cfg.Transport.WebSocketAddr, history, cfg.Transport.WebSocketInterval)
		if err := broadcaster.Start(); err != nil {
			return err
		}
		defer broadcaster.Close()
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		defer sender.Close()

		publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, history)
		if err != nil {
			return err
		}
		publisher.Start()
		defer publisher.Stop()
	}

	if err := engine.StartInputStream(); err != nil {
		return err
	}
	defer func() {
		if err := engine.StopInputStream(); err != nil {
			applog.Errorf("%v", err)
		}
	}()

	if cfg.TUIMode {
		return tui.Run(history, engine)
	}

	applog.Infof("Analyzing %q, press Ctrl+C to stop", engine.DeviceName())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	applog.Infof("Shutting down")
	return nil
}

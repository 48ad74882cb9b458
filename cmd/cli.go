// SPDX-License-Identifier: MIT

// Package cmd defines the command line interface: the root command runs live
// capture and analysis, with subcommands for device listing and offline WAV
// analysis.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
	"github.com/vanwars/kate-audio-experiments-sarah/pkg/build"
)

// ParseArgs builds the command tree, parses os.Args and returns the final
// configuration. Flag values override the config file only when explicitly
// set on the command line. A nil config with a nil error means a terminal
// flag such as --help or --version already handled the invocation.
func ParseArgs() (*config.Config, error) {
	return parseArgs(os.Args[1:])
}

func parseArgs(args []string) (*config.Config, error) {
	var cfg *config.Config

	var (
		configPath      string
		deviceID        int
		sampleRate      float64
		framesPerBuffer int
		lowLatency      bool
		verbose         bool
		tuiMode         bool
		console         bool
	)

	info := build.GetBuildFlags()
	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Time),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("device") {
				loaded.Audio.InputDevice = deviceID
			}
			if flags.Changed("sample-rate") {
				loaded.Audio.SampleRate = sampleRate
			}
			if flags.Changed("frames-per-buffer") {
				loaded.Audio.FramesPerBuffer = framesPerBuffer
			}
			if flags.Changed("low-latency") {
				loaded.Audio.LowLatency = lowLatency
			}
			if flags.Changed("console") {
				loaded.Transport.ConsoleEnabled = console
			}
			if verbose {
				loaded.Debug = true
				loaded.LogLevel = "debug"
			}
			if err := loaded.Validate(); err != nil {
				return err
			}

			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.TUIMode = tuiMode
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	pf.IntVarP(&deviceID, "device", "d", config.DefaultDeviceID, "input device ID (-1 for automatic loopback discovery)")
	pf.Float64VarP(&sampleRate, "sample-rate", "r", config.DefaultSampleRate, "sample rate in Hz")
	pf.IntVarP(&framesPerBuffer, "frames-per-buffer", "f", config.DefaultFramesPerBuffer, "samples per analysis frame (power of 2)")
	pf.BoolVarP(&lowLatency, "low-latency", "l", config.DefaultLowLatency, "request low latency capture")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&console, "console", false, "print per-frame band values to stdout")
	rootCmd.Flags().BoolVarP(&tuiMode, "tui", "t", false, "show the live terminal visualizer")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Command = "list"
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze a WAV file offline and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Command = "analyze"
			cfg.InputFile = args[0]
			return nil
		},
	}

	rootCmd.AddCommand(listCmd, analyzeCmd)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return cfg, nil
}

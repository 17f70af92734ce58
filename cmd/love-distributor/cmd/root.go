package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/service/distributor"
	"github.com/oshokin/love-distributor/internal/version"
)

var (
	// configPath to the optional settings file.
	configPath string
	// runtimeVersion of LÖVE to distribute with.
	runtimeVersion string
	// logLevel overrides the level from the settings file.
	logLevel string

	// rootCmd represents the base command; platforms are subcommands.
	rootCmd = &cobra.Command{
		Use:   "love-distributor",
		Short: "Package a .love game as a native Linux, Windows or macOS distributable",
		Long: "love-distributor downloads the requested LÖVE runtime, fuses a prebuilt game " +
			"archive into it and writes a zipped, platform-native artifact into the output directory.",
	}
)

// Execute runs the love-distributor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// run validates and distributes input, canceling on SIGTERM or SIGINT.
func run(input distribution.Input, lenient bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	input.RuntimeVersion = runtimeVersion

	options := &distributor.Options{
		ConfigPath:      configPath,
		LogLevel:        logLevel,
		LenientMetadata: lenient,
		Input:           input,
		ProgressOut:     os.Stdout,
	}

	return distributor.Run(ctx, options)
}

// optionalArg returns args[i] or an empty string.
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}

	return ""
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "",
		"path to settings file (love-distributor.yaml in the working directory is used when present)")
	flags.StringVarP(&runtimeVersion, "love-version", "v", distribution.DefaultRuntimeVersion, "LÖVE runtime version")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(linuxCmd, windowsCmd, macosCmd)
}

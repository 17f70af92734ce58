package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// lenientMetadata skips missing Info.plist keys instead of failing.
var lenientMetadata bool

// macosCmd builds {name}-macos-x64.zip holding {name}.app.
var macosCmd = &cobra.Command{
	Use:   "macos NAME FILE OUTPUT_DIR IDENTIFIER COPYRIGHT [EXTRA_FILES]",
	Short: "Build a macOS app bundle",
	Args:  cobra.RangeArgs(5, 6),
	RunE: func(_ *cobra.Command, args []string) error {
		return run(distribution.Input{
			Platform:         string(distribution.PlatformMacOS),
			Name:             args[0],
			GameArchivePath:  args[1],
			OutputDir:        args[2],
			BundleIdentifier: args[3],
			Copyright:        args[4],
			ExtraFilesPath:   optionalArg(args, 5),
		}, lenientMetadata)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	macosCmd.Flags().BoolVar(&lenientMetadata, "lenient-metadata", false,
		"warn instead of failing when an Info.plist key is missing")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// linuxCmd builds {name}-linux-x64.zip holding a single AppImage.
var linuxCmd = &cobra.Command{
	Use:   "linux NAME FILE OUTPUT_DIR [EXTRA_FILES]",
	Short: "Build a Linux AppImage",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(_ *cobra.Command, args []string) error {
		return run(distribution.Input{
			Platform:        string(distribution.PlatformLinux),
			Name:            args[0],
			GameArchivePath: args[1],
			OutputDir:       args[2],
			ExtraFilesPath:  optionalArg(args, 3),
		}, false)
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// windowsArch selects the 32 or 64 bit runtime.
var windowsArch string

// windowsCmd builds {name}-windows-{arch}.zip with a fused executable.
var windowsCmd = &cobra.Command{
	Use:   "windows NAME FILE OUTPUT_DIR [EXTRA_FILES]",
	Short: "Build a Windows directory with a fused executable",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(_ *cobra.Command, args []string) error {
		return run(distribution.Input{
			Platform:        string(distribution.PlatformWindows),
			Name:            args[0],
			GameArchivePath: args[1],
			OutputDir:       args[2],
			ExtraFilesPath:  optionalArg(args, 3),
			WindowsArch:     windowsArch,
		}, false)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	windowsCmd.Flags().StringVarP(&windowsArch, "arch", "a", string(distribution.ArchX64), "architecture: x86 or x64")
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lode/internal/app"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/engine/buildenv"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Materialize the lockfile's output variants as symlink trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lockfilePath, _ := cmd.Flags().GetString("lockfile")
			outDir, _ := cmd.Flags().GetString("out")
			system, _ := cmd.Flags().GetString("system")
			collisions, _ := cmd.Flags().GetString("collisions")

			mode, err := buildenv.ParseCollisionMode(collisions)
			if err != nil {
				return err
			}

			_, err = c.app.Build(cmd.Context(), app.BuildOptions{
				LockfilePath: lockfilePath,
				OutDir:       outDir,
				System:       system,
				Mode:         mode,
			})
			return err
		},
	}

	cmd.Flags().StringP("lockfile", "l", domain.DefaultLockfileFilename, "Path to the lockfile")
	cmd.Flags().StringP("out", "o", "result", "Directory to create the output variants under")
	cmd.Flags().String("system", "", "System to build for (defaults to the current system)")
	cmd.Flags().String("collisions", "error", "Collision handling: error, ignore, or check-content")

	return cmd
}

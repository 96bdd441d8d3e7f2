package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lode/internal/app"
	"go.trai.ch/lode/internal/core/domain"
)

func (c *CLI) newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve the manifest into a reproducible lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifestPath, _ := cmd.Flags().GetString("manifest")
			lockfilePath, _ := cmd.Flags().GetString("lockfile")
			upgradeAll, _ := cmd.Flags().GetBool("upgrade")
			upgradeGroups, _ := cmd.Flags().GetStringSlice("upgrade-group")

			var upgrades domain.UpgradeSet
			switch {
			case upgradeAll:
				upgrades = domain.UpgradeAll()
			case len(upgradeGroups) > 0:
				upgrades = domain.UpgradeGroups(upgradeGroups...)
			}

			_, err := c.app.Lock(cmd.Context(), app.LockOptions{
				ManifestPath: manifestPath,
				LockfilePath: lockfilePath,
				Upgrades:     upgrades,
			})
			return err
		},
	}

	cmd.Flags().StringP("manifest", "m", domain.DefaultManifestFilename, "Path to the manifest")
	cmd.Flags().StringP("lockfile", "l", domain.DefaultLockfileFilename, "Path to the lockfile")
	cmd.Flags().Bool("upgrade", false, "Re-resolve every package group")
	cmd.Flags().StringSlice("upgrade-group", nil, "Re-resolve the named group (repeatable; use \"toplevel\" for the default group)")

	return cmd
}

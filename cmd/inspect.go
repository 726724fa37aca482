package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/SuttArt/Dateiwiederherstellung/internal/config"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
	"github.com/SuttArt/Dateiwiederherstellung/internal/recovery"
)

// inspectCmd dumps filesystem metadata as text reports without carving.
var inspectCmd = &cobra.Command{
	Use:   "inspect [image] [report-dir]",
	Short: "Write superblock, group descriptor and inode reports",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("key-file") {
			config.Instance.Recovery.KeyFile = keyFile
		}
		if cmd.Flags().Changed("sector-size") {
			config.Instance.Recovery.SectorSize = sectorSize
		}

		image := config.Instance.Recovery.Image
		dir := config.Instance.Recovery.OutputDir
		if len(args) > 0 {
			image = args[0]
		}
		if len(args) > 1 {
			dir = args[1]
		}

		err := recovery.Inspect(image, config.Instance.Recovery.KeyFile, config.Instance.Recovery.SectorSize, dir)
		if err != nil {
			logger.LogError("Inspection failed", err, map[string]interface{}{
				"image": image,
			})
			os.Exit(1)
		}
	},
}

func init() {
	inspectCmd.Flags().StringVar(&keyFile, "key-file", config.Instance.Recovery.KeyFile, "AES-XTS key file for encrypted images")
	inspectCmd.Flags().IntVar(&sectorSize, "sector-size", config.Instance.Recovery.SectorSize, "Sector size of encrypted images in bytes")

	rootCmd.AddCommand(inspectCmd)
}

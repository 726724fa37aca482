package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/SuttArt/Dateiwiederherstellung/internal/config"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
	"github.com/SuttArt/Dateiwiederherstellung/internal/recovery"
)

var (
	keyFile        string
	manifestFormat string
	sectorSize     int
)

// recoverCmd is the explicit form of the bare root invocation.
var recoverCmd = &cobra.Command{
	Use:   "recover [image] [output-dir]",
	Short: "Carve deleted JPEG files out of an ext2 image",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("key-file") {
			config.Instance.Recovery.KeyFile = keyFile
		}
		if cmd.Flags().Changed("manifest-format") {
			config.Instance.Recovery.ManifestFormat = manifestFormat
		}
		if cmd.Flags().Changed("sector-size") {
			config.Instance.Recovery.SectorSize = sectorSize
		}
		runRecover(args)
	},
}

func init() {
	recoverCmd.Flags().StringVar(&keyFile, "key-file", config.Instance.Recovery.KeyFile, "AES-XTS key file for encrypted images")
	recoverCmd.Flags().StringVar(&manifestFormat, "manifest-format", config.Instance.Recovery.ManifestFormat, "Manifest format: json, plist or none")
	recoverCmd.Flags().IntVar(&sectorSize, "sector-size", config.Instance.Recovery.SectorSize, "Sector size of encrypted images in bytes")

	rootCmd.AddCommand(recoverCmd)
}

// runRecover performs a full recovery run with settings from the global
// config, overridden by up to two positional arguments.
func runRecover(args []string) {
	opts := recovery.Options{
		Image:          config.Instance.Recovery.Image,
		OutputDir:      config.Instance.Recovery.OutputDir,
		ManifestFormat: config.Instance.Recovery.ManifestFormat,
		KeyFile:        config.Instance.Recovery.KeyFile,
		SectorSize:     config.Instance.Recovery.SectorSize,
	}
	if len(args) > 0 {
		opts.Image = args[0]
	}
	if len(args) > 1 {
		opts.OutputDir = args[1]
	}

	summary, err := recovery.Run(opts)
	if err != nil {
		logger.LogError("Recovery failed", err, map[string]interface{}{
			"image": opts.Image,
		})
		os.Exit(1)
	}

	for _, f := range summary.Files {
		logger.LogInfo("Recovered file", map[string]interface{}{
			"path":        f.Path,
			"group":       f.Group,
			"start_block": f.StartBlock,
			"size":        f.Size,
		})
	}

	fields := map[string]interface{}{
		"image":       opts.Image,
		"output_dir":  opts.OutputDir,
		"recovered":   len(summary.Files),
		"free_blocks": summary.Stats.FreeBlocks,
		"used_blocks": summary.Stats.UsedBlocks,
	}
	if summary.ManifestPath != "" {
		fields["manifest"] = summary.ManifestPath
	}
	logger.LogInfo("Recovery finished", fields)
}

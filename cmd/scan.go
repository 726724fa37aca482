package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SuttArt/Dateiwiederherstellung/internal/config"
	"github.com/SuttArt/Dateiwiederherstellung/internal/hashutil"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
	"github.com/SuttArt/Dateiwiederherstellung/internal/fsutil"
	"github.com/SuttArt/Dateiwiederherstellung/internal/vtscan"
)

var apiKey string

// scanCmd checks recovered files against VirusTotal by hash.
var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Look up recovered files on VirusTotal",
	Long: `scan hashes every .jpg file in the given directory (default: the
recovery output directory) and queries VirusTotal for existing analysis
reports. Files are looked up by SHA-256 only, nothing is uploaded.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("api-key") {
			config.Instance.Scan.VirusTotalAPIKey = apiKey
		}

		dir := config.Instance.Recovery.OutputDir
		if len(args) > 0 {
			dir = args[0]
		}
		runScan(dir)
	},
}

func init() {
	scanCmd.Flags().StringVar(&apiKey, "api-key", "", "VirusTotal API key")

	rootCmd.AddCommand(scanCmd)
}

func runScan(dir string) {
	client, err := vtscan.NewClient(config.Instance.Scan.VirusTotalAPIKey)
	if err != nil {
		logger.LogError("Could not create VirusTotal client", err, nil)
		os.Exit(1)
	}

	entries, err := fsutil.ListFiles(dir)
	if err != nil {
		logger.LogError("Could not list recovered files", err, map[string]interface{}{
			"dir": dir,
		})
		os.Exit(1)
	}

	results := make(map[string]*vtscan.FileReport)
	for _, entry := range entries {
		if !strings.EqualFold(filepath.Ext(entry.Name), ".jpg") {
			continue
		}

		hashes, err := hashutil.ComputeFileHashes(entry.FullPath)
		if err != nil {
			logger.LogError("Could not hash file", err, map[string]interface{}{
				"file": entry.Name,
			})
			continue
		}

		report, err := client.LookupFile(hashes.SHA256)
		if errors.Is(err, vtscan.ErrNotFound) {
			logger.LogInfo("No VirusTotal record", map[string]interface{}{
				"file":   entry.Name,
				"sha256": hashes.SHA256,
			})
			continue
		}
		if err != nil {
			logger.LogError("VirusTotal lookup failed", err, map[string]interface{}{
				"file": entry.Name,
			})
			continue
		}

		results[entry.Name] = report
		if report.Flagged() {
			logger.LogWarn("VirusTotal flagged file", map[string]interface{}{
				"file":       entry.Name,
				"malicious":  report.Malicious,
				"suspicious": report.Suspicious,
				"engines":    report.TotalEngines,
			})
		} else {
			logger.LogInfo("File is clean", map[string]interface{}{
				"file":    entry.Name,
				"engines": report.TotalEngines,
			})
		}
	}

	if len(results) == 0 {
		logger.LogInfo("No VirusTotal reports found", map[string]interface{}{
			"dir": dir,
		})
		return
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.LogError("Could not encode scan results", err, nil)
		os.Exit(1)
	}

	resultPath := filepath.Join(dir, "scan_results.json")
	if err := fsutil.WriteFile(resultPath, data, 0o644); err != nil {
		logger.LogError("Could not write scan results", err, map[string]interface{}{
			"path": resultPath,
		})
		os.Exit(1)
	}

	logger.LogInfo("Wrote scan results", map[string]interface{}{
		"path":    resultPath,
		"reports": len(results),
	})
}

// Package recovery wires the full pipeline together: open the image,
// load the filesystem metadata, walk the free blocks and carve JPEG
// files into the output directory.
package recovery

import (
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/carve"
	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
	"github.com/SuttArt/Dateiwiederherstellung/internal/ext2"
	"github.com/SuttArt/Dateiwiederherstellung/internal/fsutil"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
	"github.com/SuttArt/Dateiwiederherstellung/internal/report"
)

// Options configures one recovery run
type Options struct {
	Image          string // Path to the ext2 image, possibly compressed
	OutputDir      string // Where recovered files are written
	ManifestFormat string // json, plist or none
	KeyFile        string // Optional raw AES-XTS key for encrypted images
	SectorSize     int    // XTS sector size, only used with KeyFile
}

// Summary reports what one run produced
type Summary struct {
	Files        []carve.RecoveredFile
	Stats        carve.Stats
	ManifestPath string
}

// Run executes the recovery pipeline for the given options. A failed
// metadata load aborts before any carving is attempted.
func Run(opts Options) (*Summary, error) {
	d, err := openDevice(opts)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	fs, err := ext2.Open(d)
	if err != nil {
		return nil, fmt.Errorf("failed to load filesystem metadata: %w", err)
	}

	logger.LogInfo("Loaded filesystem metadata", map[string]interface{}{
		"image":         opts.Image,
		"block_size":    fs.Super.BlockSize,
		"blocks":        fs.Super.BlocksCount,
		"inodes":        fs.Super.InodesCount,
		"block_groups":  fs.GroupCount(),
		"inodes_in_use": len(fs.Inodes),
	})
	logger.LogDebug("Parsed superblock", map[string]interface{}{
		"inodes_count":     fs.Super.InodesCount,
		"blocks_count":     fs.Super.BlocksCount,
		"blocks_per_group": fs.Super.BlocksPerGroup,
		"inodes_per_group": fs.Super.InodesPerGroup,
		"rev_level":        fs.Super.RevLevel,
		"inode_size":       fs.Super.InodeSize,
	})

	if err := fsutil.CreateDirIfNotExists(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, stats, err := carve.NewCarver(d, opts.OutputDir).Run(ext2.NewBlockIter(fs))
	if err != nil {
		return nil, err
	}

	var bytesWritten int64
	for _, f := range files {
		bytesWritten += f.Size
	}
	logger.LogInfo("Carving pass finished", map[string]interface{}{
		"free_blocks":   stats.FreeBlocks,
		"used_blocks":   stats.UsedBlocks,
		"recovered":     len(files),
		"bytes_written": bytesWritten,
	})
	if stats.DiscardedTail {
		logger.LogWarn("Discarded an unterminated image at end of scan", nil)
	}

	summary := &Summary{Files: files, Stats: stats}

	if opts.ManifestFormat != report.FormatNone && opts.ManifestFormat != "" {
		m, err := report.BuildManifest(opts.Image, files)
		if err != nil {
			return nil, err
		}
		path, err := report.WriteManifest(m, opts.OutputDir, opts.ManifestFormat)
		if err != nil {
			return nil, err
		}
		summary.ManifestPath = path
	}

	return summary, nil
}

// Inspect loads the filesystem metadata and dumps it as text reports
// into dir, clearing whatever the directory held before.
func Inspect(image, keyFile string, sectorSize int, dir string) error {
	d, err := openDevice(Options{Image: image, KeyFile: keyFile, SectorSize: sectorSize})
	if err != nil {
		return err
	}
	defer d.Close()

	fs, err := ext2.Open(d)
	if err != nil {
		return fmt.Errorf("failed to load filesystem metadata: %w", err)
	}

	if err := report.WriteReports(fs, dir); err != nil {
		return err
	}

	logger.LogInfo("Wrote metadata reports", map[string]interface{}{
		"image":     image,
		"directory": dir,
		"groups":    fs.GroupCount(),
		"inodes":    len(fs.Inodes),
	})
	return nil
}

// openDevice opens the image, decrypting it when a key file is given
func openDevice(opts Options) (*device.Device, error) {
	if opts.KeyFile == "" {
		return device.Open(opts.Image)
	}

	key, err := fsutil.ReadFile(opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return device.OpenEncrypted(opts.Image, key, opts.SectorSize)
}

package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/SuttArt/Dateiwiederherstellung/internal/ext2"
	"github.com/SuttArt/Dateiwiederherstellung/internal/fsutil"
)

// Report file names written by WriteReports
const (
	SuperblockReport = "superblock.txt"
	GroupDescReport  = "group_descriptors.txt"
	InodeReport      = "inodes.txt"
)

// WriteReports clears dir and repopulates it with text dumps of the
// superblock, the descriptor table and the in-use inodes.
func WriteReports(fs *ext2.Filesystem, dir string) error {
	if err := fsutil.EnsureEmptyDir(dir); err != nil {
		return fmt.Errorf("failed to prepare report directory: %w", err)
	}

	reports := []struct {
		name    string
		content string
	}{
		{SuperblockReport, FormatSuperblock(fs.Super)},
		{GroupDescReport, FormatGroupDescs(fs.Groups)},
		{InodeReport, FormatInodes(fs.Inodes)},
	}
	for _, r := range reports {
		if err := fsutil.WriteFileString(filepath.Join(dir, r.name), r.content, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// FormatSuperblock renders the superblock as key/value lines
func FormatSuperblock(sb *ext2.Superblock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "inodes count:     %d\n", sb.InodesCount)
	fmt.Fprintf(&b, "blocks count:     %d\n", sb.BlocksCount)
	fmt.Fprintf(&b, "block size:       %d\n", sb.BlockSize)
	fmt.Fprintf(&b, "blocks per group: %d\n", sb.BlocksPerGroup)
	fmt.Fprintf(&b, "inodes per group: %d\n", sb.InodesPerGroup)
	fmt.Fprintf(&b, "revision level:   %d\n", sb.RevLevel)
	fmt.Fprintf(&b, "inode size:       %d\n", sb.InodeSize)
	fmt.Fprintf(&b, "magic:            0x%04x\n", sb.Magic)
	return b.String()
}

// FormatGroupDescs renders one section per block group
func FormatGroupDescs(descs []ext2.GroupDesc) string {
	var b strings.Builder
	for i, gd := range descs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "group %d:\n", i)
		fmt.Fprintf(&b, "  block bitmap block: %d\n", gd.BlockBitmapBlock)
		fmt.Fprintf(&b, "  inode bitmap block: %d\n", gd.InodeBitmapBlock)
		fmt.Fprintf(&b, "  inode table block:  %d\n", gd.InodeTableBlock)
		fmt.Fprintf(&b, "  free blocks:        %d\n", gd.FreeBlocksCount)
		fmt.Fprintf(&b, "  free inodes:        %d\n", gd.FreeInodesCount)
		fmt.Fprintf(&b, "  used directories:   %d\n", gd.UsedDirsCount)
	}
	return b.String()
}

// FormatInodes renders the flat in-use inode sequence. Positions are
// sequence indices, not on-disk inode numbers; unused slots were
// dropped during loading.
func FormatInodes(inodes []ext2.Inode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "in-use inodes: %d\n", len(inodes))
	for i, ino := range inodes {
		fmt.Fprintf(&b, "\ninode [%d]:\n", i)
		fmt.Fprintf(&b, "  mode:        0%o\n", ino.Mode)
		fmt.Fprintf(&b, "  uid/gid:     %d/%d\n", ino.UID, ino.GID)
		fmt.Fprintf(&b, "  size:        %d\n", ino.Size)
		fmt.Fprintf(&b, "  links:       %d\n", ino.LinksCount)
		fmt.Fprintf(&b, "  blocks:      %d\n", ino.Blocks)
		fmt.Fprintf(&b, "  flags:       0x%08x\n", ino.Flags)
		fmt.Fprintf(&b, "  atime:       %s\n", formatTime(ino.Atime))
		fmt.Fprintf(&b, "  ctime:       %s\n", formatTime(ino.Ctime))
		fmt.Fprintf(&b, "  mtime:       %s\n", formatTime(ino.Mtime))
		fmt.Fprintf(&b, "  dtime:       %s\n", formatTime(ino.Dtime))
		fmt.Fprintf(&b, "  block ptrs:  %v\n", ino.Block)
	}
	return b.String()
}

// formatTime renders a raw inode timestamp; zero means "never"
func formatTime(ts uint32) string {
	if ts == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%s)", ts, time.Unix(int64(ts), 0).UTC().Format(time.RFC3339))
}

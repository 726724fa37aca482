package ext2

import (
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

// Filesystem bundles the decoded metadata of one image: superblock,
// descriptor table, flat inode sequence and per-group block bitmaps.
// All fields are immutable once Open returns.
type Filesystem struct {
	Super   *Superblock
	Groups  []GroupDesc
	Bitmaps []Bitmap
	Inodes  []Inode

	// firstData[g] is group g's metadata boundary: block numbers at or
	// below it are never carvable
	firstData []uint64
}

// Open loads all metadata from the device in the fixed order
// superblock, descriptor table, inode tables, block bitmaps. Any
// failure aborts the load; there is no partial success. Open also sets
// the device block size from the superblock.
func Open(d *device.Device) (*Filesystem, error) {
	sb, err := ReadSuperblock(d)
	if err != nil {
		return nil, err
	}
	if err := d.SetBlockSize(sb.BlockSize); err != nil {
		return nil, fmt.Errorf("failed to apply block size: %w", err)
	}

	descs, err := ReadGroupDescTable(d, sb)
	if err != nil {
		return nil, err
	}

	inodes, err := ReadInodeTable(d, sb, descs)
	if err != nil {
		return nil, err
	}

	bitmaps, err := ReadBlockBitmaps(d, sb, descs)
	if err != nil {
		return nil, err
	}

	firstData := make([]uint64, len(descs))
	for i := range descs {
		firstData[i] = FirstDataBlock(sb, &descs[i])
	}

	return &Filesystem{
		Super:     sb,
		Groups:    descs,
		Bitmaps:   bitmaps,
		Inodes:    inodes,
		firstData: firstData,
	}, nil
}

// GroupCount returns the number of loaded block groups
func (fs *Filesystem) GroupCount() int {
	return len(fs.Groups)
}

// FirstDataBlock returns the metadata boundary of the given group
func (fs *Filesystem) FirstDataBlock(group int) uint64 {
	return fs.firstData[group]
}

package ext2

import (
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

// Bitmap is one group's block allocation bitmap. Bit i covers the i-th
// block of the group, least significant bit first within each byte; a
// set bit means the block is allocated.
type Bitmap []byte

// Bit reports whether bit i is set
func (bm Bitmap) Bit(i uint32) bool {
	return (bm[i/8]>>(i%8))&1 == 1
}

// Bits returns the number of block bits the bitmap covers
func (bm Bitmap) Bits() uint32 {
	return uint32(len(bm)) * 8
}

// ReadBlockBitmaps loads every group's block bitmap from the block the
// group descriptor points at. The result is index-aligned with descs.
func ReadBlockBitmaps(d *device.Device, sb *Superblock, descs []GroupDesc) ([]Bitmap, error) {
	size := sb.BitmapByteSize()
	bitmaps := make([]Bitmap, 0, len(descs))
	for _, gd := range descs {
		offset := int64(gd.BlockBitmapBlock) * int64(sb.BlockSize)
		data, err := d.ReadRange(offset, int(size))
		if err != nil {
			return nil, fmt.Errorf("failed to read block bitmap: %w", err)
		}
		bitmaps = append(bitmaps, Bitmap(data))
	}
	return bitmaps, nil
}

// FirstDataBlock returns the block number of the group's first data
// block: the block right after its inode table. Blocks at or below this
// boundary hold filesystem metadata and are never carvable, whatever
// their bitmap bit claims.
func FirstDataBlock(sb *Superblock, gd *GroupDesc) uint64 {
	return uint64(sb.InodeTableBlocks()) + uint64(gd.InodeTableBlock)
}

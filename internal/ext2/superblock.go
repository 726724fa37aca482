// Package ext2 decodes ext2 filesystem metadata (superblock, block
// group descriptors, inodes, block bitmaps) straight from byte offsets
// of a raw image and derives which blocks are unallocated. It performs
// no journaling, extent or consistency handling; the view is read-only.
package ext2

import (
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

const (
	// SuperblockOffset is the absolute byte offset of the superblock
	SuperblockOffset = 1024
	// SuperblockSize is the on-disk size of the superblock region
	SuperblockSize = 1024

	// SuperMagic identifies an ext2 filesystem
	SuperMagic = 0xEF53

	// maxLogBlockSize caps the block size shift; anything larger than a
	// 64 MiB block is treated as a corrupt superblock
	maxLogBlockSize = 16
)

// Superblock field offsets within the 1024-byte superblock region
const (
	sbInodesCount    = 0  // u32
	sbBlocksCount    = 4  // u32
	sbLogBlockSize   = 24 // u32
	sbBlocksPerGroup = 32 // u32
	sbInodesPerGroup = 40 // u32
	sbMagic          = 56 // u16
	sbRevLevel       = 76 // u32
	sbInodeSize      = 88 // u16
)

// Superblock holds the filesystem-wide geometry. It is read once and
// immutable afterwards.
type Superblock struct {
	InodesCount    uint32
	BlocksCount    uint32
	LogBlockSize   uint32
	BlocksPerGroup uint32
	InodesPerGroup uint32
	Magic          uint16
	RevLevel       uint32
	InodeSize      uint16

	// BlockSize is derived as 1024 << LogBlockSize
	BlockSize uint32
}

// DecodeSuperblock decodes a superblock from its 1024-byte on-disk
// region and validates the derived block size and the magic number.
func DecodeSuperblock(data []byte) (*Superblock, error) {
	if err := checkLen(data, SuperblockSize); err != nil {
		return nil, NewFormatError(err, "superblock", -1, fmt.Sprintf("have %d bytes", len(data)))
	}

	sb := &Superblock{
		InodesCount:    u32(data, sbInodesCount),
		BlocksCount:    u32(data, sbBlocksCount),
		LogBlockSize:   u32(data, sbLogBlockSize),
		BlocksPerGroup: u32(data, sbBlocksPerGroup),
		InodesPerGroup: u32(data, sbInodesPerGroup),
		Magic:          u16(data, sbMagic),
		RevLevel:       u32(data, sbRevLevel),
		InodeSize:      u16(data, sbInodeSize),
	}

	if sb.Magic != SuperMagic {
		return nil, NewFormatError(ErrInvalidMagic, "superblock", SuperblockOffset,
			fmt.Sprintf("magic 0x%04x, want 0x%04x", sb.Magic, SuperMagic))
	}

	if sb.LogBlockSize > maxLogBlockSize {
		return nil, NewFormatError(ErrInvalidBlockSize, "superblock", SuperblockOffset,
			fmt.Sprintf("log block size %d", sb.LogBlockSize))
	}
	sb.BlockSize = 1024 << sb.LogBlockSize

	// Revision 0 filesystems always use 128-byte inode records
	if sb.RevLevel == 0 {
		sb.InodeSize = InodeSize
	}

	return sb, nil
}

// ReadSuperblock seeks to the superblock region and decodes it. A short
// read is fatal for the whole filesystem load.
func ReadSuperblock(d *device.Device) (*Superblock, error) {
	data, err := d.ReadRange(SuperblockOffset, SuperblockSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}
	return DecodeSuperblock(data)
}

// DescTableOffset returns the byte offset of the block group descriptor
// table: the block immediately after the superblock's 1024-byte region.
// With 1024-byte blocks the superblock occupies block 1, so the table
// starts at block 2; with larger blocks it starts at block 1.
func (sb *Superblock) DescTableOffset() int64 {
	if sb.BlockSize > 1024 {
		return int64(sb.BlockSize)
	}
	return int64(2 * sb.BlockSize)
}

// DescSlotCount returns the number of descriptor slots the table read
// attempts. The table is assumed to fit in a single block, so this is
// block_size/32, truncated early by the zero sentinel of the first
// absent descriptor. Tables spanning multiple blocks are unsupported.
func (sb *Superblock) DescSlotCount() uint32 {
	return sb.BlockSize / GroupDescSize
}

// InodesPerBlock returns how many 128-byte inode records fit in a block
func (sb *Superblock) InodesPerBlock() uint32 {
	return sb.BlockSize / InodeSize
}

// InodeTableBlocks returns the size of one group's inode table in blocks
func (sb *Superblock) InodeTableBlocks() uint32 {
	return sb.InodesPerGroup / sb.InodesPerBlock()
}

// BitmapByteSize returns the size of one group's block bitmap in bytes.
// Groups whose block count is not a multiple of 8 lose the remainder
// bits; such geometries are out of scope.
func (sb *Superblock) BitmapByteSize() uint32 {
	return sb.BlocksPerGroup / 8
}

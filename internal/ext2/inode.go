package ext2

import (
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

const (
	// InodeSize is the on-disk size of one inode record. Revision 0
	// filesystems always use 128-byte records; the loader is not
	// parameterized by the superblock's inode size field, so larger
	// records of later revisions are not supported.
	InodeSize = 128

	// InodeBlockSlots is the number of block pointer slots per inode
	// (12 direct, 1 indirect, 1 double indirect, 1 triple indirect)
	InodeBlockSlots = 15
)

// Inode field offsets within the 128-byte record
const (
	iMode       = 0   // u16
	iUID        = 2   // u16
	iSize       = 4   // u32
	iAtime      = 8   // u32
	iCtime      = 12  // u32
	iMtime      = 16  // u32
	iDtime      = 20  // u32
	iGID        = 24  // u16
	iLinksCount = 26  // u16
	iBlocks     = 28  // u32, count of 512-byte sectors
	iFlags      = 32  // u32
	iOSD1       = 36  // u32
	iBlock      = 40  // 15 x u32
	iGeneration = 100 // u32
	iFileACL    = 104 // u32
	iDirACL     = 108 // u32
	iFAddr      = 112 // u32
	iOSD2       = 116 // 12 bytes
)

// Inode is one in-use inode record. Timestamps are raw Unix seconds.
// Blocks counts 512-byte sectors, not filesystem blocks.
type Inode struct {
	Mode       uint16
	UID        uint16
	Size       uint32
	Atime      uint32
	Ctime      uint32
	Mtime      uint32
	Dtime      uint32
	GID        uint16
	LinksCount uint16
	Blocks     uint32
	Flags      uint32
	OSD1       uint32
	Block      [InodeBlockSlots]uint32
	Generation uint32
	FileACL    uint32
	DirACL     uint32
	FAddr      uint32
	OSD2       [12]byte
}

// InUse reports whether the slot holds a live inode. A zero mode field
// marks the slot unused; no distinction is made between never-allocated
// and recently freed slots.
func (ino *Inode) InUse() bool {
	return ino.Mode != 0
}

// DecodeInode decodes one 128-byte inode record. Unused slots decode
// like any other; callers filter on InUse.
func DecodeInode(data []byte) (*Inode, error) {
	if err := checkLen(data, InodeSize); err != nil {
		return nil, NewFormatError(err, "inode", -1, fmt.Sprintf("have %d bytes", len(data)))
	}

	ino := &Inode{
		Mode:       u16(data, iMode),
		UID:        u16(data, iUID),
		Size:       u32(data, iSize),
		Atime:      u32(data, iAtime),
		Ctime:      u32(data, iCtime),
		Mtime:      u32(data, iMtime),
		Dtime:      u32(data, iDtime),
		GID:        u16(data, iGID),
		LinksCount: u16(data, iLinksCount),
		Blocks:     u32(data, iBlocks),
		Flags:      u32(data, iFlags),
		OSD1:       u32(data, iOSD1),
		Generation: u32(data, iGeneration),
		FileACL:    u32(data, iFileACL),
		DirACL:     u32(data, iDirACL),
		FAddr:      u32(data, iFAddr),
	}
	copy(ino.Block[:], u32Array(data, iBlock, InodeBlockSlots))
	copy(ino.OSD2[:], data[iOSD2:iOSD2+12])

	return ino, nil
}

// ReadInodeTable loads the in-use inodes of every group. Each group's
// table starts at descriptor.inode_table_block * block_size and holds
// inodes_per_group fixed 128-byte records. Unused slots are dropped, so
// the result is a flat sequence across all groups with no per-group
// boundaries retained.
func ReadInodeTable(d *device.Device, sb *Superblock, descs []GroupDesc) ([]Inode, error) {
	inodes := make([]Inode, 0, int(sb.InodesPerGroup)*len(descs))
	for _, gd := range descs {
		tableStart := int64(gd.InodeTableBlock) * int64(sb.BlockSize)
		for idx := uint32(0); idx < sb.InodesPerGroup; idx++ {
			data, err := d.ReadRange(tableStart+int64(idx)*InodeSize, InodeSize)
			if err != nil {
				return nil, fmt.Errorf("failed to read inode table: %w", err)
			}
			ino, err := DecodeInode(data)
			if err != nil {
				return nil, err
			}
			if !ino.InUse() {
				continue
			}
			inodes = append(inodes, *ino)
		}
	}
	return inodes, nil
}

package ext2

import (
	"errors"
	"fmt"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

// GroupDescSize is the on-disk size of one block group descriptor
const GroupDescSize = 32

// Group descriptor field offsets within the 32-byte record
const (
	gdBlockBitmap     = 0  // u32
	gdInodeBitmap     = 4  // u32
	gdInodeTable      = 8  // u32
	gdFreeBlocksCount = 12 // u16
	gdFreeInodesCount = 14 // u16
	gdUsedDirsCount   = 16 // u16
	gdPad             = 18 // u16
	gdReserved        = 20 // 12 bytes
)

// GroupDesc locates one block group's bitmap and inode table and carries
// its free counts. Immutable once loaded.
type GroupDesc struct {
	BlockBitmapBlock uint32
	InodeBitmapBlock uint32
	InodeTableBlock  uint32
	FreeBlocksCount  uint16
	FreeInodesCount  uint16
	UsedDirsCount    uint16
	Pad              uint16
	Reserved         [12]byte
}

// DecodeGroupDesc decodes one 32-byte descriptor slot. A descriptor
// whose block bitmap field is zero is absent: ErrInvalidDescriptor is
// returned and the caller treats it as the end of the table.
func DecodeGroupDesc(data []byte) (*GroupDesc, error) {
	if err := checkLen(data, GroupDescSize); err != nil {
		return nil, NewFormatError(err, "group descriptor", -1, fmt.Sprintf("have %d bytes", len(data)))
	}

	gd := &GroupDesc{
		BlockBitmapBlock: u32(data, gdBlockBitmap),
		InodeBitmapBlock: u32(data, gdInodeBitmap),
		InodeTableBlock:  u32(data, gdInodeTable),
		FreeBlocksCount:  u16(data, gdFreeBlocksCount),
		FreeInodesCount:  u16(data, gdFreeInodesCount),
		UsedDirsCount:    u16(data, gdUsedDirsCount),
		Pad:              u16(data, gdPad),
	}
	copy(gd.Reserved[:], data[gdReserved:gdReserved+12])

	if gd.BlockBitmapBlock == 0 {
		return nil, ErrInvalidDescriptor
	}

	return gd, nil
}

// ReadGroupDescTable reads the descriptor table block and decodes
// descriptors in order until the first absent slot. Descriptors are
// trusted as a valid prefix: loading stops at the first zero sentinel
// even if later slots look plausible. The result is index-aligned with
// the on-disk table (index 0 = block group 0).
func ReadGroupDescTable(d *device.Device, sb *Superblock) ([]GroupDesc, error) {
	offset := sb.DescTableOffset()
	slots := sb.DescSlotCount()

	table, err := d.ReadRange(offset, int(slots)*GroupDescSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor table: %w", err)
	}

	descs := make([]GroupDesc, 0, 8)
	for i := uint32(0); i < slots; i++ {
		gd, err := DecodeGroupDesc(table[i*GroupDescSize : (i+1)*GroupDescSize])
		if err != nil {
			if errors.Is(err, ErrInvalidDescriptor) {
				// Zero sentinel: no more groups
				break
			}
			return nil, err
		}
		descs = append(descs, *gd)
	}

	if len(descs) == 0 {
		return nil, NewFormatError(ErrNoGroups, "descriptor table", offset, "")
	}
	return descs, nil
}

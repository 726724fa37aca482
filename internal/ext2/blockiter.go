package ext2

// BlockInfo describes one data block seen by the bitmap walk. Group is
// 1-based, matching the recovered file naming scheme. Number is the
// running block counter; multiplied by the block size it gives the
// block's byte offset on the device.
type BlockInfo struct {
	Group  uint32
	Number uint64
	Used   bool
}

// BlockIter walks every group's block bitmap bit by bit and reports
// each data block with its allocation state. The block counter starts
// at 1 and keeps running across group boundaries; it is never reset.
// Bits whose counter falls at or below the group's first data block
// cover metadata and are skipped. The iterator performs no device I/O;
// it walks bitmaps already held by the filesystem.
type BlockIter struct {
	fs      *Filesystem
	group   int
	byteIdx uint32
	bitIdx  uint32
	counter uint64
}

// NewBlockIter returns an iterator positioned before the first bit of
// group 0's bitmap
func NewBlockIter(fs *Filesystem) *BlockIter {
	return &BlockIter{fs: fs}
}

// Next yields the next data block in bitmap order, or ok=false once
// every group's bitmap is exhausted.
func (it *BlockIter) Next() (BlockInfo, bool) {
	for it.group < len(it.fs.Bitmaps) {
		bm := it.fs.Bitmaps[it.group]
		if it.byteIdx >= uint32(len(bm)) {
			// Next group restarts the bit cursor; the block counter
			// keeps running
			it.group++
			it.byteIdx = 0
			it.bitIdx = 0
			continue
		}

		group := uint32(it.group)
		used := bm.Bit(it.byteIdx*8 + it.bitIdx)

		it.counter++
		it.bitIdx++
		if it.bitIdx == 8 {
			it.bitIdx = 0
			it.byteIdx++
		}

		if it.counter <= it.fs.firstData[group] {
			continue
		}

		return BlockInfo{Group: group + 1, Number: it.counter, Used: used}, true
	}
	return BlockInfo{}, false
}

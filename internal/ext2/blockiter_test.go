package ext2

import "testing"

func iterFilesystem(bitmaps []Bitmap, firstData []uint64) *Filesystem {
	return &Filesystem{Bitmaps: bitmaps, firstData: firstData}
}

func TestBlockIterBitOrder(t *testing.T) {
	// 0b00000101: blocks 1 and 3 allocated, the rest free
	fs := iterFilesystem([]Bitmap{{0x05}}, []uint64{0})

	it := NewBlockIter(fs)
	want := []BlockInfo{
		{Group: 1, Number: 1, Used: true},
		{Group: 1, Number: 2, Used: false},
		{Group: 1, Number: 3, Used: true},
		{Group: 1, Number: 4, Used: false},
		{Group: 1, Number: 5, Used: false},
		{Group: 1, Number: 6, Used: false},
		{Group: 1, Number: 7, Used: false},
		{Group: 1, Number: 8, Used: false},
	}
	for i, w := range want {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("iterator ended early at index %d", i)
		}
		if got != w {
			t.Errorf("block %d = %+v, want %+v", i, got, w)
		}
	}
	if _, ok := it.Next(); ok {
		t.Error("iterator yielded past the last bit")
	}
}

func TestBlockIterSkipsMetadataBlocks(t *testing.T) {
	// Boundary 6: blocks 1-6 are metadata, the first yield is block 7
	fs := iterFilesystem([]Bitmap{{0xFF}}, []uint64{6})

	it := NewBlockIter(fs)
	got, ok := it.Next()
	if !ok {
		t.Fatal("iterator ended before any data block")
	}
	if got.Number != 7 {
		t.Errorf("first data block = %d, want 7", got.Number)
	}

	var count uint64
	for { // drain the remaining bits
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Errorf("remaining data blocks = %d, want 1", count)
	}
}

func TestBlockIterCounterRunsAcrossGroups(t *testing.T) {
	fs := iterFilesystem([]Bitmap{{0x00}, {0x00}}, []uint64{0, 0})

	it := NewBlockIter(fs)
	var last BlockInfo
	count := 0
	for {
		bi, ok := it.Next()
		if !ok {
			break
		}
		last = bi
		count++
	}
	if count != 16 {
		t.Fatalf("yielded %d blocks, want 16", count)
	}
	// The counter carries over from group 1 instead of restarting
	if last.Group != 2 || last.Number != 16 {
		t.Errorf("last block = %+v, want group 2, number 16", last)
	}
}

func TestBlockIterSecondGroupBoundary(t *testing.T) {
	// Group 2's boundary is an absolute block number: with 8 blocks in
	// group 1 and boundary 10, group 2's first two bits are skipped
	fs := iterFilesystem([]Bitmap{{0x00}, {0x00}}, []uint64{0, 10})

	it := NewBlockIter(fs)
	var firstOfGroup2 BlockInfo
	for {
		bi, ok := it.Next()
		if !ok {
			break
		}
		if bi.Group == 2 {
			firstOfGroup2 = bi
			break
		}
	}
	if firstOfGroup2.Number != 11 {
		t.Errorf("first block of group 2 = %d, want 11", firstOfGroup2.Number)
	}
}

package ext2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
)

func TestDecodeInodeFields(t *testing.T) {
	data := make([]byte, InodeSize)
	binary.LittleEndian.PutUint16(data[iMode:], 0x81A4) // regular file, 0644
	binary.LittleEndian.PutUint16(data[iUID:], 1000)
	binary.LittleEndian.PutUint32(data[iSize:], 4096)
	binary.LittleEndian.PutUint32(data[iMtime:], 1700000000)
	binary.LittleEndian.PutUint16(data[iLinksCount:], 1)
	binary.LittleEndian.PutUint32(data[iBlocks:], 8)
	binary.LittleEndian.PutUint32(data[iBlock:], 21)
	binary.LittleEndian.PutUint32(data[iBlock+4:], 22)
	binary.LittleEndian.PutUint32(data[iGeneration:], 7)

	ino, err := DecodeInode(data)
	if err != nil {
		t.Fatalf("DecodeInode failed: %v", err)
	}

	if ino.Mode != 0x81A4 || ino.UID != 1000 || ino.Size != 4096 {
		t.Errorf("mode/uid/size = %#x/%d/%d, want 0x81a4/1000/4096", ino.Mode, ino.UID, ino.Size)
	}
	if ino.Mtime != 1700000000 {
		t.Errorf("mtime = %d, want 1700000000", ino.Mtime)
	}
	if ino.LinksCount != 1 || ino.Blocks != 8 {
		t.Errorf("links/blocks = %d/%d, want 1/8", ino.LinksCount, ino.Blocks)
	}
	if ino.Block[0] != 21 || ino.Block[1] != 22 || ino.Block[2] != 0 {
		t.Errorf("block pointers = %v", ino.Block)
	}
	if ino.Generation != 7 {
		t.Errorf("generation = %d, want 7", ino.Generation)
	}
	if !ino.InUse() {
		t.Error("inode with nonzero mode reported unused")
	}
}

func TestDecodeInodeShortBuffer(t *testing.T) {
	_, err := DecodeInode(make([]byte, 64))
	if !errors.Is(err, ErrStructTooShort) {
		t.Fatalf("expected ErrStructTooShort, got %v", err)
	}
}

func TestReadInodeTableSkipsUnusedSlots(t *testing.T) {
	img := make([]byte, 16384)
	sbData := buildSuperblock(0)
	binary.LittleEndian.PutUint32(sbData[sbInodesPerGroup:], 4)
	copy(img[SuperblockOffset:], sbData)

	// One group, inode table at block 5
	binary.LittleEndian.PutUint32(img[2048:], 3)
	binary.LittleEndian.PutUint32(img[2048+4:], 4)
	binary.LittleEndian.PutUint32(img[2048+8:], 5)

	// Slots 0 and 2 in use, slots 1 and 3 left with mode zero
	table := 5 * 1024
	binary.LittleEndian.PutUint16(img[table:], 0x81A4)
	binary.LittleEndian.PutUint32(img[table+iSize:], 111)
	binary.LittleEndian.PutUint16(img[table+2*InodeSize:], 0x41ED)
	binary.LittleEndian.PutUint32(img[table+2*InodeSize+iSize:], 222)

	d := device.New(bytes.NewReader(img), int64(len(img)))
	sb, err := ReadSuperblock(d)
	if err != nil {
		t.Fatal(err)
	}
	descs, err := ReadGroupDescTable(d, sb)
	if err != nil {
		t.Fatal(err)
	}

	inodes, err := ReadInodeTable(d, sb, descs)
	if err != nil {
		t.Fatalf("ReadInodeTable failed: %v", err)
	}
	if len(inodes) != 2 {
		t.Fatalf("inode count = %d, want 2", len(inodes))
	}
	if inodes[0].Size != 111 || inodes[1].Size != 222 {
		t.Errorf("inode sizes = %d, %d, want 111, 222", inodes[0].Size, inodes[1].Size)
	}
}

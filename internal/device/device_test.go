package device

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func TestDeviceReadBlock(t *testing.T) {
	blockSize := uint32(1024)

	tempFile, err := os.CreateTemp("", "ext2-dev-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tempFile.Name())

	// Two blocks with distinct fill bytes
	data := make([]byte, 2*blockSize)
	for i := range data {
		if i < int(blockSize) {
			data[i] = 0xAA
		} else {
			data[i] = 0xBB
		}
	}
	if _, err := tempFile.WriteAt(data, 0); err != nil {
		t.Fatalf("failed to write image data: %v", err)
	}
	tempFile.Close()

	d, err := Open(tempFile.Name())
	if err != nil {
		t.Fatalf("failed to open device: %v", err)
	}
	defer d.Close()

	if err := d.SetBlockSize(blockSize); err != nil {
		t.Fatalf("SetBlockSize failed: %v", err)
	}
	if got := d.GetBlockCount(); got != 2 {
		t.Errorf("GetBlockCount = %d; want 2", got)
	}

	block1, err := d.ReadBlock(1)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if len(block1) != int(blockSize) {
		t.Errorf("unexpected block length: got %d, want %d", len(block1), blockSize)
	}
	for i, b := range block1 {
		if b != 0xBB {
			t.Errorf("mismatch at byte %d: got %x, want bb", i, b)
			break
		}
	}
}

func TestReadBlockRequiresBlockSize(t *testing.T) {
	d := New(bytes.NewReader(make([]byte, 4096)), 4096)
	_, err := d.ReadBlock(0)
	if !errors.Is(err, ErrBlockSizeUnset) {
		t.Errorf("expected ErrBlockSizeUnset, got: %v", err)
	}
}

func TestReadAtOutOfRange(t *testing.T) {
	d := New(bytes.NewReader(make([]byte, 4096)), 4096)

	buf := make([]byte, 16)
	_, err := d.ReadAt(buf, int64(999999999))
	if err == nil {
		t.Fatal("expected error for out-of-range read, got nil")
	}
	if !IsOutOfRange(err) {
		t.Errorf("expected out-of-range error, got: %v", err)
	}

	_, err = d.ReadAt(buf, -1)
	if !IsOutOfRange(err) {
		t.Errorf("expected out-of-range error for negative offset, got: %v", err)
	}
}

func TestReadAtShortRead(t *testing.T) {
	d := New(bytes.NewReader(make([]byte, 100)), 100)

	buf := make([]byte, 64)
	_, err := d.ReadAt(buf, 80)
	if err == nil {
		t.Fatal("expected error for read past end, got nil")
	}
	if !IsShortRead(err) {
		t.Errorf("expected short-read error, got: %v", err)
	}
}

func TestReadRangeExact(t *testing.T) {
	src := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
	d := New(bytes.NewReader(src), int64(len(src)))

	got, err := d.ReadRange(2, 3)
	if err != nil {
		t.Fatalf("ReadRange failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x30, 0x40, 0x50}) {
		t.Errorf("ReadRange = %x; want 304050", got)
	}
}

func TestSetBlockSizeZero(t *testing.T) {
	d := New(bytes.NewReader(nil), 0)
	if err := d.SetBlockSize(0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("expected ErrInvalidBlockSize, got: %v", err)
	}
}

func TestSeekBlock(t *testing.T) {
	tests := []struct {
		blockNum  uint64
		blockSize uint32
		expected  int64
	}{
		{0, 4096, 0},
		{1, 1024, 1024},
		{2, 4096, 8192},
		{100, 512, 51200},
	}
	for _, tt := range tests {
		offset := SeekBlock(tt.blockNum, tt.blockSize)
		if offset != tt.expected {
			t.Errorf("SeekBlock(%d, %d) = %d; want %d", tt.blockNum, tt.blockSize, offset, tt.expected)
		}
	}
}

func TestIsAligned(t *testing.T) {
	tests := []struct {
		offset    int64
		blockSize uint32
		expected  bool
	}{
		{0, 4096, true},
		{4096, 4096, true},
		{4100, 4096, false},
		{12345, 512, false},
	}
	for _, tt := range tests {
		result := IsAligned(tt.offset, tt.blockSize)
		if result != tt.expected {
			t.Errorf("IsAligned(%d, %d) = %v; want %v", tt.offset, tt.blockSize, result, tt.expected)
		}
	}
}

// Package device provides read-only block access to ext2 image files,
// including images that are gzip/bzip2/xz compressed or AES-XTS encrypted.
package device

import (
	"fmt"
	"io"
	"os"
)

// Device wraps a byte source (usually a raw image file) and exposes
// bounds-checked absolute reads plus block-addressed reads once a block
// size is known. All reads are seek-then-read: no cursor is shared
// between callers.
type Device struct {
	r         io.ReaderAt
	size      int64
	blockSize uint32
	file      *os.File // backing file when opened from a path
	tempPath  string   // decompressed copy, removed on Close
	path      string
}

// Open opens an image file read-only. Images with a .gz, .bz2 or .xz
// extension are decompressed to a temporary file first, since carving
// needs random access.
func Open(path string) (*Device, error) {
	realPath := path
	tempPath := ""

	if isCompressed(path) {
		decompressed, err := decompressToTemp(path)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress image: %w", err)
		}
		realPath = decompressed
		tempPath = decompressed
	}

	f, err := os.Open(realPath)
	if err != nil {
		if tempPath != "" {
			os.Remove(tempPath)
		}
		return nil, NewDeviceError(ErrIO, "Open", path, err.Error())
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		if tempPath != "" {
			os.Remove(tempPath)
		}
		return nil, NewDeviceError(ErrIO, "Open", path, err.Error())
	}

	return &Device{
		r:        f,
		size:     stat.Size(),
		file:     f,
		tempPath: tempPath,
		path:     path,
	}, nil
}

// OpenEncrypted opens an AES-XTS encrypted image. The key must be 32, 48
// or 64 bytes (two AES keys); sectorSize is the encryption sector size,
// typically 512.
func OpenEncrypted(path string, key []byte, sectorSize int) (*Device, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}

	xr, err := NewXTSReaderAt(d.r, key, sectorSize, d.size)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.r = xr
	return d, nil
}

// New wraps an arbitrary ReaderAt as a Device, e.g. a bytes.Reader over
// an in-memory image.
func New(r io.ReaderAt, size int64) *Device {
	return &Device{r: r, size: size}
}

// SetBlockSize configures the block size used by ReadBlock. It is set
// after the superblock has been decoded, since the block size is stored
// inside the image itself.
func (d *Device) SetBlockSize(blockSize uint32) error {
	if blockSize == 0 {
		return NewDeviceError(ErrInvalidBlockSize, "SetBlockSize", d.path, "block size must be non-zero")
	}
	d.blockSize = blockSize
	return nil
}

// GetBlockSize returns the configured block size, zero if not yet set
func (d *Device) GetBlockSize() uint32 {
	return d.blockSize
}

// GetBlockCount returns the number of whole blocks the device holds
func (d *Device) GetBlockCount() uint64 {
	if d.blockSize == 0 {
		return 0
	}
	return uint64(d.size) / uint64(d.blockSize)
}

// Size returns the device size in bytes
func (d *Device) Size() int64 {
	return d.size
}

// Path returns the path the device was opened from, empty for in-memory devices
func (d *Device) Path() string {
	return d.path
}

// ReadAt reads exactly len(p) bytes at the given byte offset. A read
// past the device end fails with ErrOutOfRange, fewer bytes than
// requested fail with ErrShortRead. There is no partial-success mode.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= d.size {
		return 0, NewDeviceError(ErrOutOfRange, "ReadAt", fmt.Sprintf("offset=%d", off), fmt.Sprintf("device size is %d", d.size))
	}
	n, err := d.r.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, NewDeviceError(ErrIO, "ReadAt", fmt.Sprintf("offset=%d", off), err.Error())
	}
	if n < len(p) {
		return n, NewDeviceError(ErrShortRead, "ReadAt", fmt.Sprintf("offset=%d", off), fmt.Sprintf("wanted %d bytes, got %d", len(p), n))
	}
	return n, nil
}

// ReadRange reads exactly length bytes starting at the given byte offset
func (d *Device) ReadRange(off int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := d.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBlock reads one whole block by block number. The block size must
// have been configured with SetBlockSize first.
func (d *Device) ReadBlock(blockNum uint64) ([]byte, error) {
	if d.blockSize == 0 {
		return nil, NewDeviceError(ErrBlockSizeUnset, "ReadBlock", fmt.Sprintf("block=%d", blockNum), "")
	}
	buf, err := d.ReadRange(SeekBlock(blockNum, d.blockSize), int(d.blockSize))
	if err != nil {
		return nil, NewDeviceError(ErrIO, "ReadBlock", fmt.Sprintf("block=%d", blockNum), err.Error())
	}
	return buf, nil
}

// Close closes the backing file and removes any temporary decompressed copy
func (d *Device) Close() error {
	var err error
	if d.file != nil {
		err = d.file.Close()
		d.file = nil
	}
	if d.tempPath != "" {
		os.Remove(d.tempPath)
		d.tempPath = ""
	}
	return err
}

// SeekBlock returns the byte offset for a given block number and block size
func SeekBlock(blockNum uint64, blockSize uint32) int64 {
	return int64(blockNum) * int64(blockSize)
}

// IsAligned checks whether a given offset is aligned to blockSize
func IsAligned(offset int64, blockSize uint32) bool {
	return offset%int64(blockSize) == 0
}

package device

import (
	"crypto/aes"
	"fmt"
	"io"

	"golang.org/x/crypto/xts"
)

// aesBlockSize is the cipher block size XTS sectors must align to
const aesBlockSize = 16

// DefaultSectorSize is the usual encryption sector size of disk images
const DefaultSectorSize = 512

// XTSReaderAt wraps an io.ReaderAt and decrypts AES-XTS encrypted
// sectors on read. Sector n is decrypted with sector number n as the
// tweak, which matches how full-disk encryption lays out images.
type XTSReaderAt struct {
	r          io.ReaderAt
	cipher     *xts.Cipher
	sectorSize int
	size       int64
}

// NewXTSReaderAt creates a decrypting ReaderAt. The key length must be
// 32, 48 or 64 bytes (AES-XTS uses two equal-length AES keys).
func NewXTSReaderAt(r io.ReaderAt, key []byte, sectorSize int, size int64) (*XTSReaderAt, error) {
	if len(key) != 32 && len(key) != 48 && len(key) != 64 {
		return nil, NewDeviceError(ErrInvalidKeySize, "NewXTSReaderAt", "",
			fmt.Sprintf("key is %d bytes, must be 32, 48 or 64", len(key)))
	}
	if sectorSize <= 0 {
		sectorSize = DefaultSectorSize
	}
	if sectorSize%aesBlockSize != 0 {
		return nil, NewDeviceError(ErrInvalidSector, "NewXTSReaderAt", "",
			fmt.Sprintf("sector size %d is not a multiple of %d", sectorSize, aesBlockSize))
	}

	cipher, err := xts.NewCipher(aes.NewCipher, key)
	if err != nil {
		return nil, err
	}

	return &XTSReaderAt{
		r:          r,
		cipher:     cipher,
		sectorSize: sectorSize,
		size:       size,
	}, nil
}

// SectorSize returns the configured sector size
func (x *XTSReaderAt) SectorSize() int {
	return x.sectorSize
}

// Size returns the logical size of the decrypted image
func (x *XTSReaderAt) Size() int64 {
	return x.size
}

// ReadAt implements io.ReaderAt with decryption. Reads are widened to
// sector boundaries, decrypted sector by sector, and the requested
// window is copied out.
func (x *XTSReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("xts: negative offset")
	}
	if off >= x.size {
		return 0, io.EOF
	}

	sectorSize := int64(x.sectorSize)

	startSector := off / sectorSize
	endOffset := off + int64(len(p))
	if endOffset > x.size {
		endOffset = x.size
	}
	endSector := (endOffset + sectorSize - 1) / sectorSize

	alignedStart := startSector * sectorSize
	alignedLen := (endSector - startSector) * sectorSize
	alignedBuf := make([]byte, alignedLen)

	readN, err := x.r.ReadAt(alignedBuf, alignedStart)
	if err != nil && err != io.EOF {
		return 0, err
	}

	// Only complete sectors can be decrypted
	completeSectors := readN / int(sectorSize)
	if completeSectors == 0 {
		if readN > 0 {
			return 0, fmt.Errorf("xts: partial sector read (%d bytes)", readN)
		}
		return 0, io.EOF
	}

	for s := 0; s < completeSectors; s++ {
		sector := alignedBuf[s*int(sectorSize) : (s+1)*int(sectorSize)]
		x.cipher.Decrypt(sector, sector, uint64(startSector)+uint64(s))
	}

	decryptLen := completeSectors * int(sectorSize)
	offsetInBuf := int(off - alignedStart)
	available := decryptLen - offsetInBuf
	if available <= 0 {
		return 0, io.EOF
	}
	toCopy := len(p)
	if toCopy > available {
		toCopy = available
	}
	copy(p[:toCopy], alignedBuf[offsetInBuf:offsetInBuf+toCopy])

	if off+int64(toCopy) >= x.size {
		return toCopy, io.EOF
	}
	if toCopy < len(p) {
		return toCopy, io.ErrUnexpectedEOF
	}
	return toCopy, nil
}

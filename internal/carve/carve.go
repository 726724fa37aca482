// Package carve scans the free blocks of an ext2 image for JPEG
// signatures and writes every complete start-to-end marker run out as a
// recovered file. It never consults inode block pointers or directory
// entries; recovery is purely signature driven.
package carve

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SuttArt/Dateiwiederherstellung/internal/device"
	"github.com/SuttArt/Dateiwiederherstellung/internal/ext2"
)

// JPEG markers: SOI opens an image, EOI closes it
var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

type state int

const (
	stateIdle state = iota
	stateAccumulating
)

// BlockSource yields data blocks with their allocation state, in
// increasing block number order.
type BlockSource interface {
	Next() (ext2.BlockInfo, bool)
}

// RecoveredFile describes one completed carve
type RecoveredFile struct {
	Group      uint32
	StartBlock uint64
	Path       string
	Size       int64
}

// Stats summarizes one carving pass
type Stats struct {
	FreeBlocks    uint64
	UsedBlocks    uint64
	DiscardedTail bool
}

// Carver reassembles JPEG files from a stream of free blocks. It holds
// at most one accumulating buffer; the buffer opens at a start marker
// and closes at the first end marker seen in a later block visit.
type Carver struct {
	dev    *device.Device
	outDir string

	state      state
	buf        []byte
	group      uint32
	startBlock uint64

	files []RecoveredFile
	stats Stats
}

// NewCarver returns a carver writing recovered files into outDir. The
// directory must exist.
func NewCarver(dev *device.Device, outDir string) *Carver {
	return &Carver{dev: dev, outDir: outDir}
}

// Run drains the block source. Used blocks are skipped; each free block
// is re-read from the device at block_number * block_size and fed to
// the marker state machine. A source exhausted while a buffer is still
// open discards that buffer: no partial file is ever written. Any read
// or write failure is terminal for the pass.
func (c *Carver) Run(src BlockSource) ([]RecoveredFile, Stats, error) {
	for {
		bi, ok := src.Next()
		if !ok {
			break
		}
		if bi.Used {
			c.stats.UsedBlocks++
			continue
		}
		c.stats.FreeBlocks++

		block, err := c.dev.ReadBlock(bi.Number)
		if err != nil {
			return c.files, c.stats, fmt.Errorf("failed to read free block %d: %w", bi.Number, err)
		}
		if err := c.scanBlock(bi.Group, bi.Number, block); err != nil {
			return c.files, c.stats, err
		}
	}

	if c.state == stateAccumulating {
		c.stats.DiscardedTail = true
		c.reset()
	}
	return c.files, c.stats, nil
}

// scanBlock advances the state machine by one free block. The start
// marker check runs first in every visit: a block holding both markers
// fires only the start branch, so a tiny image contained in a single
// block opens an accumulation that the same visit never closes.
func (c *Carver) scanBlock(group uint32, number uint64, block []byte) error {
	if p := bytes.Index(block, jpegStart); p >= 0 {
		if c.state == stateIdle {
			c.state = stateAccumulating
			c.group = group
			c.startBlock = number
			c.buf = append(c.buf[:0], block[p:]...)
		} else {
			// A second start marker never resets a running buffer
			c.buf = append(c.buf, block...)
		}
		return nil
	}

	if c.state != stateAccumulating {
		return nil
	}

	if p := bytes.Index(block, jpegEnd); p >= 0 {
		c.buf = append(c.buf, block[:p+2]...)
		return c.flush()
	}

	c.buf = append(c.buf, block...)
	return nil
}

// flush writes the accumulated buffer as one recovered file, named
// after the group and starting block it was carved from.
func (c *Carver) flush() error {
	name := fmt.Sprintf("recovered_%d_%d.jpg", c.group, c.startBlock)
	path := filepath.Join(c.outDir, name)
	if err := os.WriteFile(path, c.buf, 0o644); err != nil {
		return fmt.Errorf("failed to write recovered file: %w", err)
	}

	c.files = append(c.files, RecoveredFile{
		Group:      c.group,
		StartBlock: c.startBlock,
		Path:       path,
		Size:       int64(len(c.buf)),
	})
	c.reset()
	return nil
}

func (c *Carver) reset() {
	c.state = stateIdle
	c.buf = c.buf[:0]
}

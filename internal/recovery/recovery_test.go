package recovery

import (
	"compress/gzip"
	"crypto/aes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/xts"

	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
	"github.com/SuttArt/Dateiwiederherstellung/internal/report"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(logger.LoggerConfig{LogFormat: "json"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testBlockSize = 1024

// buildImage assembles a one-group ext2 image holding a single deleted
// JPEG spread over free blocks 7, 9 and 10. Block 8 sits in the middle
// but is allocated, so the carver has to bridge it. All remaining
// bitmap bits are set to keep the scan inside the 16-block image.
func buildImage() []byte {
	img := make([]byte, 16*testBlockSize)

	// Superblock: 64 blocks of 1024 bytes, one group, 8 inodes
	sb := img[1024:]
	binary.LittleEndian.PutUint32(sb[0:], 8)   // inodes count
	binary.LittleEndian.PutUint32(sb[4:], 64)  // blocks count
	binary.LittleEndian.PutUint32(sb[24:], 0)  // log block size
	binary.LittleEndian.PutUint32(sb[32:], 64) // blocks per group
	binary.LittleEndian.PutUint32(sb[40:], 8)  // inodes per group
	binary.LittleEndian.PutUint16(sb[56:], 0xEF53)
	binary.LittleEndian.PutUint32(sb[76:], 0) // revision

	// Group descriptor: block bitmap 3, inode bitmap 4, inode table 5.
	// The metadata boundary works out to block 6.
	gd := img[2048:]
	binary.LittleEndian.PutUint32(gd[0:], 3)
	binary.LittleEndian.PutUint32(gd[4:], 4)
	binary.LittleEndian.PutUint32(gd[8:], 5)

	// Block bitmap: only blocks 7, 9 and 10 are free
	bm := img[3*testBlockSize:]
	bm[0] = 0xBF // bit 6 clear: block 7
	bm[1] = 0xFC // bits 0 and 1 clear: blocks 9 and 10
	for i := 2; i < 8; i++ {
		bm[i] = 0xFF
	}

	// Two in-use inodes; the remaining slots keep mode zero
	table := img[5*testBlockSize:]
	binary.LittleEndian.PutUint16(table[0:], 0x81A4)
	binary.LittleEndian.PutUint32(table[4:], 2050)
	binary.LittleEndian.PutUint16(table[128:], 0x41ED)

	// Block 7: junk prefix, then the start marker
	b7 := img[7*testBlockSize : 8*testBlockSize]
	b7[0], b7[1] = 0x01, 0x02
	b7[2], b7[3] = 0xFF, 0xD8
	for i := 4; i < testBlockSize; i++ {
		b7[i] = 0x11
	}

	// Block 8 is allocated; its end marker must never be read
	b8 := img[8*testBlockSize : 9*testBlockSize]
	b8[0], b8[1] = 0xFF, 0xD9

	// Block 9: plain payload
	b9 := img[9*testBlockSize : 10*testBlockSize]
	for i := range b9 {
		b9[i] = 0x22
	}

	// Block 10: payload, end marker, then junk
	b10 := img[10*testBlockSize : 11*testBlockSize]
	b10[0], b10[1], b10[2], b10[3] = 0x33, 0x44, 0xFF, 0xD9
	for i := 4; i < testBlockSize; i++ {
		b10[i] = 0x55
	}

	return img
}

// wantJPEG is the byte-exact expected carve: block 7 from the start
// marker, all of block 9, block 10 through the end marker.
func wantJPEG(img []byte) []byte {
	want := append([]byte{}, img[7*testBlockSize+2:8*testBlockSize]...)
	want = append(want, img[9*testBlockSize:10*testBlockSize]...)
	want = append(want, img[10*testBlockSize:10*testBlockSize+4]...)
	return want
}

func writeImage(t *testing.T, img []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "small.img")
	require.NoError(t, os.WriteFile(path, img, 0o644))
	return path
}

func TestRecoverEndToEnd(t *testing.T) {
	img := buildImage()
	imgPath := writeImage(t, img)
	outDir := filepath.Join(t.TempDir(), "restored")

	summary, err := Run(Options{
		Image:          imgPath,
		OutputDir:      outDir,
		ManifestFormat: report.FormatJSON,
	})
	require.NoError(t, err)

	require.Len(t, summary.Files, 1)
	f := summary.Files[0]
	assert.Equal(t, uint32(1), f.Group)
	assert.Equal(t, uint64(7), f.StartBlock)
	assert.Equal(t, "recovered_1_7.jpg", filepath.Base(f.Path))

	got, err := os.ReadFile(filepath.Join(outDir, "recovered_1_7.jpg"))
	require.NoError(t, err)
	assert.Equal(t, wantJPEG(img), got)

	// Counters 7 through 64 are visited; only 7, 9 and 10 are free
	assert.Equal(t, uint64(3), summary.Stats.FreeBlocks)
	assert.Equal(t, uint64(55), summary.Stats.UsedBlocks)
	assert.False(t, summary.Stats.DiscardedTail)

	// Manifest carries the file with its digests
	require.NotEmpty(t, summary.ManifestPath)
	data, err := os.ReadFile(summary.ManifestPath)
	require.NoError(t, err)

	var m report.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	require.Len(t, m.Files, 1)
	assert.Equal(t, "recovered_1_7.jpg", m.Files[0].Name)
	assert.Equal(t, int64(len(wantJPEG(img))), m.Files[0].Size)
	assert.Len(t, m.Files[0].SHA256, 64)
}

func TestRecoverDeterministic(t *testing.T) {
	img := buildImage()
	imgPath := writeImage(t, img)

	var contents [][]byte
	for i := 0; i < 2; i++ {
		outDir := filepath.Join(t.TempDir(), "restored")
		summary, err := Run(Options{
			Image:          imgPath,
			OutputDir:      outDir,
			ManifestFormat: report.FormatNone,
		})
		require.NoError(t, err)
		require.Len(t, summary.Files, 1)

		data, err := os.ReadFile(summary.Files[0].Path)
		require.NoError(t, err)
		contents = append(contents, data)
	}

	assert.Equal(t, contents[0], contents[1])
}

func TestRecoverFromGzippedImage(t *testing.T) {
	img := buildImage()
	path := filepath.Join(t.TempDir(), "small.img.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(img)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	outDir := filepath.Join(t.TempDir(), "restored")
	summary, err := Run(Options{
		Image:          path,
		OutputDir:      outDir,
		ManifestFormat: report.FormatNone,
	})
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)

	got, err := os.ReadFile(summary.Files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, wantJPEG(img), got)
}

func TestRecoverFromEncryptedImage(t *testing.T) {
	img := buildImage()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i*11 + 3)
	}
	cipher, err := xts.NewCipher(aes.NewCipher, key)
	require.NoError(t, err)

	const sectorSize = 512
	enc := make([]byte, len(img))
	for s := 0; s < len(img)/sectorSize; s++ {
		off := s * sectorSize
		cipher.Encrypt(enc[off:off+sectorSize], img[off:off+sectorSize], uint64(s))
	}

	dir := t.TempDir()
	imgPath := filepath.Join(dir, "small.img")
	keyPath := filepath.Join(dir, "image.key")
	require.NoError(t, os.WriteFile(imgPath, enc, 0o644))
	require.NoError(t, os.WriteFile(keyPath, key, 0o600))

	outDir := filepath.Join(dir, "restored")
	summary, err := Run(Options{
		Image:          imgPath,
		OutputDir:      outDir,
		ManifestFormat: report.FormatNone,
		KeyFile:        keyPath,
		SectorSize:     sectorSize,
	})
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)

	got, err := os.ReadFile(summary.Files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, wantJPEG(img), got)
}

func TestInspectWritesReports(t *testing.T) {
	img := buildImage()
	imgPath := writeImage(t, img)
	dir := filepath.Join(t.TempDir(), "reports")

	require.NoError(t, Inspect(imgPath, "", 0, dir))

	for _, name := range []string{report.SuperblockReport, report.GroupDescReport, report.InodeReport} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	sb, err := os.ReadFile(filepath.Join(dir, report.SuperblockReport))
	require.NoError(t, err)
	assert.Contains(t, string(sb), "block size:       1024")
}

func TestRecoverMissingImage(t *testing.T) {
	_, err := Run(Options{
		Image:          filepath.Join(t.TempDir(), "absent.img"),
		OutputDir:      t.TempDir(),
		ManifestFormat: report.FormatNone,
	})
	require.Error(t, err)
}

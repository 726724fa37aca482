package device

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

func fixtureImage() []byte {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 253)
	}
	return data
}

func writeGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := gzip.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeBzip2(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w, err := bzip2.NewWriter(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeXz(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenCompressedImages(t *testing.T) {
	data := fixtureImage()
	dir := t.TempDir()

	tests := []struct {
		name  string
		write func(*testing.T, string, []byte)
	}{
		{"image.img.gz", writeGzip},
		{"image.img.bz2", writeBzip2},
		{"image.img.xz", writeXz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			tt.write(t, path, data)

			d, err := Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if d.tempPath == "" {
				t.Error("expected a temporary decompressed copy")
			}
			tempPath := d.tempPath

			if d.Size() != int64(len(data)) {
				t.Errorf("Size = %d; want %d", d.Size(), len(data))
			}
			got, err := d.ReadRange(0, len(data))
			if err != nil {
				t.Fatalf("ReadRange failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("decompressed data does not match original")
			}

			if err := d.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
			if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
				t.Errorf("temporary file %s not removed on close", tempPath)
			}
		})
	}
}

func TestOpenPlainImageHasNoTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	if err := os.WriteFile(path, fixtureImage(), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if d.tempPath != "" {
		t.Error("plain image should not create a temporary copy")
	}
}

func TestIsCompressed(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"disk.img", false},
		{"disk.img.gz", true},
		{"disk.img.BZ2", true},
		{"disk.img.xz", true},
		{"disk.tar", false},
	}
	for _, tt := range tests {
		if got := isCompressed(tt.path); got != tt.expected {
			t.Errorf("isCompressed(%q) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

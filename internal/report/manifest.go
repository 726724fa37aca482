// Package report renders the results of a recovery run: a machine
// readable manifest of the recovered files and human readable text
// dumps of the filesystem metadata.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"howett.net/plist"

	"github.com/SuttArt/Dateiwiederherstellung/internal/carve"
	"github.com/SuttArt/Dateiwiederherstellung/internal/fsutil"
	"github.com/SuttArt/Dateiwiederherstellung/internal/hashutil"
)

// Supported manifest formats
const (
	FormatJSON  = "json"
	FormatPlist = "plist"
	FormatNone  = "none"
)

// ManifestEntry describes one recovered file
type ManifestEntry struct {
	Name       string `json:"name" plist:"name"`
	Group      uint32 `json:"group" plist:"group"`
	StartBlock uint64 `json:"start_block" plist:"start_block"`
	Size       int64  `json:"size" plist:"size"`
	MD5        string `json:"md5" plist:"md5"`
	SHA1       string `json:"sha1" plist:"sha1"`
	SHA256     string `json:"sha256" plist:"sha256"`
}

// Manifest lists every file carved out of one image
type Manifest struct {
	Image       string          `json:"image" plist:"image"`
	GeneratedAt time.Time       `json:"generated_at" plist:"generated_at"`
	Files       []ManifestEntry `json:"files" plist:"files"`
}

// BuildManifest hashes the recovered files and assembles the manifest
func BuildManifest(image string, files []carve.RecoveredFile) (*Manifest, error) {
	m := &Manifest{
		Image:       image,
		GeneratedAt: time.Now().UTC(),
		Files:       make([]ManifestEntry, 0, len(files)),
	}

	for _, f := range files {
		hashes, err := hashutil.ComputeFileHashes(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to hash recovered file: %w", err)
		}
		m.Files = append(m.Files, ManifestEntry{
			Name:       filepath.Base(f.Path),
			Group:      f.Group,
			StartBlock: f.StartBlock,
			Size:       f.Size,
			MD5:        hashes.MD5,
			SHA1:       hashes.SHA1,
			SHA256:     hashes.SHA256,
		})
	}

	return m, nil
}

// WriteJSON writes the manifest to path with indentation
func (m *Manifest) WriteJSON(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return fsutil.WriteFile(path, data, 0o644)
}

// WritePlist writes the manifest to path as an XML property list
func (m *Manifest) WritePlist(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer file.Close()

	encoder := plist.NewEncoderForFormat(file, plist.XMLFormat)
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// WriteManifest writes the manifest into dir in the requested format
// and returns the written path. FormatNone writes nothing.
func WriteManifest(m *Manifest, dir, format string) (string, error) {
	switch format {
	case FormatNone:
		return "", nil
	case FormatJSON:
		path := filepath.Join(dir, "manifest.json")
		return path, m.WriteJSON(path)
	case FormatPlist:
		path := filepath.Join(dir, "manifest.plist")
		return path, m.WritePlist(path)
	default:
		return "", fmt.Errorf("unknown manifest format '%s'", format)
	}
}

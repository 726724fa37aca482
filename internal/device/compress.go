package device

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// isCompressed reports whether the path carries a supported compressed
// image extension
func isCompressed(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".bz2", ".xz":
		return true
	}
	return false
}

// decompressToTemp extracts a compressed image into a temporary file and
// returns its path. The caller is responsible for removing the file.
func decompressToTemp(path string) (string, error) {
	tmp, err := os.CreateTemp("", "ext2recover-*.img")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	var extractErr error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		extractErr = extractGZIP(path, tmpPath)
	case ".bz2":
		extractErr = extractBZIP2(path, tmpPath)
	case ".xz":
		extractErr = extractXZ(path, tmpPath)
	default:
		extractErr = fmt.Errorf("unsupported compression format: %s", filepath.Ext(path))
	}

	if extractErr != nil {
		os.Remove(tmpPath)
		return "", extractErr
	}
	return tmpPath, nil
}

// extractGZIP decompresses a GZIP file
func extractGZIP(src, dst string) error {
	inputFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer inputFile.Close()

	gzipReader, err := gzip.NewReader(inputFile)
	if err != nil {
		return err
	}
	defer gzipReader.Close()

	outputFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer outputFile.Close()

	_, err = io.Copy(outputFile, gzipReader)
	if err != nil {
		return fmt.Errorf("failed to decompress file: %w", err)
	}

	return nil
}

// extractBZIP2 decompresses a BZIP2 file
func extractBZIP2(src, dst string) error {
	inputFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer inputFile.Close()

	bzip2Reader, err := bzip2.NewReader(inputFile, nil)
	if err != nil {
		return err
	}

	outputFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer outputFile.Close()

	_, err = io.Copy(outputFile, bzip2Reader)
	if err != nil {
		return fmt.Errorf("failed to decompress file: %w", err)
	}

	return nil
}

// extractXZ decompresses an XZ file
func extractXZ(src, dst string) error {
	inputFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer inputFile.Close()

	xzReader, err := xz.NewReader(inputFile)
	if err != nil {
		return err
	}

	outputFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer outputFile.Close()

	_, err = io.Copy(outputFile, xzReader)
	if err != nil {
		return fmt.Errorf("failed to decompress file: %w", err)
	}

	return nil
}

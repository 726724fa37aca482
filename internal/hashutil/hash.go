// Package hashutil provides hashing helpers for identifying recovered
// files, both for the manifest and for malware database lookups.
package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// Bytes2Hex encodes a byte slice to hex string
func Bytes2Hex(d []byte) string {
	return hex.EncodeToString(d)
}

// HashAlgorithm represents supported hash algorithms
type HashAlgorithm string

const (
	// MD5 algorithm (not recommended for security-critical applications)
	MD5 HashAlgorithm = "md5"

	// SHA1 algorithm (not recommended for security-critical applications)
	SHA1 HashAlgorithm = "sha1"

	// SHA256 algorithm
	SHA256 HashAlgorithm = "sha256"

	// SHA512 algorithm
	SHA512 HashAlgorithm = "sha512"
)

// Hasher provides an interface for hashing operations
type Hasher interface {
	// Hash hashes the provided data
	Hash(data []byte) (string, error)

	// HashFile hashes the content of a file
	HashFile(path string) (string, error)

	// HashReader hashes data from a reader
	HashReader(reader io.Reader) (string, error)

	// Verify checks if the provided hash matches the calculated hash for the data
	Verify(data []byte, expectedHash string) (bool, error)
}

// hasherImpl implements the Hasher interface
type hasherImpl struct {
	algorithm HashAlgorithm
	newHash   func() hash.Hash
}

// NewHasher creates a new Hasher for the specified algorithm
func NewHasher(algorithm HashAlgorithm) (Hasher, error) {
	var newHashFunc func() hash.Hash

	switch strings.ToLower(string(algorithm)) {
	case string(MD5):
		newHashFunc = md5.New
	case string(SHA1):
		newHashFunc = sha1.New
	case string(SHA256):
		newHashFunc = sha256.New
	case string(SHA512):
		newHashFunc = sha512.New
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedAlgorithm, algorithm)
	}

	return &hasherImpl{
		algorithm: algorithm,
		newHash:   newHashFunc,
	}, nil
}

// Hash hashes the provided data
func (h *hasherImpl) Hash(data []byte) (string, error) {
	hasher := h.newHash()
	if _, err := hasher.Write(data); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashFile hashes the content of a file
func (h *hasherImpl) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return h.HashReader(file)
}

// HashReader hashes data from a reader
func (h *hasherImpl) HashReader(reader io.Reader) (string, error) {
	hasher := h.newHash()
	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify checks if the provided hash matches the calculated hash for the data
func (h *hasherImpl) Verify(data []byte, expectedHash string) (bool, error) {
	actualHash, err := h.Hash(data)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(actualHash, expectedHash), nil
}

// FileHashes holds the three digests identifying one file
type FileHashes struct {
	MD5    string
	SHA1   string
	SHA256 string
}

// ComputeFileHashes calculates MD5, SHA1 and SHA256 digests of a file
// in a single pass over its content.
func ComputeFileHashes(path string) (*FileHashes, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	md5Hasher := md5.New()
	sha1Hasher := sha1.New()
	sha256Hasher := sha256.New()

	// Write to all hashers simultaneously
	multiWriter := io.MultiWriter(md5Hasher, sha1Hasher, sha256Hasher)
	if _, err := io.Copy(multiWriter, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &FileHashes{
		MD5:    Bytes2Hex(md5Hasher.Sum(nil)),
		SHA1:   Bytes2Hex(sha1Hasher.Sum(nil)),
		SHA256: Bytes2Hex(sha256Hasher.Sum(nil)),
	}, nil
}

package ext2

import (
	"errors"
	"fmt"
)

// Errors that can occur while decoding ext2 metadata
var (
	// Parsing errors
	ErrStructTooShort   = errors.New("data too short for structure")
	ErrInvalidMagic     = errors.New("invalid ext2 magic number")
	ErrInvalidBlockSize = errors.New("invalid block size")

	// Structure errors
	ErrInvalidSuperblock = errors.New("invalid superblock")
	ErrInvalidDescriptor = errors.New("invalid block group descriptor")
	ErrNoGroups          = errors.New("no valid block groups")
)

// FormatError represents an error with additional on-disk context
type FormatError struct {
	Err       error  // The underlying error
	Structure string // The structure being decoded (superblock, descriptor, inode)
	Offset    int64  // Byte offset in the image, -1 if not applicable
	Detail    string // Additional details about the error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	if e.Offset >= 0 && e.Detail != "" {
		return fmt.Sprintf("%s at offset %d [%s]: %v", e.Structure, e.Offset, e.Detail, e.Err)
	} else if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %v", e.Structure, e.Offset, e.Err)
	} else if e.Detail != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Structure, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Structure, e.Err)
}

// Unwrap returns the underlying error
func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError creates a new FormatError with the given details
func NewFormatError(err error, structure string, offset int64, detail string) error {
	return &FormatError{
		Err:       err,
		Structure: structure,
		Offset:    offset,
		Detail:    detail,
	}
}

// IsFormatError returns true if the error indicates malformed on-disk data
func IsFormatError(err error) bool {
	return errors.Is(err, ErrInvalidMagic) || errors.Is(err, ErrInvalidBlockSize) ||
		errors.Is(err, ErrInvalidSuperblock) || errors.Is(err, ErrInvalidDescriptor) ||
		errors.Is(err, ErrStructTooShort)
}

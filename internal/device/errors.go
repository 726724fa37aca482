package device

import (
	"errors"
	"fmt"
)

// Errors reported by the block device layer
var (
	ErrIO               = errors.New("I/O error")
	ErrShortRead        = errors.New("short read")
	ErrOutOfRange       = errors.New("offset beyond device bounds")
	ErrInvalidBlockSize = errors.New("invalid block size")
	ErrBlockSizeUnset   = errors.New("block size not configured")
	ErrInvalidKeySize   = errors.New("invalid encryption key size")
	ErrInvalidSector    = errors.New("invalid sector size")
)

// DeviceError carries the operation and target that produced an error
type DeviceError struct {
	Err       error  // The underlying error
	Operation string // The operation that caused the error
	Target    string // The offset, block or path the operation touched
	Detail    string // Additional details about the error
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Target != "" && e.Detail != "" {
		return fmt.Sprintf("%s: %s [%s]: %v", e.Operation, e.Target, e.Detail, e.Err)
	} else if e.Target != "" {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Target, e.Err)
	} else if e.Detail != "" {
		return fmt.Sprintf("%s: %v [%s]", e.Operation, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new DeviceError with the given details
func NewDeviceError(err error, operation string, target string, detail string) error {
	return &DeviceError{
		Err:       err,
		Operation: operation,
		Target:    target,
		Detail:    detail,
	}
}

// IsShortRead returns true if the error indicates fewer bytes than required
func IsShortRead(err error) bool {
	return errors.Is(err, ErrShortRead)
}

// IsOutOfRange returns true if the error indicates a seek beyond the device end
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

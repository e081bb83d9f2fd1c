package protocol

import (
	"errors"
	"fmt"
)

// ProtocolMismatchError reports a frame that does not match what the
// protocol expects at this point: wrong magic, wrong sequence number,
// or a buffer too short to hold the frame.
type ProtocolMismatchError struct {
	// Field is the offending part of the frame: "length", "magic" or "seq"
	Field string

	// Expected is the value the protocol requires
	Expected uint32

	// Actual is the value found in the frame
	Actual uint32
}

func (e *ProtocolMismatchError) Error() string {
	switch e.Field {
	case "length":
		return fmt.Sprintf("protocol mismatch: frame too short: got %d bytes, minimum is %d", e.Actual, e.Expected)
	case "seq":
		return fmt.Sprintf("protocol mismatch: non-matching sequence number %d (expected %d)", e.Actual, e.Expected)
	default:
		return fmt.Sprintf("protocol mismatch: invalid %s 0x%08X (expected 0x%08X)", e.Field, e.Actual, e.Expected)
	}
}

// IsProtocolMismatch returns true if err is or wraps a ProtocolMismatchError.
func IsProtocolMismatch(err error) bool {
	var pm *ProtocolMismatchError
	return errors.As(err, &pm)
}

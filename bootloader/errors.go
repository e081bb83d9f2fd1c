package bootloader

import (
	"errors"
	"fmt"
)

// StepError reports the step at which an upload failed.
// The cause is available through errors.As / errors.Is.
type StepError struct {
	// Step is the protocol action that failed
	Step Step

	// State is the state the uploader was in when the step failed
	State State

	// Seq is the sequence number of the command being processed
	Seq uint32

	// Err is the underlying cause
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (state %s, seq %d): %v", e.Step, e.State, e.Seq, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TransferSizeMismatchError indicates that a bulk transfer moved a
// different number of bytes than the call required.
type TransferSizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *TransferSizeMismatchError) Error() string {
	return fmt.Sprintf("transfer size mismatch: transferred %d bytes, expected %d", e.Actual, e.Expected)
}

// IsTransferSizeMismatch returns true if err is or wraps a TransferSizeMismatchError.
func IsTransferSizeMismatch(err error) bool {
	var tm *TransferSizeMismatchError
	return errors.As(err, &tm)
}

// StatusWarning records a status frame that carried a nonzero status.
// Warnings are logged and collected in Result; they never fail the upload.
type StatusWarning struct {
	Step   Step
	Seq    uint32
	Status uint32
}

func (w StatusWarning) String() string {
	return fmt.Sprintf("%s: seq %d returned nonzero status %d", w.Step, w.Seq, w.Status)
}

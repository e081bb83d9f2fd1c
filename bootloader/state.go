package bootloader

import "fmt"

// State is a position in the upload state machine.
//
//	Init → FirstAckRead → SecondAckValidated → Uploading → Finalized → Done
//
// Failed is reachable from every non-terminal state.
type State int

const (
	// StateInit is the state before INIT is sent
	StateInit State = iota

	// StateFirstAckRead means the irregular first INIT reply was consumed
	StateFirstAckRead

	// StateSecondAckValidated means the INIT status frame matched seq 1
	StateSecondAckValidated

	// StateUploading covers every WRITE command and its payload
	StateUploading

	// StateFinalized means FINALIZE was acknowledged
	StateFinalized

	// StateDone is the terminal success state
	StateDone

	// StateFailed is the terminal failure state; nothing is sent after it
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFirstAckRead:
		return "first-ack-read"
	case StateSecondAckValidated:
		return "second-ack-validated"
	case StateUploading:
		return "uploading"
	case StateFinalized:
		return "finalized"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Step names the protocol action that was running when an error occurred.
type Step string

const (
	// StepSendInit writes the INIT command frame
	StepSendInit Step = "send init"

	// StepReadFirstReply reads the unvalidated first reply to INIT
	StepReadFirstReply Step = "read first reply"

	// StepReadInitReply reads and validates the INIT status frame
	StepReadInitReply Step = "read init reply"

	// StepReadPage pulls the next page from the firmware source
	StepReadPage Step = "read firmware page"

	// StepSendWrite writes a WRITE command frame
	StepSendWrite Step = "send write"

	// StepSendPayload writes one payload chunk of a page
	StepSendPayload Step = "send payload"

	// StepReadWriteReply reads and validates the status frame of a WRITE
	StepReadWriteReply Step = "read write reply"

	// StepSendFinalize writes the FINALIZE command frame
	StepSendFinalize Step = "send finalize"

	// StepReadFinalizeReply reads and validates the FINALIZE status frame
	StepReadFinalizeReply Step = "read finalize reply"
)

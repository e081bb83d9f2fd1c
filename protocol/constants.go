package protocol

// Frame magic numbers.
const (
	// CommandMagic starts every command frame sent to the bootloader
	CommandMagic uint32 = 0x06022009

	// StatusMagic starts every status frame returned by the bootloader
	StatusMagic uint32 = 0x0A6FE000
)

// Frame sizes in bytes.
const (
	// CommandFrameSize is the encoded size of a command frame:
	// MAGIC(4) + SEQ(4) + LENGTH(4) + CMD(4) + ADDRESS(4) + RESERVED(4)
	CommandFrameSize = 24

	// StatusFrameSize is the encoded size of a status frame:
	// MAGIC(4) + SEQ(4) + STATUS(4)
	StatusFrameSize = 12
)

// Command opcodes.
const (
	// OpInit opens a session and announces host capabilities
	OpInit Opcode = 0x00

	// OpWrite writes the payload that follows the frame at Address
	OpWrite Opcode = 0x03

	// OpFinalize completes the upload; the device re-enumerates afterwards
	OpFinalize Opcode = 0x04
)

// Status codes.
const (
	// StatusSuccess is returned when the device accepted the command.
	// Any other value is reported as a warning and does not fail the session.
	StatusSuccess uint32 = 0x00
)

// Fixed frame arguments.
const (
	// InitLength is the length field sent with the INIT command
	InitLength uint32 = 0x60

	// InitAddress is the capability code sent in the address field of INIT
	InitAddress uint32 = 0x15

	// BaseAddress is the device address the first WRITE targets
	BaseAddress uint32 = 0x00080000

	// FinalizeAddress is the completion address sent with FINALIZE
	FinalizeAddress uint32 = 0x00080030
)

// Transfer sizing.
const (
	// PageSize is the maximum payload carried by a single WRITE command (16 KiB)
	PageSize = 0x4000

	// MaxTransferSize is the largest bulk OUT transfer used for payload bytes
	MaxTransferSize = 512

	// ReceiveBufferSize is the minimum bulk IN buffer size.
	// The device requires reads sized to its max packet even though
	// status frames are only StatusFrameSize bytes long.
	ReceiveBufferSize = 512
)

package protocol

import "fmt"

// Opcode identifies a bootloader command.
type Opcode uint32

// String returns the protocol name of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpInit:
		return "INIT"
	case OpWrite:
		return "WRITE"
	case OpFinalize:
		return "FINALIZE"
	default:
		return fmt.Sprintf("OPCODE(0x%02X)", uint32(o))
	}
}

// CommandFrame is the 24-byte header the host sends before every command.
// All fields travel as little-endian 32-bit words.
type CommandFrame struct {
	// Magic is always CommandMagic
	Magic uint32

	// Seq is the session sequence number of this command
	Seq uint32

	// Length is the payload byte count that follows the frame.
	// For INIT it carries InitLength; FINALIZE uses 0.
	Length uint32

	// Cmd is the opcode
	Cmd Opcode

	// Address depends on the opcode: capability code for INIT,
	// write offset for WRITE, completion address for FINALIZE.
	Address uint32

	// Reserved is always 0
	Reserved uint32
}

func (c CommandFrame) String() string {
	return fmt.Sprintf("%s seq=%d length=%d address=0x%08X", c.Cmd, c.Seq, c.Length, c.Address)
}

// StatusFrame is the 12-byte reply the device returns after each command.
type StatusFrame struct {
	// Magic must equal StatusMagic
	Magic uint32

	// Seq echoes the sequence number of the answered command
	Seq uint32

	// Status is StatusSuccess or a non-fatal warning code
	Status uint32
}

func (s StatusFrame) String() string {
	return fmt.Sprintf("magic=0x%08X seq=%d status=%d", s.Magic, s.Seq, s.Status)
}

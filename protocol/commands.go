package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildInitCmd constructs the INIT command that opens a session.
//
// Frame structure:
//
//	[MAGIC][SEQ][0x60][0x00][0x15][0]
func BuildInitCmd(seq uint32) CommandFrame {
	return CommandFrame{
		Magic:   CommandMagic,
		Seq:     seq,
		Length:  InitLength,
		Cmd:     OpInit,
		Address: InitAddress,
	}
}

// BuildWriteCmd constructs a WRITE command announcing length payload bytes
// destined for address. The payload itself is sent separately.
//
// Frame structure:
//
//	[MAGIC][SEQ][LENGTH][0x03][ADDRESS][0]
func BuildWriteCmd(seq, length, address uint32) CommandFrame {
	return CommandFrame{
		Magic:   CommandMagic,
		Seq:     seq,
		Length:  length,
		Cmd:     OpWrite,
		Address: address,
	}
}

// BuildFinalizeCmd constructs the FINALIZE command that ends the upload.
//
// Frame structure:
//
//	[MAGIC][SEQ][0][0x04][0x00080030][0]
func BuildFinalizeCmd(seq uint32) CommandFrame {
	return CommandFrame{
		Magic:   CommandMagic,
		Seq:     seq,
		Cmd:     OpFinalize,
		Address: FinalizeAddress,
	}
}

// EncodeCommand serializes a command frame into its 24-byte wire form.
// Every field is written little-endian independent of host byte order.
func EncodeCommand(c CommandFrame) [CommandFrameSize]byte {
	var buf [CommandFrameSize]byte
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], c.Magic)
	le.PutUint32(buf[4:8], c.Seq)
	le.PutUint32(buf[8:12], c.Length)
	le.PutUint32(buf[12:16], uint32(c.Cmd))
	le.PutUint32(buf[16:20], c.Address)
	le.PutUint32(buf[20:24], c.Reserved)
	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c CommandFrame) MarshalBinary() ([]byte, error) {
	buf := EncodeCommand(c)
	return buf[:], nil
}

// DecodeCommand extracts a command frame from the first CommandFrameSize
// bytes of buf. It is the device-side counterpart of EncodeCommand.
func DecodeCommand(buf []byte) (CommandFrame, error) {
	if len(buf) < CommandFrameSize {
		return CommandFrame{}, &ProtocolMismatchError{
			Field:    "length",
			Expected: CommandFrameSize,
			Actual:   uint32(len(buf)),
		}
	}

	le := binary.LittleEndian
	c := CommandFrame{
		Magic:    le.Uint32(buf[0:4]),
		Seq:      le.Uint32(buf[4:8]),
		Length:   le.Uint32(buf[8:12]),
		Cmd:      Opcode(le.Uint32(buf[12:16])),
		Address:  le.Uint32(buf[16:20]),
		Reserved: le.Uint32(buf[20:24]),
	}
	if c.Magic != CommandMagic {
		return CommandFrame{}, &ProtocolMismatchError{
			Field:    "magic",
			Expected: CommandMagic,
			Actual:   c.Magic,
		}
	}

	return c, nil
}

// HexDump formats raw frame bytes as space separated hex pairs.
func HexDump(b []byte) string {
	return fmt.Sprintf("% X", b)
}

package protocol

import "encoding/binary"

// DecodeStatus extracts a status frame from a receive buffer.
//
// The buffer may be larger than StatusFrameSize (reads are issued with
// ReceiveBufferSize capacity); only the first StatusFrameSize bytes are
// interpreted. Magic is checked here. Sequence and status semantics are
// left to the caller, who knows which command is being answered.
//
// Response frame structure:
//
//	[MAGIC(4)][SEQ(4)][STATUS(4)]
func DecodeStatus(buf []byte) (StatusFrame, error) {
	if len(buf) < StatusFrameSize {
		return StatusFrame{}, &ProtocolMismatchError{
			Field:    "length",
			Expected: StatusFrameSize,
			Actual:   uint32(len(buf)),
		}
	}

	le := binary.LittleEndian
	s := StatusFrame{
		Magic:  le.Uint32(buf[0:4]),
		Seq:    le.Uint32(buf[4:8]),
		Status: le.Uint32(buf[8:12]),
	}
	if s.Magic != StatusMagic {
		return StatusFrame{}, &ProtocolMismatchError{
			Field:    "magic",
			Expected: StatusMagic,
			Actual:   s.Magic,
		}
	}

	return s, nil
}

// EncodeStatus serializes a status frame into its 12-byte wire form.
func EncodeStatus(s StatusFrame) [StatusFrameSize]byte {
	var buf [StatusFrameSize]byte
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], s.Magic)
	le.PutUint32(buf[4:8], s.Seq)
	le.PutUint32(buf[8:12], s.Status)
	return buf
}

// NewStatus returns a status frame with the correct magic for seq.
func NewStatus(seq, status uint32) StatusFrame {
	return StatusFrame{Magic: StatusMagic, Seq: seq, Status: status}
}

// Package protocol implements the wire format of the Kinect (045E:02AD)
// USB bootloader.
//
// The bootloader exchanges two fixed-size frames over a pair of bulk
// endpoints. Every field is a 32-bit little-endian word:
//
//	Command (host → device, 24 bytes):
//	  [MAGIC 0x06022009][SEQ][LENGTH][CMD][ADDRESS][RESERVED]
//
//	Status (device → host, 12 bytes):
//	  [MAGIC 0x0A6FE000][SEQ][STATUS]
//
// Three opcodes are used: INIT (0), WRITE (3) and FINALIZE (4). A WRITE
// frame is followed by LENGTH raw payload bytes.
//
// # Command Builders
//
//	frame := protocol.BuildWriteCmd(seq, uint32(len(page)), addr)
//	raw := protocol.EncodeCommand(frame)
//
// # Status Parsing
//
// DecodeStatus accepts the whole receive buffer and interprets only its
// first 12 bytes:
//
//	buf := make([]byte, protocol.ReceiveBufferSize)
//	n, _ := dev.Read(buf)
//	status, err := protocol.DecodeStatus(buf[:n])
//
// Frames with the wrong magic or too few bytes are reported as
// *ProtocolMismatchError. Checking the sequence number against the
// answered command is the caller's job.
package protocol

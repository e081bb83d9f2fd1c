// Package simdev simulates the Kinect USB bootloader on the device side of
// the bulk endpoints. It is used by tests and by dry runs.
package simdev

import (
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-kinectfw/protocol"
)

// FirstReplySize is the length of the irregular first INIT reply.
const FirstReplySize = 0x60

// ErrNoReply is returned by Read when the host reads without a pending reply.
// A real device would block forever.
var ErrNoReply = errors.New("simdev: no reply pending")

// Faults injects misbehavior into replies, keyed by sequence number.
type Faults struct {
	// Status returns a nonzero status for the listed sequence numbers
	Status map[uint32]uint32

	// BadMagic corrupts the status magic of the reply for these sequence numbers
	BadMagic map[uint32]bool

	// WrongSeq makes the reply for these sequence numbers echo seq+1
	WrongSeq map[uint32]bool
}

// Device is a simulated bootloader. It implements io.ReadWriter where each
// Write is one bulk OUT transfer and each Read one bulk IN transfer.
type Device struct {
	mu sync.Mutex

	faults  Faults
	nextSeq uint32

	pending   uint32 // payload bytes still expected for the current WRITE
	current   protocol.CommandFrame
	replies   [][]byte
	commands  []protocol.CommandFrame
	transfers []int
	memory    map[uint32][]byte
	finalized bool
}

// New returns a simulated device waiting for INIT.
func New() *Device {
	return NewWithFaults(Faults{})
}

// NewWithFaults returns a simulated device that injects faults.
func NewWithFaults(f Faults) *Device {
	return &Device{
		faults:  f,
		nextSeq: 1,
		memory:  make(map[uint32][]byte),
	}
}

// Write accepts a command frame or a chunk of WRITE payload.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		return 0, errors.New("simdev: device re-enumerated after finalize")
	}

	d.transfers = append(d.transfers, len(p))

	if d.pending > 0 {
		return d.payload(p)
	}
	return d.command(p)
}

func (d *Device) command(p []byte) (int, error) {
	if len(p) != protocol.CommandFrameSize {
		return 0, fmt.Errorf("simdev: command frame of %d bytes, expected %d", len(p), protocol.CommandFrameSize)
	}
	cmd, err := protocol.DecodeCommand(p)
	if err != nil {
		return 0, fmt.Errorf("simdev: %w", err)
	}
	if cmd.Seq != d.nextSeq {
		return 0, fmt.Errorf("simdev: command seq %d, expected %d", cmd.Seq, d.nextSeq)
	}
	if cmd.Reserved != 0 {
		return 0, fmt.Errorf("simdev: reserved field 0x%08X", cmd.Reserved)
	}

	d.commands = append(d.commands, cmd)
	d.current = cmd
	d.nextSeq++

	switch cmd.Cmd {
	case protocol.OpInit:
		if cmd.Seq != 1 {
			return 0, fmt.Errorf("simdev: INIT with seq %d", cmd.Seq)
		}
		first := make([]byte, FirstReplySize)
		for i := range first {
			first[i] = byte(i)
		}
		d.replies = append(d.replies, first)
		d.reply(cmd.Seq)
	case protocol.OpWrite:
		if cmd.Length == 0 || cmd.Length > protocol.PageSize {
			return 0, fmt.Errorf("simdev: WRITE length %d", cmd.Length)
		}
		d.pending = cmd.Length
	case protocol.OpFinalize:
		if cmd.Address != protocol.FinalizeAddress {
			return 0, fmt.Errorf("simdev: FINALIZE address 0x%08X", cmd.Address)
		}
		d.reply(cmd.Seq)
		d.finalized = true
	default:
		return 0, fmt.Errorf("simdev: unknown %s", cmd.Cmd)
	}

	return len(p), nil
}

func (d *Device) payload(p []byte) (int, error) {
	if len(p) > protocol.MaxTransferSize {
		return 0, fmt.Errorf("simdev: payload transfer of %d bytes exceeds %d", len(p), protocol.MaxTransferSize)
	}
	if uint32(len(p)) > d.pending {
		return 0, fmt.Errorf("simdev: payload overrun: got %d bytes, %d pending", len(p), d.pending)
	}

	d.memory[d.current.Address] = append(d.memory[d.current.Address], p...)
	d.pending -= uint32(len(p))
	if d.pending == 0 {
		d.reply(d.current.Seq)
	}
	return len(p), nil
}

func (d *Device) reply(seq uint32) {
	s := protocol.NewStatus(seq, d.faults.Status[seq])
	if d.faults.WrongSeq[seq] {
		s.Seq++
	}
	if d.faults.BadMagic[seq] {
		s.Magic ^= 0xFFFFFFFF
	}
	raw := protocol.EncodeStatus(s)
	d.replies = append(d.replies, raw[:])
}

// Read returns the oldest pending reply.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.replies) == 0 {
		return 0, ErrNoReply
	}
	r := d.replies[0]
	d.replies = d.replies[1:]
	return copy(p, r), nil
}

// Commands returns every command frame accepted so far.
func (d *Device) Commands() []protocol.CommandFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.CommandFrame(nil), d.commands...)
}

// Transfers returns the size of every bulk OUT transfer, frames included.
func (d *Device) Transfers() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.transfers...)
}

// Image reassembles the written memory starting at protocol.BaseAddress.
// Gaps are an error.
func (d *Device) Image() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var img []byte
	addr := protocol.BaseAddress
	for range d.memory {
		chunk, ok := d.memory[addr]
		if !ok {
			return nil, fmt.Errorf("simdev: no data written at 0x%08X", addr)
		}
		img = append(img, chunk...)
		addr += uint32(len(chunk))
	}
	return img, nil
}

// Finalized reports whether FINALIZE was received.
func (d *Device) Finalized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finalized
}

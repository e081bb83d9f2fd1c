package bootloader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-kinectfw/firmware"
	"github.com/moffa90/go-kinectfw/protocol"
)

// Uploader drives the bootloader through one firmware upload session.
// It owns the sequence counter and the address cursor.
//
// An Uploader must have exclusive use of its device and is not safe for
// concurrent use.
type Uploader struct {
	device io.ReadWriter
	config Config

	state State
	seq   uint32
	addr  uint32
	rx    []byte

	start  time.Time
	total  int64
	result Result
}

// Result summarizes a completed upload.
type Result struct {
	// Commands is the number of command frames sent, INIT and FINALIZE included
	Commands int

	// Pages is the number of WRITE commands sent
	Pages int

	// BytesWritten is the total firmware payload delivered
	BytesWritten int64

	// FinalSequence is the sequence counter after FINALIZE was acknowledged
	FinalSequence uint32

	// EndAddress is the address cursor after the last WRITE
	EndAddress uint32

	// Warnings lists the status frames that carried a nonzero status
	Warnings []StatusWarning

	// Elapsed is the duration of the whole session
	Elapsed time.Duration
}

// New creates a new Uploader with the given device and options.
// The device must implement io.ReadWriter: Write performs one bulk OUT
// transfer and Read one bulk IN transfer, each reporting the bytes moved.
//
// Example:
//
//	dev, err := usb.Open(usb.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	up := bootloader.New(dev,
//	    bootloader.WithProgressCallback(progressFunc),
//	)
func New(device io.ReadWriter, opts ...Option) *Uploader {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Uploader{
		device: device,
		config: cfg,
		rx:     make([]byte, cfg.ReadBufferSize),
	}
}

// Upload performs the complete upload sequence:
//  1. Send INIT and read the two replies the device returns for it
//  2. Send every firmware page as a WRITE command followed by its payload
//  3. Send FINALIZE
//
// The first error stops the session: no retries are made and no further
// frames are sent. The returned error is a *StepError naming the failing
// step. Cancellation through ctx is honored between transfers only, never
// in the middle of one.
//
// Example:
//
//	fw, _ := firmware.Open("firmware.bin")
//	defer fw.Close()
//	res, err := up.Upload(context.Background(), fw)
func (u *Uploader) Upload(ctx context.Context, src firmware.Source) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("firmware source cannot be nil")
	}

	u.reset()
	if sized, ok := src.(interface{ Size() int64 }); ok {
		u.total = sized.Size()
	}

	u.reportProgress(PhaseHandshake)
	if err := u.handshake(ctx); err != nil {
		return nil, err
	}

	if err := u.uploadPages(ctx, src); err != nil {
		return nil, err
	}

	u.reportProgress(PhaseFinalizing)
	if err := u.finalize(ctx); err != nil {
		return nil, err
	}

	u.state = StateDone
	u.result.FinalSequence = u.seq
	u.result.EndAddress = u.addr
	u.result.Elapsed = time.Since(u.start)
	u.reportProgress(PhaseComplete)

	u.logInfo("upload complete",
		"pages", u.result.Pages,
		"bytes", u.result.BytesWritten,
		"warnings", len(u.result.Warnings),
		"elapsed", u.result.Elapsed.String(),
	)

	res := u.result
	return &res, nil
}

// State returns the current state of the upload state machine.
func (u *Uploader) State() State {
	return u.state
}

// Sequence returns the sequence number the next command will carry.
func (u *Uploader) Sequence() uint32 {
	return u.seq
}

// Address returns the device address the next WRITE will target.
func (u *Uploader) Address() uint32 {
	return u.addr
}

func (u *Uploader) reset() {
	u.state = StateInit
	u.seq = 0
	u.addr = 0
	u.total = 0
	u.result = Result{}
	u.start = time.Now()
}

// handshake sends INIT and consumes both of its replies.
// The first reply is irregular (about 96 bytes, no status magic) and is
// only logged. The second one is a regular status frame for seq 1.
func (u *Uploader) handshake(ctx context.Context) error {
	u.seq = 1
	if err := u.sendCommand(ctx, StepSendInit, protocol.BuildInitCmd(u.seq)); err != nil {
		return err
	}

	if err := u.readFirstReply(ctx); err != nil {
		return err
	}
	u.state = StateFirstAckRead

	if err := u.readStatus(ctx, StepReadInitReply); err != nil {
		return err
	}
	u.state = StateSecondAckValidated

	u.seq++
	u.addr = protocol.BaseAddress
	return nil
}

// uploadPages writes every page of src, one WRITE command per page.
func (u *Uploader) uploadPages(ctx context.Context, src firmware.Source) error {
	u.state = StateUploading
	u.reportProgress(PhaseUploading)

	for {
		if err := ctx.Err(); err != nil {
			return u.fail(StepReadPage, fmt.Errorf("cancelled: %w", err))
		}

		page, err := src.NextPage()
		if err != nil {
			return u.fail(StepReadPage, err)
		}
		if len(page) == 0 {
			return nil
		}
		if len(page) > protocol.PageSize {
			return u.fail(StepReadPage, fmt.Errorf("page of %d bytes exceeds maximum %d", len(page), protocol.PageSize))
		}

		cmd := protocol.BuildWriteCmd(u.seq, uint32(len(page)), u.addr)
		if err := u.sendCommand(ctx, StepSendWrite, cmd); err != nil {
			return err
		}
		if err := u.sendPayload(ctx, page); err != nil {
			return err
		}
		if err := u.readStatus(ctx, StepReadWriteReply); err != nil {
			return err
		}

		u.addr += uint32(len(page))
		u.seq++
		u.result.Pages++
		u.result.BytesWritten += int64(len(page))
		u.reportProgress(PhaseUploading)
	}
}

// finalize sends FINALIZE. After it is acknowledged the device
// re-enumerates on its own; that is not awaited.
func (u *Uploader) finalize(ctx context.Context) error {
	if err := u.sendCommand(ctx, StepSendFinalize, protocol.BuildFinalizeCmd(u.seq)); err != nil {
		return err
	}
	if err := u.readStatus(ctx, StepReadFinalizeReply); err != nil {
		return err
	}

	u.state = StateFinalized
	u.seq++
	return nil
}

// sendCommand encodes cmd and writes it in a single bulk OUT transfer.
func (u *Uploader) sendCommand(ctx context.Context, step Step, cmd protocol.CommandFrame) error {
	if err := ctx.Err(); err != nil {
		return u.fail(step, fmt.Errorf("cancelled: %w", err))
	}

	raw := protocol.EncodeCommand(cmd)
	u.logDebug("sending command",
		"cmd", cmd.Cmd.String(),
		"seq", cmd.Seq,
		"length", cmd.Length,
		"address", fmt.Sprintf("0x%08X", cmd.Address),
		"frame", protocol.HexDump(raw[:]),
	)

	if err := u.write(step, raw[:]); err != nil {
		return err
	}

	u.result.Commands++
	u.notifyFrame(FrameEvent{Direction: Sent, Command: cmd})
	return nil
}

// sendPayload writes page as consecutive bulk OUT transfers of at most
// ChunkSize bytes each, in order.
func (u *Uploader) sendPayload(ctx context.Context, page []byte) error {
	for off := 0; off < len(page); {
		if err := ctx.Err(); err != nil {
			return u.fail(StepSendPayload, fmt.Errorf("cancelled: %w", err))
		}

		n := min(u.config.ChunkSize, len(page)-off)
		if err := u.write(StepSendPayload, page[off:off+n]); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// readFirstReply consumes the irregular first reply to INIT without
// interpreting it.
func (u *Uploader) readFirstReply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return u.fail(StepReadFirstReply, fmt.Errorf("cancelled: %w", err))
	}

	n, err := u.device.Read(u.rx)
	if err != nil {
		return u.fail(StepReadFirstReply, err)
	}

	u.logDebug("read first reply",
		"bytes", n,
		"reply", protocol.HexDump(u.rx[:n]),
	)
	return nil
}

// readStatus reads one status frame and validates it against the current
// sequence number. A nonzero status is recorded as a warning.
func (u *Uploader) readStatus(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		return u.fail(step, fmt.Errorf("cancelled: %w", err))
	}

	n, err := u.device.Read(u.rx)
	if err != nil {
		return u.fail(step, err)
	}
	if n != protocol.StatusFrameSize {
		return u.fail(step, &TransferSizeMismatchError{Expected: protocol.StatusFrameSize, Actual: n})
	}

	status, err := protocol.DecodeStatus(u.rx[:n])
	if err != nil {
		return u.fail(step, err)
	}
	if status.Seq != u.seq {
		return u.fail(step, &protocol.ProtocolMismatchError{
			Field:    "seq",
			Expected: u.seq,
			Actual:   status.Seq,
		})
	}

	u.logDebug("read reply",
		"seq", status.Seq,
		"status", status.Status,
		"reply", protocol.HexDump(u.rx[:n]),
	)

	if status.Status != protocol.StatusSuccess {
		w := StatusWarning{Step: step, Seq: status.Seq, Status: status.Status}
		u.result.Warnings = append(u.result.Warnings, w)
		u.logInfo("nonzero reply status",
			"step", string(step),
			"seq", status.Seq,
			"status", status.Status,
		)
	}

	u.notifyFrame(FrameEvent{Direction: Received, Status: status})
	return nil
}

// write performs one bulk OUT transfer and checks that all of p was moved.
func (u *Uploader) write(step Step, p []byte) error {
	n, err := u.device.Write(p)
	if err != nil {
		return u.fail(step, err)
	}
	if n != len(p) {
		return u.fail(step, &TransferSizeMismatchError{Expected: len(p), Actual: n})
	}
	return nil
}

// fail moves the uploader to StateFailed and wraps err with the step.
func (u *Uploader) fail(step Step, err error) error {
	stepErr := &StepError{
		Step:  step,
		State: u.state,
		Seq:   u.seq,
		Err:   err,
	}
	u.state = StateFailed

	u.logError("upload failed",
		"step", string(step),
		"seq", u.seq,
		"address", fmt.Sprintf("0x%08X", u.addr),
		"error", err.Error(),
	)
	return stepErr
}

// reportProgress calls the progress callback if configured.
func (u *Uploader) reportProgress(phase string) {
	if u.config.ProgressCallback == nil {
		return
	}

	p := Progress{
		Phase:        phase,
		Page:         u.result.Pages,
		BytesWritten: u.result.BytesWritten,
		TotalBytes:   u.total,
		Sequence:     u.seq,
		Address:      u.addr,
		ElapsedTime:  time.Since(u.start),
	}
	if u.total > 0 {
		p.TotalPages = int((u.total + protocol.PageSize - 1) / protocol.PageSize)
		p.Percentage = float64(u.result.BytesWritten) / float64(u.total) * 100
	}
	if phase == PhaseComplete {
		p.Percentage = 100
	}

	u.config.ProgressCallback(p)
}

// notifyFrame calls the frame callback if configured.
func (u *Uploader) notifyFrame(ev FrameEvent) {
	if u.config.FrameCallback != nil {
		u.config.FrameCallback(ev)
	}
}

// logDebug logs a debug message if a logger is configured.
func (u *Uploader) logDebug(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (u *Uploader) logInfo(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (u *Uploader) logError(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Error(msg, keysAndValues...)
	}
}

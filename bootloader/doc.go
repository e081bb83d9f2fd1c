// Package bootloader uploads firmware to a Kinect sensor held in its USB
// bootloader.
//
// # Overview
//
// The Uploader runs one session as a small state machine:
//
//	Init → FirstAckRead → SecondAckValidated → Uploading → Finalized → Done
//
//   - INIT is sent with sequence number 1. The device answers twice: an
//     irregular reply that is only logged, then a regular status frame.
//   - Each firmware page (up to 16 KiB) is sent as a WRITE command
//     followed by its payload in bulk transfers of at most 512 bytes.
//     The target address starts at 0x00080000 and advances by the page
//     length.
//   - FINALIZE ends the session. The device then re-enumerates.
//
// Every command gets its own sequence number and every reply must echo it.
// The first failure moves the session to Failed; nothing is retried.
//
// # Basic Usage
//
//	dev, err := usb.Open(usb.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	fw, err := firmware.Open("firmware.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Close()
//
//	res, err := bootloader.New(dev).Upload(context.Background(), fw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("wrote %d bytes in %d pages\n", res.BytesWritten, res.Pages)
//
// # Progress Tracking
//
//	up := bootloader.New(dev,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% page %d/%d\n",
//	            p.Phase, p.Percentage, p.Page, p.TotalPages)
//	    }),
//	)
//
// # Error Handling
//
// Upload returns a *StepError carrying the failing step, the state and
// the sequence number. The cause is one of:
//   - TransferSizeMismatchError: a transfer moved fewer or more bytes than required
//   - protocol.ProtocolMismatchError: a reply had the wrong magic or sequence number
//   - the transport's own error
//
// A reply with a nonzero status is not an error. It is logged and
// recorded in Result.Warnings.
//
// # Hardware Independence
//
// The Uploader talks to an io.ReadWriter. Each Write must be one bulk OUT
// transfer and each Read one bulk IN transfer. The usb package provides
// the real device; tests and dry runs use a simulated one.
package bootloader

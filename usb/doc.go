// Package usb opens a Kinect sensor held in its USB bootloader and exposes
// its bulk endpoints as an io.ReadWriter.
//
// The device is 045e:02ad. Open selects configuration 1, claims
// interface 0 and uses bulk OUT endpoint 0x01 and bulk IN endpoint 0x81.
// Any kernel driver bound to the interface is detached for the session.
//
// Transfers block until completion unless Config.Timeout is set.
package usb

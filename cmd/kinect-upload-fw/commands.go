package main

import (
	"github.com/spf13/cobra"
)

const defaultFirmware = "firmware.bin"

type rootOptions struct {
	configPath string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kinect-upload-fw [firmware]",
		Short: "Upload firmware to a Kinect sensor in bootloader mode.",
		Long: `Upload firmware to a Kinect sensor in bootloader mode.

The sensor must enumerate as 045e:02ad. The firmware file defaults to
` + defaultFirmware + ` in the working directory. The sensor re-enumerates once
the upload is finalized.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultFirmware
			if len(args) > 0 {
				path = args[0]
			}
			return runUpload(cmd, opts, path)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./kinect-upload-fw.yaml if present)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not draw a progress bar")
	flags.Duration("timeout", 0, "Timeout per USB transfer (0 waits forever)")
	flags.Int("usb-debug", 0, "libusb debug level")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("log-file", "", "Also log to this file, with rotation")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	flags.Int("chunk-size", 512, "Maximum payload bytes per bulk transfer (1-512)")
	flags.Bool("dry-run", false, "Upload to a simulated bootloader instead of the USB device")

	return cmd
}

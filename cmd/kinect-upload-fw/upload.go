package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moffa90/go-kinectfw/bootloader"
	"github.com/moffa90/go-kinectfw/firmware"
	"github.com/moffa90/go-kinectfw/internal/config"
	"github.com/moffa90/go-kinectfw/internal/logging"
	"github.com/moffa90/go-kinectfw/internal/metrics"
	"github.com/moffa90/go-kinectfw/internal/simdev"
	"github.com/moffa90/go-kinectfw/usb"
)

type device interface {
	io.ReadWriter
	Close() error
}

type simulated struct {
	*simdev.Device
}

func (simulated) Close() error { return nil }

func runUpload(cmd *cobra.Command, opts *rootOptions, path string) error {
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger = logger.With(zap.String("session", uuid.NewString()))

	fw, err := firmware.Open(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	logger.Info("firmware opened",
		zap.String("path", fw.Path()),
		zap.Int64("size", fw.Size()),
		zap.Int("pages", fw.Pages()),
	)

	dev, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Warn("close device", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	m := metrics.NewUploadMetrics(reg)

	var bar *progressbar.ProgressBar
	if !opts.quiet {
		bar = progressbar.NewOptions64(fw.Size(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Writing"),
			progressbar.OptionShowBytes(true),
		)
	}

	up := bootloader.New(dev,
		bootloader.WithLogger(logging.NewBootloaderLogger(logger)),
		bootloader.WithFrameCallback(m.ObserveFrame),
		bootloader.WithProgressCallback(func(p bootloader.Progress) {
			m.ObserveProgress(p)
			if bar != nil {
				_ = bar.Set64(p.BytesWritten)
				if p.Phase == bootloader.PhaseComplete {
					_ = bar.Finish()
				}
			}
		}),
		bootloader.WithChunkSize(cfg.Upload.ChunkSize),
		bootloader.WithReadBufferSize(cfg.Upload.ReadBufferSize),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := up.Upload(ctx, fw)
	m.Finish(res, err)

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			logger.Warn("metrics not written", zap.Error(werr))
		}
	}

	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	for _, w := range res.Warnings {
		logger.Warn("device reported nonzero status", zap.String("warning", w.String()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d bytes in %d pages (%d commands, %d warnings) in %s\n",
		res.BytesWritten, res.Pages, res.Commands, len(res.Warnings), res.Elapsed.Round(time.Millisecond))
	return nil
}

func openDevice(cfg *config.Config, logger *zap.Logger) (device, error) {
	if cfg.Upload.DryRun {
		logger.Info("dry run: using simulated bootloader")
		return simulated{simdev.New()}, nil
	}

	uc := usbConfig(cfg.USB)
	logger.Debug("opening device",
		zap.String("id", fmt.Sprintf("%04x:%04x", uc.VendorID, uc.ProductID)),
		zap.Int("configuration", uc.Configuration),
		zap.Int("interface", uc.Interface),
		zap.Duration("timeout", uc.Timeout),
	)
	return usb.Open(uc)
}

func usbConfig(c config.USBConfig) usb.Config {
	return usb.Config{
		VendorID:      c.VendorID,
		ProductID:     c.ProductID,
		Configuration: c.Configuration,
		Interface:     c.Interface,
		OutEndpoint:   c.OutEndpoint,
		InEndpoint:    c.InEndpoint,
		Timeout:       c.Timeout,
		Debug:         c.Debug,
	}
}

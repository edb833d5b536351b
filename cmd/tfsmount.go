package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/jonas-koeritz/tfsmount"
	"github.com/jonas-koeritz/tfsmount/tfs"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("tfsmount", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "read mount settings from this YAML file")
	debug := flagSet.Bool("debug", false, "print FUSE debug information")
	allowOther := flagSet.Bool("allow-other", false, "allow other users to access the mount")
	logLevel := flagSet.String("log-level", "info", "log level (debug|info|warn|error)")
	attrTimeout := flagSet.Duration("attr-timeout", 0, "kernel attribute cache timeout (default 1s)")
	entryTimeout := flagSet.Duration("entry-timeout", 0, "kernel entry cache timeout (default 1s)")
	flagSet.Usage = func() { usage(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	config := tfsmount.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = tfsmount.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	switch flagSet.NArg() {
	case 2:
		config.Image = flagSet.Arg(0)
		config.Mountpoint = flagSet.Arg(1)
	case 0:
		if *configPath == "" {
			usage(flagSet)
			return pflag.ErrHelp
		}
	default:
		usage(flagSet)
		return pflag.ErrHelp
	}

	if flagSet.Changed("debug") {
		config.Debug = *debug
	}
	if flagSet.Changed("allow-other") {
		config.AllowOther = *allowOther
	}
	if flagSet.Changed("log-level") {
		config.LogLevel = *logLevel
	}
	if flagSet.Changed("attr-timeout") {
		config.AttrTimeout = *attrTimeout
	}
	if flagSet.Changed("entry-timeout") {
		config.EntryTimeout = *entryTimeout
	}

	if err := config.Validate(); err != nil {
		return err
	}
	level, _ := config.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	image, err := tfs.OpenImage(config.Image, logger)
	if err != nil {
		return err
	}
	defer image.Close()

	fmt.Printf("%s\n", image.String())

	return mount(config, image, logger)
}

func mount(config tfsmount.Config, image tfsmount.DiskImage, logger *slog.Logger) error {
	opts := &fs.Options{
		AttrTimeout:  &config.AttrTimeout,
		EntryTimeout: &config.EntryTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     config.Image,
			Name:       "tfs",
			AllowOther: config.AllowOther,
			Debug:      config.Debug,
			Options:    []string{"ro"},
		},
	}

	server, err := fs.Mount(config.Mountpoint, image, opts)
	if err != nil {
		return fmt.Errorf("mounting %s: %w", config.Mountpoint, err)
	}
	logger.Info("tfs image mounted", "image", config.Image, "mountpoint", config.Mountpoint)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("unmounting", "signal", sig.String())
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed", "mountpoint", config.Mountpoint, "error", err)
		}
	}()

	server.Wait()
	return nil
}

func usage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage:\n  tfsmount [options] <image file path> <mount point>\n  tfsmount --config <file> [options]\n\nOptions:\n")
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

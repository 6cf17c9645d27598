package main

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking/opcode"
	server "bugsleep_c2emu/server/controller"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/sirupsen/logrus"
)

func main() {
	args := argparse.NewParser("server", constants.Title)

	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address",
		Default: constants.DEFAULT_BIND_ADDRESS})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Listening port",
		Default: constants.DEFAULT_PORT})
	increment := args.Int("i", "increment", &argparse.Options{Required: false, Help: "Increment to add to bytes. Use the value discovered while reversing the sample",
		Default: constants.DEFAULT_INCREMENT})
	mode := args.Selector("m", "mode", []string{"shell", "download", "upload", "0", "1", "2"}, &argparse.Options{Required: false,
		Help: "C2 command: shell (2), download (0) a file from the infected host, upload (1) a file to it", Default: "shell"})
	remote := args.String("r", "remote-path", &argparse.Options{Required: false, Help: "Download: Windows full path of the file on the infected host"})
	file := args.String("f", "file", &argparse.Options{Required: false, Help: "Upload: local file sent to the infected host"})
	drop := args.String("d", "drop-location", &argparse.Options{Required: false, Help: "Upload: Windows path where the file is dropped"})
	output := args.String("o", "output", &argparse.Options{Required: false, Help: "Folder for downloaded <sha1>.bin files",
		Default: constants.DEFAULT_OUTPUT_FOLDER})
	record := args.String("w", "record", &argparse.Options{Required: false, Help: "Folder for LZ4 compressed wire transcripts of every session"})
	dscp := args.Int("q", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	workers := args.Int("t", "threads", &argparse.Options{Required: false, Help: "Number of upload chunk encoding threads (1-256)",
		Default: constants.DEFAULT_NUM_WORKERS})
	progress := args.Flag("b", "progress", &argparse.Options{Help: "Show transfer progress bars"})
	verbose := args.FlagCounter("v", "verbose", &argparse.Options{Help: "Set verbosity level"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	if *increment < 0 || *increment > 255 {
		fmt.Print(args.Usage("increment must be within 0-255"))
		os.Exit(1)
	}

	command, _ := opcode.Parse(*mode)

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch {
	case *verbose >= 2:
		logger.SetLevel(logrus.TraceLevel)
	case *verbose == 1:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg := server.NewConfig(command)
	cfg.Increment = uint8(*increment)
	cfg.RemotePath = *remote
	cfg.SourceFile = *file
	cfg.DropLocation = *drop
	cfg.OutputFolder = *output
	cfg.RecordFolder = *record
	cfg.DSCP = *dscp
	cfg.Workers = *workers
	cfg.Progress = *progress
	cfg.Verbosity = *verbose
	cfg.Logger = logger

	if err := cfg.Validate(); err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	bindTo := *bind + ":" + strconv.Itoa(*port)

	srv := server.NewServer(cfg)
	if err := srv.Listen(bindTo); err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	// Free the port right away on Ctrl+C.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		srv.Shutdown()
	}()

	if err := srv.Serve(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

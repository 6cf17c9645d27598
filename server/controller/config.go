package server

import (
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/networking/opcode"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds everything one emulator instance needs. Sessions only read it.
type Config struct {
	Increment      uint8         // Additive cipher constant of the sample
	Command        uint8         // Command id every implant gets tasked with
	RemotePath     string        // Download: file on the infected host
	SourceFile     string        // Upload: local file to push
	DropLocation   string        // Upload: where the implant writes it
	OutputFolder   string        // Download: where <sha1>.bin captures go
	RecordFolder   string        // Wire transcripts, disabled when empty
	Verbosity      int           // Diagnostic output only
	DSCP           int           // QoS marking of accepted connections
	Workers        int           // Upload chunk encoder threads
	Progress       bool          // Draw transfer progress bars
	ProgressOutput io.Writer     // Progress bar destination
	HandshakeDelay time.Duration // Pause between nonce and tasking
	Operator       Operator      // Shell command source and output sink
	Logger         *logrus.Logger
}

// NewConfig returns configuration with defaults for given command
func NewConfig(command uint8) *Config {
	return &Config{
		Increment:      constants.DEFAULT_INCREMENT,
		Command:        command,
		OutputFolder:   constants.DEFAULT_OUTPUT_FOLDER,
		DSCP:           constants.DEFAULT_DSCP,
		Workers:        constants.DEFAULT_NUM_WORKERS,
		ProgressOutput: os.Stderr,
		HandshakeDelay: constants.DEFAULT_HANDSHAKE_WAIT,
		Operator:       NewConsole(os.Stdin, os.Stdout),
		Logger:         logrus.StandardLogger(),
	}
}

// Validate checks command specific settings before any connection is accepted
func (c *Config) Validate() error {
	if !opcode.Supported(c.Command) {
		return fmt.Errorf("%w: %s", networking.ErrUnsupportedCommand, opcode.Name(c.Command))
	}

	switch c.Command {
	case opcode.DOWNLOAD:
		if c.RemotePath == "" {
			return errors.New("remote path is required for download")
		}
		if info, err := os.Stat(c.OutputFolder); err != nil || !info.IsDir() {
			return fmt.Errorf("invalid output folder %q", c.OutputFolder)
		}
	case opcode.UPLOAD:
		if c.SourceFile == "" || c.DropLocation == "" {
			return errors.New("file and drop location are required for upload")
		}
		if _, err := os.Stat(c.SourceFile); err != nil {
			return err
		}
		if c.Workers < 1 || c.Workers > constants.MAX_OOC {
			return fmt.Errorf("threads must be within 1-%d", constants.MAX_OOC)
		}
	case opcode.SHELL:
		if c.Operator == nil {
			return errors.New("shell needs an operator console")
		}
	}

	// Tasking must fit a frame.
	if _, err := networking.EncodeTasking(c.Command, c.taskingPath(), c.Increment); err != nil {
		return err
	}

	if c.RecordFolder != "" {
		if info, err := os.Stat(c.RecordFolder); err != nil || !info.IsDir() {
			return fmt.Errorf("invalid record folder %q", c.RecordFolder)
		}
	}

	return nil
}

// taskingPath returns the Windows path sent along with the handshake reply
func (c *Config) taskingPath() string {
	switch c.Command {
	case opcode.DOWNLOAD:
		return c.RemotePath
	case opcode.UPLOAD:
		return c.DropLocation
	}
	return ""
}

// logger returns configured logger or the standard one
func (c *Config) logger() *logrus.Logger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

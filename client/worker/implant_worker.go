package worker

import (
	"bugsleep_c2emu/client/comms"
	"bugsleep_c2emu/networking"
	"bugsleep_c2emu/networking/opcode"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CommandRunner produces the output of a shell command
type CommandRunner func(command string) string

// Options decide how the simulated implant answers each command
type Options struct {
	Announce   string        // First message of the handshake
	Prompt     string        // Ready message sent after every command output
	Pause      time.Duration // Gap between command output and ready message
	Run        CommandRunner // Shell command handler
	Download   []byte        // Content handed out for download commands
	DropFolder string        // Where uploads are written, by base name of the Windows path
}

// Result sums up what happened during one tasking
type Result struct {
	Tasking  *comms.Tasking
	Commands []string // Shell commands received
	Dropped  string   // Local path of an uploaded file
	Received []byte   // Uploaded content
}

// Echo is the default command runner
func Echo(command string) string {
	return "executed: " + command
}

// Serve performs the handshake and answers the tasking until the emulator is done
func Serve(implant *comms.Implant, opts *Options) (*Result, error) {
	if err := implant.Announce(opts.Announce); err != nil {
		return nil, fmt.Errorf("announce: %w", err)
	}

	task, err := implant.AwaitTasking()
	if err != nil {
		return nil, err
	}
	res := &Result{Tasking: task}

	switch task.Command {
	case opcode.SHELL:
		err = serveShell(implant, opts, res)
	case opcode.DOWNLOAD:
		err = implant.SendFile(opts.Download)
	case opcode.UPLOAD:
		err = receiveUpload(implant, opts, res)
	}

	return res, err
}

// serveShell answers commands with their output followed by the ready message
func serveShell(implant *comms.Implant, opts *Options, res *Result) error {
	run := opts.Run
	if run == nil {
		run = Echo
	}

	if err := implant.SendOutput(opts.Prompt); err != nil {
		return err
	}

	for {
		command, err := implant.ReadCommand()
		if errors.Is(err, networking.ErrIncompleteFrame) {
			// Emulator terminated the session.
			return nil
		}
		if err != nil {
			return err
		}
		res.Commands = append(res.Commands, command)

		if err := implant.SendOutput(run(command)); err != nil {
			return err
		}
		// Keeps output and ready message in separate reads on the emulator side.
		time.Sleep(opts.Pause)
		if err := implant.SendOutput(opts.Prompt); err != nil {
			return err
		}
	}
}

// receiveUpload collects pushed content and drops it locally if asked to
func receiveUpload(implant *comms.Implant, opts *Options, res *Result) error {
	content, _, err := implant.ReceiveFile()
	res.Received = content
	if err != nil {
		return err
	}
	if opts.DropFolder == "" {
		return nil
	}

	name := filepath.Base(strings.ReplaceAll(res.Tasking.Path, `\`, "/"))
	res.Dropped = filepath.Join(opts.DropFolder, name)
	return os.WriteFile(res.Dropped, content, 0o600)
}

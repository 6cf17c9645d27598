package main

import (
	"bugsleep_c2emu/client/comms"
	"bugsleep_c2emu/client/worker"
	"bugsleep_c2emu/constants"
	"bugsleep_c2emu/fileio"
	"bugsleep_c2emu/networking/opcode"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akamensky/argparse"
)

func main() {
	args := argparse.NewParser("client", "Simulated BugSleep implant for dry runs against the emulator")

	bind := args.String("a", "address", &argparse.Options{Required: false, Help: "Emulator host address",
		Default: "127.0.0.1"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Emulator port",
		Default: constants.DEFAULT_PORT})
	increment := args.Int("i", "increment", &argparse.Options{Required: false, Help: "Increment the emulator adds to bytes",
		Default: constants.DEFAULT_INCREMENT})
	announce := args.String("n", "announce", &argparse.Options{Required: false, Help: "First message sent to the emulator",
		Default: "DESKTOP-BUGSLEEP\\analyst"})
	file := args.String("f", "file", &argparse.Options{Required: false, Help: "Local file handed out for download commands"})
	drop := args.String("d", "drop", &argparse.Options{Required: false, Help: "Folder receiving uploaded files"})
	dscp := args.Int("q", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	if *increment < 0 || *increment > 255 {
		fmt.Println("Increment must be within 0-255")
		os.Exit(1)
	}

	opts := &worker.Options{
		Announce:   *announce,
		Prompt:     "C:\\Windows\\system32>",
		Run:        worker.Echo,
		Pause:      200 * time.Millisecond,
		DropFolder: *drop,
	}
	if *file != "" {
		opts.Download, err = fileio.ReadSource(*file)
		if err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}
	}

	addr := *bind + ":" + strconv.Itoa(*port)

	implant, err := comms.Connect(addr, uint8(*increment), *dscp)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer implant.Close()
	fmt.Println("Connected to", addr)

	res, err := worker.Serve(implant, opts)
	if res != nil {
		fmt.Println("Tasked with", opcode.Name(res.Tasking.Command), res.Tasking.Path)
		for _, command := range res.Commands {
			fmt.Println("Ran", command)
		}
		if res.Received != nil {
			fmt.Println("Received", len(res.Received), "bytes, sha1", fileio.ChecksumSHA1(res.Received))
		}
		if res.Dropped != "" {
			fmt.Println("Dropped to", res.Dropped)
		}
	}
	if err != nil {
		fmt.Println(err.Error())
		implant.Close()
		os.Exit(2)
	}
	fmt.Println("Disconnected")
}

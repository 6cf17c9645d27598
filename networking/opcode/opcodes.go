package opcode

import (
	"strconv"
	"strings"
)

// Command ids as the implant knows them
const (
	DOWNLOAD = iota // 0: Pull a file from the infected host
	UPLOAD          // 1: Push a file to the infected host
	SHELL           // 2: Interactive command execution
)

var names = map[uint8]string{
	DOWNLOAD: "download",
	UPLOAD:   "upload",
	SHELL:    "shell",
}

// Name returns operator facing name of a command id
func Name(command uint8) string {
	if name, ok := names[command]; ok {
		return name
	}
	return "unknown(0x" + strconv.FormatUint(uint64(command), 16) + ")"
}

// Supported returns true if the emulator can dispatch given command id
func Supported(command uint8) bool {
	_, ok := names[command]
	return ok
}

// Parse maps a mode name or its hex command id to the command id
func Parse(mode string) (uint8, bool) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	for id, name := range names {
		if name == mode {
			return id, true
		}
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(mode, "0x"), 16, 8)
	if err != nil || !Supported(uint8(id)) {
		return 0, false
	}
	return uint8(id), true
}

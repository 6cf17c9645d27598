package server

import (
	"bugsleep_c2emu/fileio"
	"net"
)

// recordingConn copies every byte going through the connection to a transcript
type recordingConn struct {
	net.Conn
	transcript *fileio.Transcript
}

func (r *recordingConn) Read(p []byte) (int, error) {
	n, err := r.Conn.Read(p)
	r.transcript.Record(fileio.INBOUND, p[:n])
	return n, err
}

func (r *recordingConn) Write(p []byte) (int, error) {
	n, err := r.Conn.Write(p)
	r.transcript.Record(fileio.OUTBOUND, p[:n])
	return n, err
}

//go:build !unix

package server

import "net"

// setLingerReset is a no-op where the socket API is not available through x/sys/unix
func setLingerReset(net.Listener) error {
	return nil
}

package networking

import "errors"

var (
	// ErrIncompleteFrame means the peer closed before the expected byte count arrived.
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrUnsupportedCommand means the selected mode cannot be dispatched.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrTransferAborted means a local file or socket failure ended a transfer.
	ErrTransferAborted = errors.New("transfer aborted")
	// ErrBindFailure means the listening port could not be bound.
	ErrBindFailure = errors.New("could not bind listening socket")
	// ErrFrameTooLong means a payload does not fit the single length byte.
	ErrFrameTooLong = errors.New("frame payload longer than 255 bytes")
	// ErrNonASCIICommand means shell command text is not plain ASCII.
	ErrNonASCIICommand = errors.New("command must be ASCII")
	// ErrChannelClosed means the implant hung up before the end-of-output marker.
	ErrChannelClosed = errors.New("channel closed by peer")
)

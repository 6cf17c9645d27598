package constants

import "time"

const Title = "BugSleep C2 emulator - speaks the implant's own TCP protocol"

const (
	DEFAULT_BIND_ADDRESS   = "0.0.0.0" // All interfaces
	DEFAULT_PORT           = 443       // Blends with HTTPS, no TLS involved
	DEFAULT_INCREMENT      = 0x03      // Additive cipher constant of the analysed samples
	DEFAULT_NUM_WORKERS    = 2         // Upload chunk encoder threads
	DEFAULT_DSCP           = 0         // Leave QoS untouched unless asked
	HEADER_SIZE            = 4         // Frame header, only the first byte carries length
	HEADER_FILLER          = 0x03      // Handshake reply filler, sent as-is
	BLOCK_SIZE             = 1024      // Transfer block as seen by the implant
	CHUNK_INDEX_SIZE       = 4         // Little-endian block index leading each chunk
	CHUNK_CONTENT_SIZE     = BLOCK_SIZE - CHUNK_INDEX_SIZE
	LAST_BLOCK_PADDING     = 4    // Implant truncates the last block without it
	SHELL_RECV_SIZE        = 1024 // Shell output read size
	DOWNLOAD_RECV_SIZE     = 4096 // Download content read size
	NONCE_SIZE             = 4    // Random bytes sent after the announce message
	MAX_FRAME_LEN          = 0xFF // Single length byte
	ENCODER_QUEUE          = 8    // Queued raw chunks per upload encoder
	MAX_OOC                = 256  // Maximum number of buffered out-of-order chunks
	CAPTURE_WRITE_QUEUE    = 16   // Queued download chunks before blocking on file writes
	CAPTURE_EXTENSION      = ".bin"
	TRANSCRIPT_EXTENSION   = ".wire.lz4"
	TERMINATE_COMMAND      = "terminate"
	SHELL_PROMPT           = "[Shell] Enter a command ('terminate' to exit): "
	DEFAULT_OUTPUT_FOLDER  = "."
	DEFAULT_HANDSHAKE_WAIT = time.Second // Implant desyncs without the pause
)

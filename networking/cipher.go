package networking

// Transform adds increment to every byte, wrapping at 256.
//
// BugSleep runs the very same addition in both directions, so this single
// function both "encrypts" outgoing and "decrypts" incoming bytes. There is
// no keystream and no carry between bytes.
func Transform(data []byte, increment uint8) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b + increment
	}
	return out
}

// Inverse returns the increment undoing Transform with given increment
func Inverse(increment uint8) uint8 {
	return -increment
}

// Crypto holds the increment of one emulator instance
type Crypto struct {
	increment uint8
}

// WithIncrement sets the additive constant recovered from the analysed sample
func (c *Crypto) WithIncrement(increment uint8) *Crypto {
	c.increment = increment
	return c
}

// Increment returns the additive constant in use
func (c *Crypto) Increment() uint8 {
	return c.increment
}

// Encrypt transforms bytes headed to the implant
func (c *Crypto) Encrypt(data []byte) []byte {
	return Transform(data, c.increment)
}

// Decrypt transforms bytes received from the implant. Same operation as Encrypt.
func (c *Crypto) Decrypt(data []byte) []byte {
	return Transform(data, c.increment)
}


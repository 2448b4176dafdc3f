package crypto

// Zero overwrites a byte slice in memory with zeros. Used to scrub plaintext
// buffers as soon as they have been encrypted or copied out.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package domain

// Zero overwrites a byte slice in place so plaintext key material does
// not linger in memory after use. Safe to call on nil.
func Zero(b []byte) {
	clear(b)
}

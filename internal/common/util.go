package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes read from crypto/rand.
// crypto/rand.Read never fails on supported platforms; a failure here is
// unrecoverable, so it panics.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// MaskTail replaces all but the last n runes of s with '*'.
// It is used to keep identifiers such as mobile numbers out of logs.
func MaskTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	for i := 0; i < len(r)-n; i++ {
		r[i] = '*'
	}
	return string(r)
}

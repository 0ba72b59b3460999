// Package hash provides hashing and verification of secrets.
//
// Store only the hash; verify user input by comparing the plaintext
// against the stored value through the Hash interface. Password
// hashers (bcrypt, argon2id) and a keyed HMAC for short-lived codes
// live behind the same contract.
package hash

// Hash hashes plaintext secrets and verifies them later.
type Hash interface {
	// Hash returns the stored representation of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the stored representation.
	Verify(hashed, str string) bool
}

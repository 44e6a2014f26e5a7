// Package cryptox derives the local verifier that lets a previously
// authenticated user unlock the offline cache without reaching the server.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt stored next to the verifier.
const SaltSize = 16

// DeriveKey stretches password with Argon2id into a 32-byte key.
//
// Parameters:
//
//	password - the user's password as typed
//	salt     - SaltSize random bytes stored with the verifier
//
// Returns:
//
//	32 bytes, identical for identical inputs. The cost parameters (1 pass,
//	64 MiB, 4 lanes) are part of the stored verifier's format; changing them
//	invalidates every cached offline login.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key so the key itself is never persisted.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckPassword reports whether password, stretched with salt, matches
// the stored verifier.
func CheckPassword(password, salt, verifier []byte) bool {
	if len(salt) == 0 || len(verifier) == 0 {
		return false
	}
	got := MakeVerifier(DeriveKey(password, salt))
	return subtle.ConstantTimeCompare(got, verifier) == 1
}

package envelope

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrUnsupportedEnvelope is returned when an envelope declares a version
	// or algorithm this implementation does not support. The check happens
	// before any cryptographic operation.
	ErrUnsupportedEnvelope = errors.New("unsupported envelope version or algorithm")

	// ErrEnvelopeEncoding is returned when an envelope field is malformed:
	// invalid base64url, wrong decoded length, or unparseable JSON.
	ErrEnvelopeEncoding = errors.New("invalid envelope encoding")

	// ErrSignatureInvalid is returned when transcript signature verification
	// fails: the envelope was not produced by the declared signer, or was
	// tampered with after sealing.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrAuthenticationFailed is returned when the AEAD tag check fails:
	// wrong recipient secret key, or ciphertext/nonce/aad tampering that
	// survived signature verification.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServerKeyMismatch is returned when the envelope's server public key
	// does not match the pinned key supplied via WithPinnedServerKey.
	ErrServerKeyMismatch = errors.New("server public key mismatch: envelope key differs from pinned key")

	// ErrInvalidKeyMaterial is returned when caller-supplied key material has
	// the wrong size or does not parse.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrInvalidExportData is returned when imported key-export data is invalid.
	ErrInvalidExportData = errors.New("invalid export data")
)

// UnsupportedEnvelopeError reports the envelope field that failed the
// version/algorithm gate.
type UnsupportedEnvelopeError struct {
	Field string
	Value string
}

func (e *UnsupportedEnvelopeError) Error() string {
	return fmt.Sprintf("unsupported envelope: %s = %q", e.Field, e.Value)
}

// Is implements errors.Is for sentinel error matching.
func (e *UnsupportedEnvelopeError) Is(target error) bool {
	return target == ErrUnsupportedEnvelope
}

// EncodingError reports a structurally malformed envelope field.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid envelope encoding: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEnvelopeEncoding
}

// SignatureError indicates potential tampering or signer substitution.
type SignatureError struct {
	Message       string
	IsKeyMismatch bool
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature verification failed: %s", e.Message)
}

// Is implements errors.Is for sentinel error matching.
func (e *SignatureError) Is(target error) bool {
	if e.IsKeyMismatch && target == ErrServerKeyMismatch {
		return true
	}
	return target == ErrSignatureInvalid
}

// AuthenticationError indicates an AEAD tag failure. It carries no partial
// plaintext; decryption is all-or-nothing.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

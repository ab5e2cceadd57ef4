// Package crypto provides the cryptographic primitives behind the
// VaultSandbox envelope protocol: post-quantum key encapsulation and
// signatures, authenticated encryption, and key derivation.
//
// # Algorithm Suite
//
//   - ML-KEM-768 (NIST FIPS 203): post-quantum key encapsulation mechanism
//     for establishing shared secrets.
//
//   - ML-DSA-65 (NIST FIPS 204): post-quantum digital signature algorithm
//     for authenticating sealed envelopes.
//
//   - AES-256-GCM: authenticated encryption with associated data (AEAD)
//     for the envelope payload.
//
//   - HKDF-SHA-512 (RFC 5869): key derivation from KEM shared secrets with
//     domain separation.
//
// # Critical Security Notes
//
// Signature verification MUST be performed before any decryption attempt.
// Decrypting unauthenticated ciphertext may expose the system to
// chosen-ciphertext attacks.
//
// ML-KEM decapsulation uses implicit rejection: [Decapsulate] with a wrong
// secret key succeeds and returns an unrelated shared secret. Tampering and
// wrong-key detection is performed by the AES-GCM tag check downstream, never
// at the KEM layer.
//
// AES-GCM nonces MUST be unique for each encryption with the same key. Nonce
// reuse completely breaks the security of AES-GCM.
//
// All primitives come from vetted libraries (cloudflare/circl,
// golang.org/x/crypto); nothing here is hand-implemented.
package crypto

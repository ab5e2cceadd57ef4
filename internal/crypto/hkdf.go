package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveEnvelopeKey performs HKDF-SHA-512 key derivation for the envelope
// scheme, producing a 256-bit AES key.
//
// The key derivation uses:
//   - IKM: the KEM shared secret
//   - Salt: SHA-256 hash of the KEM ciphertext, so every envelope gets a
//     unique salt bound to the specific key exchange
//   - Info: context string || AAD length (4 bytes BE) || AAD
func DeriveEnvelopeKey(sharedSecret, aad, ctKem []byte) ([]byte, error) {
	saltHash := sha256.Sum256(ctKem)

	contextBytes := []byte(Context)
	aadLength := make([]byte, 4)
	binary.BigEndian.PutUint32(aadLength, uint32(len(aad)))

	info := make([]byte, 0, len(contextBytes)+4+len(aad))
	info = append(info, contextBytes...)
	info = append(info, aadLength...)
	info = append(info, aad...)

	return DeriveKey(sharedSecret, saltHash[:], info, AESKeySize)
}

// DeriveKey derives a key of the given length using HKDF-SHA-512.
// An empty salt is replaced by a zero-filled block per RFC 5869.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha512.Size)
	}

	reader := hkdf.New(sha512.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

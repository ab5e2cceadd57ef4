package crypto

import (
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// randReader is the random source used for key generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// decapHook, when non-nil, is invoked on every decapsulation. Tests use it to
// assert that rejected envelopes never reach the KEM.
var decapHook func()

// GenerateKEMKeypair creates a new ML-KEM-768 keypair and returns the raw
// public and secret key bytes.
func GenerateKEMKeypair() (publicKey, secretKey []byte, err error) {
	pub, priv, err := mlkem768.GenerateKeyPair(randReader)
	if err != nil {
		return nil, nil, err
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return pubBytes, privBytes, nil
}

// KEMPublicKeyFromSecret extracts the public key embedded in an ML-KEM-768
// secret key at offset 1152.
func KEMPublicKeyFromSecret(secretKey []byte) ([]byte, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	publicKey := make([]byte, MLKEMPublicKeySize)
	copy(publicKey, secretKey[kemPublicKeyOffset:kemPublicKeyOffset+MLKEMPublicKeySize])
	return publicKey, nil
}

// ValidateKEMSecretKey checks that the secret key parses as an ML-KEM-768
// private key.
func ValidateKEMSecretKey(secretKey []byte) error {
	if len(secretKey) != MLKEMSecretKeySize {
		return ErrInvalidSecretKeySize
	}

	var priv mlkem768.PrivateKey
	return priv.Unpack(secretKey)
}

// Encapsulate produces a fresh KEM ciphertext and shared secret for the
// given recipient public key. Every call consumes fresh randomness, so two
// encapsulations against the same key never coincide.
func Encapsulate(publicKey []byte) (ctKem, sharedSecret []byte, err error) {
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, nil, ErrInvalidPublicKeySize
	}

	var pub mlkem768.PublicKey
	pub.Unpack(publicKey)

	ctKem = make([]byte, MLKEMCiphertextSize)
	sharedSecret = make([]byte, MLKEMSharedKeySize)
	pub.EncapsulateTo(ctKem, sharedSecret, nil)

	return ctKem, sharedSecret, nil
}

// Decapsulate recovers the shared secret from a KEM ciphertext.
//
// ML-KEM uses implicit rejection: decapsulating with the wrong secret key
// does NOT fail, it silently yields an unrelated shared secret. Wrong-key
// detection is therefore delegated to the downstream AEAD tag check; callers
// must never treat a successful decapsulation as proof of anything.
func Decapsulate(secretKey, ctKem []byte) ([]byte, error) {
	if decapHook != nil {
		decapHook()
	}

	if len(ctKem) != MLKEMCiphertextSize {
		return nil, ErrInvalidCiphertextSize
	}

	var priv mlkem768.PrivateKey
	if err := priv.Unpack(secretKey); err != nil {
		return nil, err
	}

	sharedSecret := make([]byte, MLKEMSharedKeySize)
	priv.DecapsulateTo(sharedSecret, ctKem)

	return sharedSecret, nil
}

package envelope

import (
	"fmt"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// Keypair is an ML-KEM-768 keypair held by the recipient of sealed
// envelopes. The secret key never leaves the recipient's side; the server
// only ever sees the public key.
type Keypair struct {
	// PublicKey is the raw ML-KEM-768 public key bytes.
	PublicKey []byte
	// SecretKey is the raw ML-KEM-768 secret key bytes.
	SecretKey []byte
	// PublicKeyB64 is the public key encoded as URL-safe base64.
	PublicKeyB64 string
}

// GenerateKeypair creates a new ML-KEM-768 recipient keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, sec, err := crypto.GenerateKEMKeypair()
	if err != nil {
		return nil, err
	}

	return &Keypair{
		PublicKey:    pub,
		SecretKey:    sec,
		PublicKeyB64: crypto.ToBase64URL(pub),
	}, nil
}

// KeypairFromSecretKey reconstructs a keypair from the secret key alone.
// ML-KEM-768 secret keys embed the public key, so nothing else is needed.
func KeypairFromSecretKey(secretKey []byte) (*Keypair, error) {
	if err := crypto.ValidateKEMSecretKey(secretKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	pub, err := crypto.KEMPublicKeyFromSecret(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	return &Keypair{
		PublicKey:    pub,
		SecretKey:    secretKey,
		PublicKeyB64: crypto.ToBase64URL(pub),
	}, nil
}

// DecodePublicKey decodes a URL-safe base64 ML-KEM-768 public key and
// checks its length.
func DecodePublicKey(s string) ([]byte, error) {
	pub, err := crypto.FromBase64URL(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	if len(pub) != crypto.MLKEMPublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d",
			ErrInvalidKeyMaterial, crypto.MLKEMPublicKeySize, len(pub))
	}
	return pub, nil
}

// Signer is the ML-DSA-65 keypair the server signs envelopes with.
type Signer struct {
	// PublicKey is the raw ML-DSA-65 public key bytes, embedded in every
	// envelope as server_sig_pk.
	PublicKey []byte
	// SecretKey is the raw ML-DSA-65 secret key bytes.
	SecretKey []byte
}

// GenerateSigner creates a new ML-DSA-65 signing keypair.
func GenerateSigner() (*Signer, error) {
	pub, sec, err := crypto.GenerateSigningKeypair()
	if err != nil {
		return nil, err
	}

	return &Signer{PublicKey: pub, SecretKey: sec}, nil
}

// SignerFromSecretKey reconstructs a signer from the secret key alone,
// deriving the public key.
func SignerFromSecretKey(secretKey []byte) (*Signer, error) {
	pub, err := crypto.SigningPublicKeyFromSecret(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	return &Signer{PublicKey: pub, SecretKey: secretKey}, nil
}

package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// GenerateSigningKeypair creates a new ML-DSA-65 keypair and returns the raw
// public and secret key bytes.
func GenerateSigningKeypair() (publicKey, secretKey []byte, err error) {
	pub, priv, err := mldsa65.GenerateKey(randReader)
	if err != nil {
		return nil, nil, err
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal secret key: %w", err)
	}

	return pubBytes, privBytes, nil
}

// SigningPublicKeyFromSecret derives the ML-DSA-65 public key from the
// secret key bytes.
func SigningPublicKeyFromSecret(secretKey []byte) ([]byte, error) {
	priv, err := unmarshalSigningSecret(secretKey)
	if err != nil {
		return nil, err
	}

	pub, ok := priv.Public().(*mldsa65.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pubBytes, nil
}

// Sign produces a randomized ML-DSA-65 signature over the message.
func Sign(secretKey, message []byte) ([]byte, error) {
	priv, err := unmarshalSigningSecret(secretKey)
	if err != nil {
		return nil, err
	}

	// Empty ctx, randomized signing per FIPS 204.
	sig := make([]byte, mldsa65.SignatureSize)
	mldsa65.SignTo(priv, message, nil, true, sig)

	return sig, nil
}

// Verify checks an ML-DSA-65 signature over the message.
func Verify(publicKey, message, signature []byte) error {
	if len(signature) != MLDSASignatureSize {
		return ErrInvalidSignatureSize
	}

	pk := &mldsa65.PublicKey{}
	if err := pk.UnmarshalBinary(publicKey); err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	if !mldsa65.Verify(pk, message, nil, signature) {
		return ErrSignatureVerificationFailed
	}

	return nil
}

func unmarshalSigningSecret(secretKey []byte) (*mldsa65.PrivateKey, error) {
	if len(secretKey) != MLDSASecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	priv := &mldsa65.PrivateKey{}
	if err := priv.UnmarshalBinary(secretKey); err != nil {
		return nil, fmt.Errorf("failed to parse secret key: %w", err)
	}
	return priv, nil
}

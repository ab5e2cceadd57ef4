package envelope

import (
	"crypto/rand"
	"fmt"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// Seal encrypts plaintext for the holder of recipientPublicKey and signs the
// result with the given signer, producing a self-contained Envelope.
//
// The associated data aad is authenticated but not encrypted; callers
// typically bind it to the artifact's logical identity (e.g. an email id and
// artifact kind) so sibling envelopes sealed under the same recipient key
// derive distinct AEAD keys. Empty aad is valid.
//
// Every call draws fresh randomness for the KEM encapsulation and the AEAD
// nonce, so sealing identical inputs twice never yields identical envelopes.
// Seal has no side effects and is safe for concurrent use.
func Seal(plaintext, recipientPublicKey, aad []byte, signer *Signer) (*Envelope, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signer", ErrInvalidKeyMaterial)
	}
	if len(signer.PublicKey) != crypto.MLDSAPublicKeySize {
		return nil, fmt.Errorf("%w: signer public key size %d, want %d",
			ErrInvalidKeyMaterial, len(signer.PublicKey), crypto.MLDSAPublicKeySize)
	}

	// 1. Fresh KEM encapsulation.
	ctKem, sharedSecret, err := crypto.Encapsulate(recipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	// 2. Fresh random nonce.
	nonce := make([]byte, crypto.AESNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// 3. Derive the AEAD key, bound to context, aad and this encapsulation.
	key, err := crypto.DeriveEnvelopeKey(sharedSecret, aad, ctKem)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	// 4. Encrypt.
	ciphertext, err := crypto.EncryptAESGCM(key, nonce, aad, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	// 5-6. Sign the transcript over every envelope field.
	algs := DefaultAlgorithms()
	transcript := crypto.BuildTranscript(Version, algs.String(), ctKem, nonce, aad, ciphertext, signer.PublicKey)

	sig, err := crypto.Sign(signer.SecretKey, transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	// 7. Emit with all binary fields base64url-encoded.
	return &Envelope{
		V:           Version,
		Algs:        algs,
		CtKem:       crypto.ToBase64URL(ctKem),
		Nonce:       crypto.ToBase64URL(nonce),
		AAD:         crypto.ToBase64URL(aad),
		Ciphertext:  crypto.ToBase64URL(ciphertext),
		Sig:         crypto.ToBase64URL(sig),
		ServerSigPk: crypto.ToBase64URL(signer.PublicKey),
	}, nil
}

package envelope

import (
	"crypto/subtle"
	"fmt"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	pinnedServerKey []byte
}

// WithPinnedServerKey rejects envelopes whose server_sig_pk differs from the
// given key. Use it when the signer identity was learned out of band (e.g.
// from the discovery endpoint at inbox creation) to prevent an attacker with
// a valid keypair of their own from substituting the signer.
func WithPinnedServerKey(publicKey []byte) OpenOption {
	return func(cfg *openConfig) {
		cfg.pinnedServerKey = publicKey
	}
}

// Open verifies and decrypts an envelope with the recipient's keypair,
// returning the original plaintext.
//
// Checks run in a strict order and every failure is terminal: version and
// algorithm gate, field decoding, transcript signature verification, and
// only then KEM decapsulation, key derivation and AEAD decryption. The
// signature MUST be verified before any secret-key-dependent computation;
// decapsulation itself cannot detect a wrong key or tampering (ML-KEM
// implicit rejection), so the AEAD tag check is what catches both.
//
// Open never returns partial plaintext. It is stateless and safe for
// concurrent use.
func Open(env *Envelope, keypair *Keypair, opts ...OpenOption) ([]byte, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if keypair == nil {
		return nil, fmt.Errorf("%w: nil keypair", ErrInvalidKeyMaterial)
	}

	// Gate 1: version and algorithm suite. No crypto has happened yet.
	if err := env.Validate(); err != nil {
		return nil, err
	}

	// Gate 2: structural decoding of all binary fields.
	d, err := env.decode()
	if err != nil {
		return nil, err
	}

	if cfg.pinnedServerKey != nil {
		if subtle.ConstantTimeCompare(d.serverSigPk, cfg.pinnedServerKey) != 1 {
			return nil, &SignatureError{
				Message:       "envelope signer does not match pinned key",
				IsKeyMismatch: true,
			}
		}
	}

	// Gates 3-4: reconstruct the transcript and verify the signature before
	// touching the recipient's secret key.
	transcript := crypto.BuildTranscript(env.V, env.Algs.String(), d.ctKem, d.nonce, d.aad, d.ciphertext, d.serverSigPk)
	if err := crypto.Verify(d.serverSigPk, transcript, d.sig); err != nil {
		return nil, &SignatureError{Message: err.Error()}
	}

	// Gate 5: decapsulate. A wrong secret key does not fail here; it yields
	// an unrelated shared secret that the AEAD tag check rejects below.
	sharedSecret, err := crypto.Decapsulate(keypair.SecretKey, d.ctKem)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	// Gate 6: derive the AEAD key.
	key, err := crypto.DeriveEnvelopeKey(sharedSecret, d.aad, d.ctKem)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	// Gate 7: decrypt. All-or-nothing.
	plaintext, err := crypto.DecryptAESGCM(key, d.nonce, d.aad, d.ciphertext)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}

	return plaintext, nil
}

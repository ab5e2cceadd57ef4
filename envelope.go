package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// Version is the envelope format version produced by Seal.
const Version = 1

// Context is the protocol context string bound into every transcript and
// key derivation. Exposed so the discovery endpoint can advertise it.
const Context = crypto.Context

// AlgorithmSuite identifies the cryptographic algorithms of an envelope.
// It is included verbatim in the signed transcript so no entry can be
// silently swapped for a weaker algorithm.
type AlgorithmSuite struct {
	// KEM is the key encapsulation mechanism (e.g., "ML-KEM-768").
	KEM string `json:"kem"`
	// Sig is the signature algorithm (e.g., "ML-DSA-65").
	Sig string `json:"sig"`
	// AEAD is the authenticated encryption algorithm (e.g., "AES-256-GCM").
	AEAD string `json:"aead"`
	// KDF is the key derivation function (e.g., "HKDF-SHA-512").
	KDF string `json:"kdf"`
}

// String returns the canonical ciphersuite representation used in the
// transcript: "{kem}:{sig}:{aead}:{kdf}".
func (a AlgorithmSuite) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", a.KEM, a.Sig, a.AEAD, a.KDF)
}

// DefaultAlgorithms returns the algorithm suite this implementation seals
// with and accepts on open.
func DefaultAlgorithms() AlgorithmSuite {
	return AlgorithmSuite{
		KEM:  "ML-KEM-768",
		Sig:  "ML-DSA-65",
		AEAD: "AES-256-GCM",
		KDF:  "HKDF-SHA-512",
	}
}

// Envelope is the sealed record produced for one plaintext artifact. It is
// immutable once created; content changes require sealing a new Envelope.
// All binary fields are base64url-encoded without padding.
type Envelope struct {
	// V is the envelope format version.
	V int `json:"v"`
	// Algs is the cryptographic algorithm suite.
	Algs AlgorithmSuite `json:"algs"`
	// CtKem is the ML-KEM-768 ciphertext from encapsulation.
	CtKem string `json:"ct_kem"`
	// Nonce is the 12-byte AES-GCM nonce, fresh per envelope.
	Nonce string `json:"nonce"`
	// AAD is the caller-supplied associated data, authenticated but not
	// encrypted.
	AAD string `json:"aad"`
	// Ciphertext is the AES-GCM output: encrypted plaintext || 16-byte tag.
	Ciphertext string `json:"ciphertext"`
	// Sig is the ML-DSA-65 signature over the transcript.
	Sig string `json:"sig"`
	// ServerSigPk is the signing public key whose private counterpart
	// produced Sig.
	ServerSigPk string `json:"server_sig_pk"`
}

// Validate checks the envelope version and algorithm suite against the
// supported set. It performs no cryptographic work, so it is safe to call on
// untrusted input before anything else; Open runs it first.
func (e *Envelope) Validate() error {
	if e.V != Version {
		return &UnsupportedEnvelopeError{Field: "v", Value: fmt.Sprintf("%d", e.V)}
	}

	want := DefaultAlgorithms()
	if e.Algs.KEM != want.KEM {
		return &UnsupportedEnvelopeError{Field: "algs.kem", Value: e.Algs.KEM}
	}
	if e.Algs.Sig != want.Sig {
		return &UnsupportedEnvelopeError{Field: "algs.sig", Value: e.Algs.Sig}
	}
	if e.Algs.AEAD != want.AEAD {
		return &UnsupportedEnvelopeError{Field: "algs.aead", Value: e.Algs.AEAD}
	}
	if e.Algs.KDF != want.KDF {
		return &UnsupportedEnvelopeError{Field: "algs.kdf", Value: e.Algs.KDF}
	}

	return nil
}

// Marshal serializes the envelope to its JSON wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope deserializes an envelope from its JSON wire form. It does
// not validate; Open performs validation as its first gate.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, &EncodingError{Field: "envelope", Err: err}
	}
	return &e, nil
}

// decoded holds the raw bytes of an envelope's binary fields.
type decoded struct {
	ctKem       []byte
	nonce       []byte
	aad         []byte
	ciphertext  []byte
	sig         []byte
	serverSigPk []byte
}

// decode base64url-decodes all binary fields and checks fixed-size fields
// against their expected lengths.
func (e *Envelope) decode() (*decoded, error) {
	var d decoded
	var err error

	fields := []struct {
		name string
		src  string
		dst  *[]byte
		size int // 0 means variable length
	}{
		{"ct_kem", e.CtKem, &d.ctKem, crypto.MLKEMCiphertextSize},
		{"nonce", e.Nonce, &d.nonce, crypto.AESNonceSize},
		{"aad", e.AAD, &d.aad, 0},
		{"ciphertext", e.Ciphertext, &d.ciphertext, 0},
		{"sig", e.Sig, &d.sig, crypto.MLDSASignatureSize},
		{"server_sig_pk", e.ServerSigPk, &d.serverSigPk, crypto.MLDSAPublicKeySize},
	}

	for _, f := range fields {
		if *f.dst, err = crypto.FromBase64URL(f.src); err != nil {
			return nil, &EncodingError{Field: f.name, Err: err}
		}
		if f.size != 0 && len(*f.dst) != f.size {
			return nil, &EncodingError{
				Field: f.name,
				Err:   fmt.Errorf("decoded length %d, want %d", len(*f.dst), f.size),
			}
		}
	}

	// AES-GCM output always carries the full tag.
	if len(d.ciphertext) < crypto.AESTagSize {
		return nil, &EncodingError{
			Field: "ciphertext",
			Err:   fmt.Errorf("decoded length %d shorter than tag", len(d.ciphertext)),
		}
	}

	return &d, nil
}

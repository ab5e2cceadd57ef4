package envelope

import (
	"fmt"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// ServerInfo is the discovery payload a server exposes so clients can learn
// the current signer identity and algorithm suite before opening envelopes.
// It is informational only: every envelope remains independently
// self-describing and self-verifying.
type ServerInfo struct {
	// ServerSigPk is the server's ML-DSA-65 public key (base64url).
	ServerSigPk string `json:"serverSigPk"`
	// Algs is the algorithm suite the server seals with.
	Algs AlgorithmSuite `json:"algs"`
	// Context is the protocol context string.
	Context string `json:"context"`
}

// NewServerInfo builds the discovery payload for a signing public key.
func NewServerInfo(serverSigPk []byte) ServerInfo {
	return ServerInfo{
		ServerSigPk: crypto.ToBase64URL(serverSigPk),
		Algs:        DefaultAlgorithms(),
		Context:     Context,
	}
}

// Validate checks that the discovery payload is well-formed: a correctly
// sized signing key, a supported algorithm suite, and the expected context.
func (s ServerInfo) Validate() error {
	pk, err := crypto.FromBase64URL(s.ServerSigPk)
	if err != nil {
		return &EncodingError{Field: "serverSigPk", Err: err}
	}
	if len(pk) != crypto.MLDSAPublicKeySize {
		return &EncodingError{
			Field: "serverSigPk",
			Err:   fmt.Errorf("decoded length %d, want %d", len(pk), crypto.MLDSAPublicKeySize),
		}
	}
	if s.Algs != DefaultAlgorithms() {
		return &UnsupportedEnvelopeError{Field: "algs", Value: s.Algs.String()}
	}
	if s.Context != Context {
		return &UnsupportedEnvelopeError{Field: "context", Value: s.Context}
	}
	return nil
}

// ServerSigPkBytes returns the decoded signing public key.
func (s ServerInfo) ServerSigPkBytes() ([]byte, error) {
	pk, err := crypto.FromBase64URL(s.ServerSigPk)
	if err != nil {
		return nil, &EncodingError{Field: "serverSigPk", Err: err}
	}
	return pk, nil
}

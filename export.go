package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vaultsandbox/envelope-go/internal/crypto"
)

// ExportVersion is the current key-export format version.
const ExportVersion = 1

// ExportedKeys is the file format for persisting the key material a
// recipient needs to open envelopes later: the ML-KEM-768 secret key and the
// server's signing public key for pinning.
//
// WARNING: this contains private key material - handle securely.
// The KEM public key is not included; it is derived from the secret key.
type ExportedKeys struct {
	// Version is the export format version. MUST be 1.
	Version int `json:"version"`
	// SecretKey is the ML-KEM-768 secret key (base64url, 2400 bytes decoded).
	SecretKey string `json:"secretKey"`
	// ServerSigPk is the server's ML-DSA-65 public key (base64url, 1952
	// bytes decoded).
	ServerSigPk string `json:"serverSigPk"`
	// ExportedAt is the export timestamp (ISO 8601). Informational only.
	ExportedAt time.Time `json:"exportedAt"`
}

// Export packages the keypair's secret key together with the server signing
// key it should be pinned to.
func (k *Keypair) Export(serverSigPk []byte) *ExportedKeys {
	return &ExportedKeys{
		Version:     ExportVersion,
		SecretKey:   crypto.ToBase64URL(k.SecretKey),
		ServerSigPk: crypto.ToBase64URL(serverSigPk),
		ExportedAt:  time.Now().UTC(),
	}
}

// Validate checks that the exported data is well-formed. Validation steps
// run in order: version, secret key, server signing key.
func (e *ExportedKeys) Validate() error {
	if e.Version != ExportVersion {
		return fmt.Errorf("%w: unsupported version %d, expected %d", ErrInvalidExportData, e.Version, ExportVersion)
	}

	if e.SecretKey == "" {
		return fmt.Errorf("%w: secretKey is required", ErrInvalidExportData)
	}
	secretKey, err := crypto.FromBase64URL(e.SecretKey)
	if err != nil {
		return fmt.Errorf("%w: invalid secretKey encoding", ErrInvalidExportData)
	}
	if len(secretKey) != crypto.MLKEMSecretKeySize {
		return fmt.Errorf("%w: secretKey size %d, expected %d", ErrInvalidExportData, len(secretKey), crypto.MLKEMSecretKeySize)
	}

	if e.ServerSigPk == "" {
		return fmt.Errorf("%w: serverSigPk is required", ErrInvalidExportData)
	}
	serverSigPk, err := crypto.FromBase64URL(e.ServerSigPk)
	if err != nil {
		return fmt.Errorf("%w: invalid serverSigPk encoding", ErrInvalidExportData)
	}
	if len(serverSigPk) != crypto.MLDSAPublicKeySize {
		return fmt.Errorf("%w: serverSigPk size %d, expected %d", ErrInvalidExportData, len(serverSigPk), crypto.MLDSAPublicKeySize)
	}

	return nil
}

// Restore reconstructs the keypair and the pinned server signing key from
// exported data.
func (e *ExportedKeys) Restore() (*Keypair, []byte, error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}

	// Validate() already verified encodings and sizes.
	secretKey, _ := crypto.FromBase64URL(e.SecretKey)
	serverSigPk, _ := crypto.FromBase64URL(e.ServerSigPk)

	keypair, err := KeypairFromSecretKey(secretKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to reconstruct keypair: %v", ErrInvalidExportData, err)
	}

	return keypair, serverSigPk, nil
}

// ParseExportedKeys deserializes and validates exported key material.
func ParseExportedKeys(data []byte) (*ExportedKeys, error) {
	var e ExportedKeys
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExportData, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

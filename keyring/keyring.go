// Package keyring provisions and persists the server's ML-DSA-65 signing
// keypair across process restarts. On first open a fresh keypair is
// generated and stored; afterwards the same keypair is loaded, so envelopes
// sealed before and after a restart verify against the same server_sig_pk.
//
// The secret key is kept in locked memory (memguard) while the process runs
// and only materialized into a Signer for the duration of a sealing call.
package keyring

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"go.etcd.io/bbolt"

	envelope "github.com/vaultsandbox/envelope-go"
)

var (
	bucketKeys     = []byte("signing")
	keySecret      = []byte("mldsa65-secret")
	keyPublic      = []byte("mldsa65-public")
	errKeyNotFound = errors.New("signing key not found")
)

// Keyring holds the server signing keypair, backed by a bbolt database.
type Keyring struct {
	db        *bbolt.DB
	secret    *memguard.Enclave
	publicKey []byte
}

// Open opens (or creates) the keyring database at path and loads or
// generates the signing keypair.
func Open(path string) (*Keyring, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening keyring db: %w", err)
	}

	kr := &Keyring{db: db}
	if err := kr.loadOrGenerate(); err != nil {
		db.Close()
		return nil, err
	}
	return kr, nil
}

func (kr *Keyring) loadOrGenerate() error {
	pub, sec, err := kr.load()
	if err == nil {
		kr.publicKey = pub
		kr.secret = memguard.NewEnclave(sec)
		return nil
	}
	if !errors.Is(err, errKeyNotFound) {
		return err
	}

	signer, err := envelope.GenerateSigner()
	if err != nil {
		return fmt.Errorf("generating signing keypair: %w", err)
	}

	if err := kr.store(signer.PublicKey, signer.SecretKey); err != nil {
		return err
	}

	kr.publicKey = signer.PublicKey
	// NewEnclave wipes its input; pass a copy so the stored signer stays
	// intact until it goes out of scope.
	secCopy := make([]byte, len(signer.SecretKey))
	copy(secCopy, signer.SecretKey)
	kr.secret = memguard.NewEnclave(secCopy)
	return nil
}

func (kr *Keyring) load() (publicKey, secretKey []byte, err error) {
	err = kr.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		if b == nil {
			return errKeyNotFound
		}
		sec := b.Get(keySecret)
		pub := b.Get(keyPublic)
		if sec == nil || pub == nil {
			return errKeyNotFound
		}
		// Copy out of the transaction-owned pages.
		secretKey = append([]byte(nil), sec...)
		publicKey = append([]byte(nil), pub...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return publicKey, secretKey, nil
}

func (kr *Keyring) store(publicKey, secretKey []byte) error {
	return kr.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketKeys)
		if err != nil {
			return err
		}
		if err := b.Put(keySecret, secretKey); err != nil {
			return err
		}
		return b.Put(keyPublic, publicKey)
	})
}

// PublicKey returns the raw ML-DSA-65 public key.
func (kr *Keyring) PublicKey() []byte {
	return kr.publicKey
}

// ServerInfo returns the discovery payload for this keyring's signer.
func (kr *Keyring) ServerInfo() envelope.ServerInfo {
	return envelope.NewServerInfo(kr.publicKey)
}

// Signer materializes the signing keypair for a sealing operation. The
// returned Signer holds a private copy of the secret key.
func (kr *Keyring) Signer() (*envelope.Signer, error) {
	buf, err := kr.secret.Open()
	if err != nil {
		return nil, fmt.Errorf("opening signing key enclave: %w", err)
	}
	defer buf.Destroy()

	secretKey := append([]byte(nil), buf.Bytes()...)
	return &envelope.Signer{PublicKey: kr.publicKey, SecretKey: secretKey}, nil
}

// Close closes the underlying database.
func (kr *Keyring) Close() error {
	return kr.db.Close()
}

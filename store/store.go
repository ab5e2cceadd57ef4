// Package store persists sealed emails in maildir-format mailboxes. It is
// the ingestion-side collaborator of the envelope protocol: captured emails
// are sealed on the way in and can only be opened by the holder of the
// inbox's secret key.
//
// Each mailbox is a maildir under the store root; each message file holds
// the JSON form of one sealedmail.SealedEmail. Records are immutable:
// content never changes in place, and eviction via Delete is the only way a
// record disappears.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-maildir"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/authresults"
	"github.com/vaultsandbox/envelope-go/sealedmail"
	"github.com/vaultsandbox/envelope-go/spamanalysis"
)

var (
	// ErrMailboxNotFound is returned when the mailbox maildir does not exist.
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrMessageNotFound is returned when no message has the given key.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidMailbox is returned for mailbox names that would escape the
	// store root.
	ErrInvalidMailbox = errors.New("invalid mailbox name")
)

// Store is a maildir-backed sealed-email store.
type Store struct {
	root     string
	signer   *envelope.Signer
	analyzer *spamanalysis.Analyzer
}

// New creates a store rooted at path, sealing ingested email with signer.
func New(path string, signer *envelope.Signer) (*Store, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signer", envelope.ErrInvalidKeyMaterial)
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	return &Store{
		root:     path,
		signer:   signer,
		analyzer: spamanalysis.NewAnalyzer(),
	}, nil
}

// mailboxPath validates the mailbox name and resolves it under the root.
func (s *Store) mailboxPath(mailbox string) (string, error) {
	if mailbox == "" || strings.ContainsAny(mailbox, "/\\") || strings.Contains(mailbox, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidMailbox, mailbox)
	}
	return filepath.Join(s.root, mailbox), nil
}

// ensureMaildir ensures the mailbox maildir exists, creating it if necessary.
func (s *Store) ensureMaildir(mailbox string) (maildir.Dir, error) {
	path, err := s.mailboxPath(mailbox)
	if err != nil {
		return "", err
	}
	dir := maildir.Dir(path)

	if _, err := os.Stat(filepath.Join(path, "cur")); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0700); err != nil {
			return "", err
		}
		if err := dir.Init(); err != nil {
			return "", err
		}
	}

	return dir, nil
}

// openMaildir resolves an existing mailbox maildir without creating it.
func (s *Store) openMaildir(mailbox string) (maildir.Dir, error) {
	path, err := s.mailboxPath(mailbox)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(path, "cur")); os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", mailbox, ErrMailboxNotFound)
	}
	return maildir.Dir(path), nil
}

// Ingest seals a captured email for the mailbox's recipient key and delivers
// the sealed record. This is the point where the encryption side of the
// envelope protocol runs; the plaintext is never written to disk.
//
// Before sealing, the metadata is enriched with whatever the capture
// pipeline did not already supply: authentication results parsed from the
// raw message, and a spam verdict.
func (s *Store) Ingest(mailbox string, meta sealedmail.Metadata, parsed sealedmail.Parsed, raw, recipientPublicKey []byte) (*sealedmail.SealedEmail, error) {
	if meta.Auth == nil {
		meta.Auth = authresults.ParseMessage(raw)
	}
	if meta.Spam == nil {
		meta.Spam = s.analyzer.Analyze(spamanalysis.Input{
			From:    meta.From,
			Subject: meta.Subject,
			Text:    parsed.Text,
			HTML:    parsed.HTML,
			Links:   parsed.Links,
		})
	}

	se, err := sealedmail.Seal(meta, parsed, raw, recipientPublicKey, s.signer)
	if err != nil {
		return nil, fmt.Errorf("seal email: %w", err)
	}

	if err := s.Put(mailbox, se); err != nil {
		return nil, err
	}
	return se, nil
}

// Put delivers an already-sealed email record to the mailbox.
func (s *Store) Put(mailbox string, se *sealedmail.SealedEmail) error {
	dir, err := s.ensureMaildir(mailbox)
	if err != nil {
		return err
	}

	data, err := json.Marshal(se)
	if err != nil {
		return fmt.Errorf("marshal sealed email: %w", err)
	}

	delivery, err := maildir.NewDelivery(string(dir))
	if err != nil {
		return fmt.Errorf("start delivery: %w", err)
	}

	if _, err := delivery.Write(data); err != nil {
		_ = delivery.Abort()
		return fmt.Errorf("write sealed email: %w", err)
	}

	return delivery.Close()
}

// Get loads the sealed record stored under the given maildir key.
func (s *Store) Get(mailbox, key string) (*sealedmail.SealedEmail, error) {
	dir, err := s.openMaildir(mailbox)
	if err != nil {
		return nil, err
	}

	msg, err := dir.MessageByKey(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMessageNotFound)
	}

	r, err := msg.Open()
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	var se sealedmail.SealedEmail
	if err := json.Unmarshal(data, &se); err != nil {
		return nil, fmt.Errorf("parse sealed email: %w", err)
	}
	return &se, nil
}

// Entry describes one stored sealed email.
type Entry struct {
	// Key is the maildir key; pass it to Get, Open or Delete.
	Key string
	// ID is the sealed email's id.
	ID string
}

// List returns the entries in a mailbox. Unseen messages are moved from
// new/ to cur/ as a side effect of listing, per maildir semantics.
func (s *Store) List(mailbox string) ([]Entry, error) {
	dir, err := s.openMaildir(mailbox)
	if err != nil {
		return nil, err
	}

	if _, err := dir.Unseen(); err != nil {
		return nil, fmt.Errorf("scan new messages: %w", err)
	}

	msgs, err := dir.Messages()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		se, err := s.Get(mailbox, msg.Key())
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: msg.Key(), ID: se.ID})
	}
	return entries, nil
}

// Open loads and opens a stored sealed email with the recipient's keypair.
func (s *Store) Open(mailbox, key string, keypair *envelope.Keypair, opts ...envelope.OpenOption) (*sealedmail.Email, error) {
	se, err := s.Get(mailbox, key)
	if err != nil {
		return nil, err
	}
	return sealedmail.Open(se, keypair, opts...)
}

// Delete evicts a sealed email. Envelopes are immutable, so eviction is the
// only destroy path for stored content.
func (s *Store) Delete(mailbox, key string) error {
	dir, err := s.openMaildir(mailbox)
	if err != nil {
		return err
	}

	msg, err := dir.MessageByKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", key, ErrMessageNotFound)
	}

	if err := msg.Remove(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Package sealedmail seals and opens captured emails as sets of envelopes.
//
// One captured email produces three independent envelopes sharing the same
// recipient key: metadata (a lightweight preview), parsed content, and the
// raw RFC822 bytes. Each envelope carries AAD binding it to the email id and
// artifact kind, so a ciphertext can never be served in place of a sibling.
package sealedmail

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/authresults"
	"github.com/vaultsandbox/envelope-go/spamanalysis"
)

// Artifact kinds bound into each envelope's AAD.
const (
	kindMetadata = "metadata"
	kindParsed   = "parsed"
	kindRaw      = "raw"
)

// Metadata is the lightweight email preview sealed into the metadata
// envelope.
type Metadata struct {
	// From is the sender's email address.
	From string `json:"from"`
	// To is the primary recipient.
	To string `json:"to"`
	// Subject is the email subject line.
	Subject string `json:"subject"`
	// ReceivedAt is when the email was received (ISO 8601).
	ReceivedAt string `json:"receivedAt"`
	// Auth carries the authentication check results captured at ingest.
	Auth *authresults.AuthResults `json:"auth,omitempty"`
	// Spam carries the spam analysis captured at ingest.
	Spam *spamanalysis.Analysis `json:"spam,omitempty"`
}

// Parsed is the full parsed email content sealed into the parsed envelope.
type Parsed struct {
	// Text is the plain text body.
	Text string `json:"text"`
	// HTML is the HTML body, if present.
	HTML string `json:"html,omitempty"`
	// Headers contains the email headers as key-value pairs.
	Headers map[string]string `json:"headers,omitempty"`
	// Attachments contains the email attachments with their content.
	Attachments []Attachment `json:"attachments,omitempty"`
	// Links contains URLs extracted from the email body.
	Links []string `json:"links,omitempty"`
}

// Attachment is a single email attachment.
type Attachment struct {
	// Filename is the attachment's filename.
	Filename string `json:"filename"`
	// ContentType is the MIME type (e.g., "application/pdf").
	ContentType string `json:"contentType"`
	// Size is the attachment size in bytes.
	Size int `json:"size"`
	// ContentID is the Content-ID for inline attachments.
	ContentID string `json:"contentId,omitempty"`
	// Content is the raw attachment data (base64 on the wire).
	Content []byte `json:"content,omitempty"`
}

// SealedEmail is the persisted record for one captured email: three
// envelopes sealed under the same recipient public key with distinct AAD.
// It is immutable; eviction is the only destroy path.
type SealedEmail struct {
	// ID is the unique email identifier, also bound into every AAD.
	ID string `json:"id"`
	// ReceivedAt is the capture timestamp.
	ReceivedAt time.Time `json:"receivedAt"`
	// EncryptedMetadata seals the Metadata JSON.
	EncryptedMetadata *envelope.Envelope `json:"encryptedMetadata"`
	// EncryptedParsed seals the Parsed JSON.
	EncryptedParsed *envelope.Envelope `json:"encryptedParsed"`
	// EncryptedRaw seals the raw RFC822 bytes.
	EncryptedRaw *envelope.Envelope `json:"encryptedRaw"`
}

// Email is a fully opened email.
type Email struct {
	ID         string
	ReceivedAt time.Time
	Metadata   Metadata
	Parsed     Parsed
	Raw        []byte
}

// ArtifactAAD returns the associated data binding an artifact to its email:
// "<id>:<kind>".
func ArtifactAAD(id, kind string) []byte {
	return []byte(id + ":" + kind)
}

// Seal seals one captured email for the holder of recipientPublicKey. A
// fresh email id is generated and bound into each envelope's AAD.
func Seal(meta Metadata, parsed Parsed, raw []byte, recipientPublicKey []byte, signer *envelope.Signer) (*SealedEmail, error) {
	id := uuid.NewString()

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("marshal parsed content: %w", err)
	}

	encMeta, err := envelope.Seal(metaJSON, recipientPublicKey, ArtifactAAD(id, kindMetadata), signer)
	if err != nil {
		return nil, fmt.Errorf("seal metadata: %w", err)
	}
	encParsed, err := envelope.Seal(parsedJSON, recipientPublicKey, ArtifactAAD(id, kindParsed), signer)
	if err != nil {
		return nil, fmt.Errorf("seal parsed content: %w", err)
	}
	encRaw, err := envelope.Seal(raw, recipientPublicKey, ArtifactAAD(id, kindRaw), signer)
	if err != nil {
		return nil, fmt.Errorf("seal raw source: %w", err)
	}

	return &SealedEmail{
		ID:                id,
		ReceivedAt:        time.Now().UTC(),
		EncryptedMetadata: encMeta,
		EncryptedParsed:   encParsed,
		EncryptedRaw:      encRaw,
	}, nil
}

// Open verifies and decrypts all three artifacts of a sealed email.
func Open(se *SealedEmail, keypair *envelope.Keypair, opts ...envelope.OpenOption) (*Email, error) {
	meta, err := OpenMetadata(se, keypair, opts...)
	if err != nil {
		return nil, err
	}

	if se.EncryptedParsed == nil {
		return nil, fmt.Errorf("sealed email %s has no parsed content", se.ID)
	}
	parsedJSON, err := envelope.Open(se.EncryptedParsed, keypair, opts...)
	if err != nil {
		return nil, fmt.Errorf("open parsed content: %w", err)
	}
	var parsed Parsed
	if err := json.Unmarshal(parsedJSON, &parsed); err != nil {
		return nil, fmt.Errorf("parse decrypted content: %w", err)
	}

	if se.EncryptedRaw == nil {
		return nil, fmt.Errorf("sealed email %s has no raw source", se.ID)
	}
	raw, err := envelope.Open(se.EncryptedRaw, keypair, opts...)
	if err != nil {
		return nil, fmt.Errorf("open raw source: %w", err)
	}

	return &Email{
		ID:         se.ID,
		ReceivedAt: se.ReceivedAt,
		Metadata:   *meta,
		Parsed:     parsed,
		Raw:        raw,
	}, nil
}

// OpenMetadata decrypts only the metadata envelope, for listings that don't
// need the full body.
func OpenMetadata(se *SealedEmail, keypair *envelope.Keypair, opts ...envelope.OpenOption) (*Metadata, error) {
	if se.EncryptedMetadata == nil {
		return nil, fmt.Errorf("sealed email %s has no metadata", se.ID)
	}

	metaJSON, err := envelope.Open(se.EncryptedMetadata, keypair, opts...)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("parse decrypted metadata: %w", err)
	}
	return &meta, nil
}

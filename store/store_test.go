package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/sealedmail"
)

func testSigner(t *testing.T) *envelope.Signer {
	t.Helper()
	signer, err := envelope.GenerateSigner()
	require.NoError(t, err)
	return signer
}

func testKeypair(t *testing.T) *envelope.Keypair {
	t.Helper()
	kp, err := envelope.GenerateKeypair()
	require.NoError(t, err)
	return kp
}

func testEmail() (sealedmail.Metadata, sealedmail.Parsed, []byte) {
	meta := sealedmail.Metadata{
		From:    "sender@example.com",
		To:      "inbox@vaultsandbox.test",
		Subject: "Password reset",
	}
	parsed := sealedmail.Parsed{
		Text:  "Click the link to reset your password.",
		Links: []string{"https://example.com/reset?token=abc"},
	}
	raw := []byte("From: sender@example.com\r\nSubject: Password reset\r\n\r\nClick the link.")
	return meta, parsed, raw
}

func TestStore_IngestAndOpen(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	meta, parsed, raw := testEmail()
	se, err := s.Ingest("inbox", meta, parsed, raw, kp.PublicKey)
	require.NoError(t, err)
	require.NotEmpty(t, se.ID)

	entries, err := s.List("inbox")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, se.ID, entries[0].ID)

	email, err := s.Open("inbox", entries[0].Key, kp,
		envelope.WithPinnedServerKey(signer.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, meta.From, email.Metadata.From)
	assert.Equal(t, meta.Subject, email.Metadata.Subject)
	assert.Equal(t, parsed.Text, email.Parsed.Text)
	assert.Equal(t, raw, email.Raw)

	// Ingest attaches a spam verdict before sealing.
	require.NotNil(t, email.Metadata.Spam)
	assert.True(t, email.Metadata.Spam.WasAnalyzed())
	assert.False(t, *email.Metadata.Spam.IsSpam)
}

func TestStore_IngestParsesAuthResults(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	raw := []byte("Authentication-Results: mx.example.com;\r\n" +
		" spf=pass smtp.mailfrom=example.com;\r\n" +
		" dkim=pass header.d=example.com;\r\n" +
		" dmarc=pass header.from=example.com\r\n" +
		"From: sender@example.com\r\n" +
		"Subject: verified\r\n" +
		"\r\n" +
		"body")
	meta := sealedmail.Metadata{From: "sender@example.com", Subject: "verified"}

	_, err = s.Ingest("inbox", meta, sealedmail.Parsed{Text: "body"}, raw, kp.PublicKey)
	require.NoError(t, err)

	entries, err := s.List("inbox")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	email, err := s.Open("inbox", entries[0].Key, kp)
	require.NoError(t, err)
	require.NotNil(t, email.Metadata.Auth)
	assert.True(t, email.Metadata.Auth.IsPassing())
}

func TestStore_SealedOnDisk(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	meta, parsed, raw := testEmail()
	_, err = s.Ingest("inbox", meta, parsed, raw, kp.PublicKey)
	require.NoError(t, err)

	entries, err := s.List("inbox")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	se, err := s.Get("inbox", entries[0].Key)
	require.NoError(t, err)

	// The stored record carries only envelopes; no plaintext survives Get.
	assert.NotNil(t, se.EncryptedMetadata)
	assert.NotNil(t, se.EncryptedParsed)
	assert.NotNil(t, se.EncryptedRaw)
	assert.NotContains(t, se.EncryptedRaw.Ciphertext, "Password reset")
}

func TestStore_OpenWrongKeypair(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	meta, parsed, raw := testEmail()
	_, err = s.Ingest("inbox", meta, parsed, raw, kp.PublicKey)
	require.NoError(t, err)

	entries, err := s.List("inbox")
	require.NoError(t, err)

	other := testKeypair(t)
	_, err = s.Open("inbox", entries[0].Key, other)
	assert.ErrorIs(t, err, envelope.ErrAuthenticationFailed)
}

func TestStore_Delete(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	meta, parsed, raw := testEmail()
	_, err = s.Ingest("inbox", meta, parsed, raw, kp.PublicKey)
	require.NoError(t, err)

	entries, err := s.List("inbox")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, s.Delete("inbox", entries[0].Key))

	entries, err = s.List("inbox")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Get("inbox", "gone")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestStore_MailboxIsolation(t *testing.T) {
	signer := testSigner(t)
	kp := testKeypair(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	meta, parsed, raw := testEmail()
	_, err = s.Ingest("alpha", meta, parsed, raw, kp.PublicKey)
	require.NoError(t, err)

	entries, err := s.List("alpha")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = s.List("beta")
	assert.ErrorIs(t, err, ErrMailboxNotFound)
}

func TestStore_InvalidMailboxName(t *testing.T) {
	signer := testSigner(t)

	s, err := New(t.TempDir(), signer)
	require.NoError(t, err)

	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := s.List(name)
		assert.ErrorIs(t, err, ErrInvalidMailbox, "name %q", name)
	}
}

func TestNew_NilSigner(t *testing.T) {
	_, err := New(t.TempDir(), nil)
	assert.ErrorIs(t, err, envelope.ErrInvalidKeyMaterial)
}

package sealedmail

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	envelope "github.com/vaultsandbox/envelope-go"
)

func testFixtures(t *testing.T) (*envelope.Signer, *envelope.Keypair) {
	t.Helper()
	signer, err := envelope.GenerateSigner()
	if err != nil {
		t.Fatal(err)
	}
	kp, err := envelope.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	return signer, kp
}

func sampleEmail() (Metadata, Parsed, []byte) {
	meta := Metadata{
		From:       "alice@example.com",
		To:         "bob@sandbox.test",
		Subject:    "Quarterly report",
		ReceivedAt: "2026-08-27T10:00:00Z",
	}
	parsed := Parsed{
		Text:    "See attachment.",
		HTML:    "<p>See attachment.</p>",
		Headers: map[string]string{"Message-Id": "<q3@example.com>"},
		Attachments: []Attachment{{
			Filename:    "report.pdf",
			ContentType: "application/pdf",
			Size:        4,
			Content:     []byte{0x25, 0x50, 0x44, 0x46},
		}},
		Links: []string{"https://example.com/report"},
	}
	raw := []byte("From: alice@example.com\r\nSubject: Quarterly report\r\n\r\nSee attachment.\r\n")
	return meta, parsed, raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	signer, kp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if se.ID == "" {
		t.Error("sealed email has empty id")
	}
	if se.ReceivedAt.IsZero() {
		t.Error("sealed email has zero timestamp")
	}

	email, err := Open(se, kp)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if email.Metadata != meta {
		t.Errorf("Metadata = %+v, want %+v", email.Metadata, meta)
	}
	if email.Parsed.Text != parsed.Text || email.Parsed.HTML != parsed.HTML {
		t.Errorf("Parsed body = %+v, want %+v", email.Parsed, parsed)
	}
	if len(email.Parsed.Attachments) != 1 || !bytes.Equal(email.Parsed.Attachments[0].Content, parsed.Attachments[0].Content) {
		t.Errorf("Attachments = %+v", email.Parsed.Attachments)
	}
	if !bytes.Equal(email.Raw, raw) {
		t.Errorf("Raw = %q, want %q", email.Raw, raw)
	}
}

func TestSeal_DistinctAADPerArtifact(t *testing.T) {
	signer, kp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
	if err != nil {
		t.Fatal(err)
	}

	aads := map[string]string{
		"metadata": se.EncryptedMetadata.AAD,
		"parsed":   se.EncryptedParsed.AAD,
		"raw":      se.EncryptedRaw.AAD,
	}
	seen := map[string]bool{}
	for kind, aad := range aads {
		if aad == "" {
			t.Errorf("%s envelope has empty aad", kind)
		}
		if seen[aad] {
			t.Errorf("duplicate aad across artifacts: %s", aad)
		}
		seen[aad] = true
	}
}

func TestOpen_SwappedSiblingEnvelope(t *testing.T) {
	signer, kp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
	if err != nil {
		t.Fatal(err)
	}

	// The raw envelope served in place of the metadata envelope must not
	// produce a readable email.
	se.EncryptedMetadata = se.EncryptedRaw

	email, err := Open(se, kp)
	if err == nil {
		t.Fatalf("Open() succeeded with swapped envelopes: %+v", email)
	}
}

func TestOpen_WrongKeypair(t *testing.T) {
	signer, kp := testFixtures(t)
	_, wrongKp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Open(se, wrongKp)
	if !errors.Is(err, envelope.ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestOpenMetadata_Preview(t *testing.T) {
	signer, kp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
	if err != nil {
		t.Fatal(err)
	}

	got, err := OpenMetadata(se, kp, envelope.WithPinnedServerKey(signer.PublicKey))
	if err != nil {
		t.Fatalf("OpenMetadata() error = %v", err)
	}
	if *got != meta {
		t.Errorf("OpenMetadata() = %+v, want %+v", *got, meta)
	}
}

func TestArtifactAAD(t *testing.T) {
	aad := ArtifactAAD("email-7", "raw")
	if string(aad) != "email-7:raw" {
		t.Errorf("ArtifactAAD() = %s", aad)
	}
}

func TestSeal_UniqueIDs(t *testing.T) {
	signer, kp := testFixtures(t)
	meta, parsed, raw := sampleEmail()

	ids := map[string]bool{}
	for i := 0; i < 5; i++ {
		se, err := Seal(meta, parsed, raw, kp.PublicKey, signer)
		if err != nil {
			t.Fatal(err)
		}
		if ids[se.ID] {
			t.Fatalf("duplicate email id %s", se.ID)
		}
		if strings.TrimSpace(se.ID) == "" {
			t.Fatal("blank email id")
		}
		ids[se.ID] = true
	}
}

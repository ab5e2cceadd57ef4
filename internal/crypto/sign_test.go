package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	pub, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatalf("GenerateSigningKeypair() error = %v", err)
	}

	if len(pub) != MLDSAPublicKeySize {
		t.Errorf("public key size = %d, want %d", len(pub), MLDSAPublicKeySize)
	}
	if len(sec) != MLDSASecretKeySize {
		t.Errorf("secret key size = %d, want %d", len(sec), MLDSASecretKeySize)
	}

	message := []byte("test message to sign")
	sig, err := Sign(sec, message)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if len(sig) != MLDSASignatureSize {
		t.Errorf("signature size = %d, want %d", len(sig), MLDSASignatureSize)
	}

	if err := Verify(pub, message, sig); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_TamperedMessage(t *testing.T) {
	pub, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(sec, []byte("original message"))
	if err != nil {
		t.Fatal(err)
	}

	err = Verify(pub, []byte("tampered message"), sig)
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Errorf("expected ErrSignatureVerificationFailed, got %v", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	pub, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("message")
	sig, err := Sign(sec, message)
	if err != nil {
		t.Fatal(err)
	}

	sig[0] ^= 0xff

	err = Verify(pub, message, sig)
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Errorf("expected ErrSignatureVerificationFailed, got %v", err)
	}
}

func TestVerify_WrongPublicKey(t *testing.T) {
	_, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}
	otherPub, _, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("message")
	sig, err := Sign(sec, message)
	if err != nil {
		t.Fatal(err)
	}

	err = Verify(otherPub, message, sig)
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Errorf("expected ErrSignatureVerificationFailed, got %v", err)
	}
}

func TestVerify_InvalidSignatureSize(t *testing.T) {
	pub, _, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	err = Verify(pub, []byte("message"), make([]byte, 10))
	if !errors.Is(err, ErrInvalidSignatureSize) {
		t.Errorf("expected ErrInvalidSignatureSize, got %v", err)
	}
}

func TestSign_InvalidSecretKeySize(t *testing.T) {
	_, err := Sign(make([]byte, 10), []byte("message"))
	if !errors.Is(err, ErrInvalidSecretKeySize) {
		t.Errorf("expected ErrInvalidSecretKeySize, got %v", err)
	}
}

func TestSigningPublicKeyFromSecret(t *testing.T) {
	pub, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	derived, err := SigningPublicKeyFromSecret(sec)
	if err != nil {
		t.Fatalf("SigningPublicKeyFromSecret() error = %v", err)
	}

	if !bytes.Equal(derived, pub) {
		t.Error("derived public key does not match generated public key")
	}
}

func TestSign_Randomized(t *testing.T) {
	_, sec, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("same message")
	sig1, err := Sign(sec, message)
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := Sign(sec, message)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(sig1, sig2) {
		t.Error("randomized signing produced identical signatures")
	}
}

// Package envelope implements the VaultSandbox hybrid post-quantum
// encryption envelope: the sealed record format that protects every captured
// email artifact so that only the holder of the recipient's secret key can
// read it, not the server operator.
//
// Sealing composes ML-KEM-768 key encapsulation, HKDF-SHA-512 key
// derivation, AES-256-GCM authenticated encryption, and an ML-DSA-65
// signature over a transcript of every envelope field. Opening reverses the
// composition under a strict gate order: version and algorithm checks,
// decoding, signature verification, and only then decapsulation and
// decryption.
//
// Basic usage:
//
//	signer, err := envelope.GenerateSigner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recipient, err := envelope.GenerateKeypair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	env, err := envelope.Seal([]byte(`{"subject":"Hello"}`), recipient.PublicKey, nil, signer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	plaintext, err := envelope.Open(env, recipient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both Seal and Open are pure, stateless and safe for concurrent use.
package envelope

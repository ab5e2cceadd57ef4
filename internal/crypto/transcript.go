package crypto

// BuildTranscript constructs the byte string that gets signed. Every field of
// the wire envelope is bound into it, including the declared ciphersuite and
// the signer's own public key, so none of them can be swapped without
// invalidating the signature:
//
//	byte(v) || ciphersuite || context || ct_kem || nonce || aad || ciphertext || server_sig_pk
func BuildTranscript(version int, ciphersuite string, ctKem, nonce, aad, ciphertext, serverSigPk []byte) []byte {
	transcript := make([]byte, 0,
		1+len(ciphersuite)+len(Context)+len(ctKem)+len(nonce)+len(aad)+len(ciphertext)+len(serverSigPk))

	transcript = append(transcript, byte(version))
	transcript = append(transcript, []byte(ciphersuite)...)
	transcript = append(transcript, []byte(Context)...)
	transcript = append(transcript, ctKem...)
	transcript = append(transcript, nonce...)
	transcript = append(transcript, aad...)
	transcript = append(transcript, ciphertext...)
	transcript = append(transcript, serverSigPk...)

	return transcript
}

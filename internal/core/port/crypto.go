package port

// CredentialCipher encrypts portal passwords at rest and decrypts them
// for the duration of a login call.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

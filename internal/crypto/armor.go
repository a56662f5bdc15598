package crypto

import (
	"encoding/base64"
	"encoding/binary"
)

// Transport artifact layout, before base64:
//
//	salt (32) || iterations (uint32 BE) || nonce (12) || ciphertext+tag
//
// Everything needed to decode except the password is embedded, so an
// artifact can be restored on any instance.
const headerSize = SaltSize + 4

// Seal encrypts plaintext with a key derived from password and returns a
// printable base64 artifact safe for files, clipboards and text fields.
func Seal(plaintext, password []byte) (string, error) {
	kdf, err := NewKDF()
	if err != nil {
		return "", err
	}

	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	sealed, err := encrypt(key, plaintext)
	if err != nil {
		return "", err
	}

	blob := make([]byte, headerSize+len(sealed))
	copy(blob, kdf.Salt)
	binary.BigEndian.PutUint32(blob[SaltSize:], uint32(kdf.Iterations))
	copy(blob[headerSize:], sealed)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decodes and decrypts a transport artifact produced by Seal.
// Returns ErrInvalidCiphertext when the artifact is not well formed and
// ErrAuthFailed when the password is wrong or the data was tampered with.
func Open(transport string, password []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(transport)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	if len(blob) < headerSize+NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	kdf := &KDF{
		Salt:       blob[:SaltSize],
		Iterations: int(binary.BigEndian.Uint32(blob[SaltSize:headerSize])),
	}
	if kdf.Iterations <= 0 {
		return nil, ErrInvalidCiphertext
	}

	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	return decrypt(key, blob[headerSize:])
}

// Package crypto provides the cryptographic layer for confbak backups.
//
// Backups are sealed with AES-256-GCM using:
//   - 32-byte key derived from the backup password via PBKDF2
//   - 12-byte random nonce per seal operation
//   - Authentication tag, so tampering and wrong passwords are detected
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 32-byte random salt per backup (travels with the artifact)
//   - 210,000 iterations (OWASP minimum recommendation)
//
// The transport artifact is a single base64 string carrying
// salt || iterations || nonce || ciphertext, so decoding needs nothing
// but the password.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto

// Package crypto is the vault's encryption engine: a process-wide AES-256 key
// and the blob envelope format written to object storage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrKeyGeneration means the randomness or cipher provider is unusable.
	// Fatal at startup: the service must not run without a key.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrDecryption covers malformed envelopes, tampered ciphertext and
	// wrong keys alike. No partial plaintext is ever returned with it.
	ErrDecryption = errors.New("decryption failed")
)

const (
	keySize   = 32
	nonceSize = 12

	envelopeVersion = 0x01
)

// Key is the process-lifetime symmetric key. Immutable after construction,
// safe for concurrent use by all operations.
type Key struct {
	id       string
	material []byte
}

// ID identifies which key sealed an envelope. Recorded in every blob so a
// future multi-key deployment can route decryption.
func (k Key) ID() string { return k.id }

// Encode returns the base64 form of the key material for external storage.
func (k Key) Encode() string {
	return base64.StdEncoding.EncodeToString(k.material)
}

// GenerateKey creates a fresh random AES-256 key.
func GenerateKey() (Key, error) {
	material := make([]byte, keySize)
	if _, err := rand.Read(material); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	// Fail now, not on first Encrypt, if the material is unusable.
	if _, err := aes.NewCipher(material); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return Key{id: uuid.NewString(), material: material}, nil
}

// ParseKey reconstructs a key from its base64 encoding, e.g. a master key
// supplied through configuration so restarts can decrypt prior blobs.
func ParseKey(id, encoded string) (Key, error) {
	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	if len(material) != keySize {
		return Key{}, fmt.Errorf("%w: key must be %d bytes, got %d", ErrKeyGeneration, keySize, len(material))
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Key{id: id, material: material}, nil
}

// Encrypt seals plaintext into a self-describing envelope:
//
//	version | keyID len | keyID | nonce | ciphertext
//
// The raw bytes are base64-encoded before sealing and the inverse applies on
// Decrypt, so the two must always be paired. A fresh random nonce is
// generated per call and persisted inside the envelope.
func Encrypt(plaintext []byte, key Key) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(plaintext)
	sealed := gcm.Seal(nil, nonce, []byte(encoded), nil)

	keyID := []byte(key.id)
	out := make([]byte, 0, 2+len(keyID)+nonceSize+len(sealed))
	out = append(out, envelopeVersion, byte(len(keyID)))
	out = append(out, keyID...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt opens an envelope produced by Encrypt and recovers the original
// bytes. Any structural damage, tampering or key mismatch yields
// ErrDecryption.
func Decrypt(blob []byte, key Key) ([]byte, error) {
	if len(blob) < 2 {
		return nil, fmt.Errorf("%w: envelope too short", ErrDecryption)
	}
	if blob[0] != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrDecryption, blob[0])
	}
	idLen := int(blob[1])
	if len(blob) < 2+idLen+nonceSize {
		return nil, fmt.Errorf("%w: envelope too short", ErrDecryption)
	}
	keyID := string(blob[2 : 2+idLen])
	if keyID != key.id {
		return nil, fmt.Errorf("%w: unknown key id", ErrDecryption)
	}
	nonce := blob[2+idLen : 2+idLen+nonceSize]
	sealed := blob[2+idLen+nonceSize:]

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	opened, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := base64.StdEncoding.DecodeString(string(opened))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.material)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}

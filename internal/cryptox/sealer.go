package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/waterwatch/internal/common"
	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the length of the key accepted by NewSealer.
const MasterKeySize = 32

// Sealer encrypts values at rest for a single storage namespace.
//
// Two sub-keys are derived from the master key with HKDF-SHA256, using the
// namespace as salt:
//   - an index key, used to blind lookup keys with HMAC-SHA256 so that the
//     same logical key always maps to the same opaque identifier;
//   - a value key, used with AES-256-GCM to seal the stored values.
//
// A Sealer is safe for concurrent use.
type Sealer struct {
	namespace string
	indexKey  []byte
	aead      cipher.AEAD
}

// NewSealer derives the namespace sub-keys from masterKey.
func NewSealer(masterKey []byte, namespace string) (*Sealer, error) {
	if len(masterKey) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d",
			common.ErrorInvalidKey, MasterKeySize, len(masterKey))
	}

	indexKey, err := deriveSubKey(masterKey, namespace, "index")
	if err != nil {
		return nil, err
	}
	valueKey, err := deriveSubKey(masterKey, namespace, "value")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(valueKey)

	block, err := aes.NewCipher(valueKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{namespace: namespace, indexKey: indexKey, aead: aead}, nil
}

func deriveSubKey(masterKey []byte, namespace, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, masterKey, []byte(namespace), []byte("waterwatch/"+purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Namespace returns the namespace the sub-keys were derived for.
func (s *Sealer) Namespace() string {
	return s.namespace
}

// KeyID returns the blinded identifier for a logical key.
func (s *Sealer) KeyID(key string) []byte {
	mac := hmac.New(sha256.New, s.indexKey)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// Seal encrypts plaintext with a fresh random nonce. aad is authenticated but
// not encrypted; the same aad must be passed to Open.
func (s *Sealer) Seal(plaintext, aad []byte) (ciphertext, nonce []byte) {
	nonce = common.GenerateRandByteArray(s.aead.NonceSize())
	return s.aead.Seal(nil, nonce, plaintext, aad), nonce
}

// Open decrypts a value produced by Seal. Any authentication failure
// (wrong key, wrong aad, modified bytes) is reported as common.ErrorCorrupted.
func (s *Sealer) Open(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce size %d", common.ErrorCorrupted, len(nonce))
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCorrupted, err)
	}
	return plaintext, nil
}

// SealEntry serializes entry to JSON and seals it.
//
// Example:
//
//	ciphertext, nonce, err := sealer.SealEntry(report, []byte(report.ID))
//	if err != nil {
//	    return err
//	}
func (s *Sealer) SealEntry(entry any, aad []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	ciphertext, nonce = s.Seal(plaintext, aad)
	return ciphertext, nonce, nil
}

// OpenEntry opens a value produced by SealEntry and unmarshals it into v.
func (s *Sealer) OpenEntry(ciphertext, nonce, aad []byte, v any) error {
	plaintext, err := s.Open(ciphertext, nonce, aad)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

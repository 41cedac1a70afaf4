package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// RecordProtector signs regulatory records (HMAC-SHA256 over a canonical
// payload) and encrypts sensitive identification fields (AES-256-GCM with
// versioned keys).
type RecordProtector struct {
	keys           map[int][]byte
	currentVersion int
	hmacSecret     []byte
	mu             sync.RWMutex
}

// NewRecordProtector creates a protector with versioned encryption keys and an
// HMAC signing secret, all base64-encoded.
func NewRecordProtector(keysBase64 []string, currentVersion int, hmacSecretBase64 string) (*RecordProtector, error) {
	if len(keysBase64) == 0 {
		return nil, errors.New("at least one encryption key is required")
	}

	keys := make(map[int][]byte)
	for i, keyB64 := range keysBase64 {
		key, err := base64.StdEncoding.DecodeString(keyB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key %d: %w", i+1, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key %d must be 32 bytes for AES-256, got %d", i+1, len(key))
		}
		keys[i+1] = key
	}

	if _, exists := keys[currentVersion]; !exists {
		return nil, fmt.Errorf("current version %d not found in keys", currentVersion)
	}

	hmacSecret, err := base64.StdEncoding.DecodeString(hmacSecretBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HMAC secret: %w", err)
	}

	return &RecordProtector{
		keys:           keys,
		currentVersion: currentVersion,
		hmacSecret:     hmacSecret,
	}, nil
}

// Sign produces an HMAC-SHA256 signature over the canonical payload formed by
// joining the parts with "|". SAR and CTR records are signed over
// (id, customer id, type, amount, date).
func (p *RecordProtector) Sign(parts ...string) string {
	data := strings.Join(parts, "|")
	h := hmac.New(sha256.New, p.hmacSecret)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign over the same parts.
func (p *RecordProtector) Verify(signature string, parts ...string) bool {
	expected := p.Sign(parts...)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// EncryptField encrypts a sensitive field value with the current key version.
func (p *RecordProtector) EncryptField(plaintext string) (string, int, error) {
	p.mu.RLock()
	key := p.keys[p.currentVersion]
	version := p.currentVersion
	p.mu.RUnlock()

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", 0, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), version, nil
}

// DecryptField decrypts a field value with the key version it was written
// under.
func (p *RecordProtector) DecryptField(ciphertext string, keyVersion int) (string, error) {
	p.mu.RLock()
	key, exists := p.keys[keyVersion]
	p.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("key version %d not found", keyVersion)
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(decoded) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertextBytes := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// CurrentKeyVersion returns the active encryption key version.
func (p *RecordProtector) CurrentKeyVersion() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentVersion
}

// RotateKey adds a new key and makes it the current version.
func (p *RecordProtector) RotateKey(newKeyBase64 string, newVersion int) error {
	newKey, err := base64.StdEncoding.DecodeString(newKeyBase64)
	if err != nil {
		return fmt.Errorf("failed to decode new key: %w", err)
	}
	if len(newKey) != 32 {
		return fmt.Errorf("new key must be 32 bytes for AES-256, got %d", len(newKey))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys[newVersion] = newKey
	p.currentVersion = newVersion

	return nil
}

// MaskID masks an identification number for logging; only the last four
// characters survive.
func MaskID(value string) string {
	if len(value) < 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// DefaultAppSecret is mixed into every key derivation unless configured otherwise.
const DefaultAppSecret = "baby-growth-record-secret"

var errEmptyPassphrase = errors.New("passphrase must not be empty")

// Cipher encrypts payloads under a passphrase combined with an
// application-level secret.
type Cipher struct {
	appSecret string
}

func NewCipher(appSecret string) *Cipher {
	if appSecret == "" {
		appSecret = DefaultAppSecret
	}
	return &Cipher{appSecret: appSecret}
}

// GenerateSalt returns 16 cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 32-byte AES-256 key with Argon2id from the passphrase,
// the application secret and salt.
func (c *Cipher) DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase+c.appSecret), salt, argonTime, argonMem, argonPar, keySize)
}

// Encrypt seals plaintext. Output format: [16-byte salt][12-byte nonce][AES-256-GCM ciphertext]
func (c *Cipher) Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, errEmptyPassphrase)
	}
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(c.DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt. Any failure to recover the
// plaintext, whether from a wrong passphrase or damaged bytes, is ErrDecryption.
func (c *Cipher) Decrypt(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, errEmptyPassphrase)
	}
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", model.ErrDecryption)
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	gcm, err := newGCM(c.DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

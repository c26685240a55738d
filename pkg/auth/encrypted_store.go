package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated file passphrase.
const PassphraseEnv = "TWEETBOT_PASSPHRASE"

const (
	saltSize       = 32
	keySize        = 32
	iterations     = 100000
	envelopeFormat = 1
)

// envelope is the on-disk form: the account map, JSON encoded and sealed
// with AES-GCM under a PBKDF2 key. The nonce is prefixed to Sealed.
type envelope struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore implements CredentialStore using an encrypted file
type EncryptedFileStore struct {
	path       string
	passphrase []byte

	mu sync.RWMutex
	// salt and key are kept after the first read or write so the
	// PBKDF2 derivation runs once per process.
	keyMu sync.Mutex
	salt  []byte
	key   []byte
}

// NewEncryptedFileStore opens the store at path. The passphrase comes from
// TWEETBOT_PASSPHRASE or a generated .passphrase file next to path.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	phrase, err := loadPassphrase(filepath.Join(filepath.Dir(path), ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: []byte(phrase)}, nil
}

func loadPassphrase(file string) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	if b, err := os.ReadFile(file); err == nil && len(b) > 0 {
		return string(b), nil
	}

	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	p := base64.URLEncoding.EncodeToString(raw)
	if err := os.WriteFile(file, []byte(p), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return p, nil
}

// Store saves credentials to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		accounts[account.Name] = *account
		return nil
	})
}

// Retrieve gets credentials from the encrypted file
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns all stored accounts
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		a := a
		out = append(out, &a)
	}
	return out, nil
}

// Delete removes credentials from the encrypted file. The file goes away
// with the last account.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		if _, ok := accounts[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, name)
		return nil
	})
}

// Exists checks if credentials exist
func (e *EncryptedFileStore) Exists(name string) bool {
	a, err := e.Retrieve(name)
	return err == nil && a != nil
}

// update applies fn to the decrypted accounts and writes the result back.
func (e *EncryptedFileStore) update(fn func(map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}
	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(accounts)
}

// read returns an empty map when the file does not exist yet.
func (e *EncryptedFileStore) read() (map[string]Account, error) {
	accounts := make(map[string]Account)

	data, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if env.Version != envelopeFormat {
		return nil, fmt.Errorf("unsupported credentials file version %d", env.Version)
	}

	plain, err := open(e.keyFor(env.Salt), env.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials (wrong passphrase?): %w", err)
	}
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

func (e *EncryptedFileStore) write(accounts map[string]Account) error {
	if e.salt == nil {
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		e.keyFor(salt)
	}

	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	sealed, err := seal(e.key, plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt accounts: %w", err)
	}

	data, err := json.MarshalIndent(envelope{
		Version:  envelopeFormat,
		Salt:     e.salt,
		Sealed:   sealed,
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

// keyFor derives (or reuses) the key for salt.
func (e *EncryptedFileStore) keyFor(salt []byte) []byte {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	if e.key != nil && string(e.salt) == string(salt) {
		return e.key
	}
	e.salt = salt
	e.key = pbkdf2.Key(e.passphrase, salt, iterations, keySize, sha256.New)
	return e.key
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(key, plain []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

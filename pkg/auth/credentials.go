package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"tweetbot/pkg/config"
)

// Account is one set of OAuth 1.0a user-context credentials
type Account struct {
	Name           string    `json:"name"`
	ConsumerKey    string    `json:"consumer_key"`
	ConsumerSecret string    `json:"consumer_secret"`
	AccessToken    string    `json:"access_token"`
	AccessSecret   string    `json:"access_secret"`
	LastModified   time.Time `json:"last_modified"`
}

// Validate checks that every OAuth value is present.
func (a *Account) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("account name is required"))
	}
	if a.ConsumerKey == "" {
		errs = append(errs, errors.New("consumer key is required"))
	}
	if a.ConsumerSecret == "" {
		errs = append(errs, errors.New("consumer secret is required"))
	}
	if a.AccessToken == "" {
		errs = append(errs, errors.New("access token is required"))
	}
	if a.AccessSecret == "" {
		errs = append(errs, errors.New("access secret is required"))
	}
	return errors.Join(errs...)
}

// Apply copies the credentials into a Twitter config section.
func (a *Account) Apply(cfg *config.TwitterConfig) {
	cfg.ConsumerKey = a.ConsumerKey
	cfg.ConsumerSecret = a.ConsumerSecret
	cfg.AccessToken = a.AccessToken
	cfg.AccessSecret = a.AccessSecret
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	List() ([]*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
	// currentPath holds the name of the account "auth switch" selected.
	currentPath string
}

// NewManager creates a manager over the keychain (when available), the
// encrypted file store and the environment, in that order.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores, currentPath: filepath.Join(dir, "current_account")}, nil
}

// NewManagerWithStores builds a manager over explicit stores. currentPath
// may be empty to disable account switching.
func NewManagerWithStores(currentPath string, stores ...CredentialStore) *Manager {
	return &Manager{stores: stores, currentPath: currentPath}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account == nil {
		return ErrInvalidCredentials
	}
	if err := account.Validate(); err != nil {
		return err
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the switched-to account, then environment
// credentials, then the most recently modified stored account.
func (m *Manager) RetrieveDefault() (*Account, error) {
	if name := m.Current(); name != "" {
		if account, err := m.Retrieve(name); err == nil {
			return account, nil
		}
	}

	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		latest := accounts[0]
		for _, a := range accounts[1:] {
			if a.LastModified.After(latest.LastModified) {
				latest = a
			}
		}
		return latest, nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored accounts from all stores, sorted by name
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	if m.Current() == name {
		_ = m.clearCurrent()
	}
	return nil
}

// Switch makes name the default account.
func (m *Manager) Switch(name string) error {
	if m.currentPath == "" {
		return ErrStoreUnavailable
	}
	if _, err := m.Retrieve(name); err != nil {
		return err
	}
	if err := os.WriteFile(m.currentPath, []byte(name+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to save current account: %w", err)
	}
	return nil
}

// Current returns the account selected with Switch, or "".
func (m *Manager) Current() string {
	if m.currentPath == "" {
		return ""
	}
	data, err := os.ReadFile(m.currentPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (m *Manager) clearCurrent() error {
	if err := os.Remove(m.currentPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ConfigDir returns $XDG_CONFIG_HOME/tweetbot, creating it if needed.
func ConfigDir() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, config.AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount creates a copy of the account with secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:           account.Name,
		ConsumerKey:    maskString(account.ConsumerKey),
		ConsumerSecret: maskString(account.ConsumerSecret),
		AccessToken:    maskString(account.AccessToken),
		AccessSecret:   maskString(account.AccessSecret),
		LastModified:   account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

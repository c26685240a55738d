package auth

import (
	"os"
	"time"
)

// EnvAccountName is the name given to credentials read from the environment.
const EnvAccountName = "env"

// envNames lists, per credential, the variables checked in order: the
// prefixed name first, then the lower-case names of older .env files.
var envNames = struct {
	consumerKey, consumerSecret, accessToken, accessSecret []string
}{
	consumerKey:    []string{"TWEETBOT_CONSUMER_KEY", "consumer_key"},
	consumerSecret: []string{"TWEETBOT_CONSUMER_SECRET", "consumer_secret"},
	accessToken:    []string{"TWEETBOT_ACCESS_TOKEN", "access_token_key"},
	accessSecret:   []string{"TWEETBOT_ACCESS_SECRET", "access_token_secret"},
}

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func lookup(names []string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials when all four are set. The
// name is ignored except to label the result.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	account := &Account{
		Name:           name,
		ConsumerKey:    lookup(envNames.consumerKey),
		ConsumerSecret: lookup(envNames.consumerSecret),
		AccessToken:    lookup(envNames.accessToken),
		AccessSecret:   lookup(envNames.accessSecret),
		LastModified:   time.Now(),
	}
	if account.Name == "" {
		account.Name = EnvAccountName
	}
	if account.ConsumerKey == "" || account.ConsumerSecret == "" || account.AccessToken == "" || account.AccessSecret == "" {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

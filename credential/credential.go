// Package credential persists vault ciphertexts keyed by user and source.
//
// Stores never see plaintext. Every backend upserts on (user, source).
package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/source"
	"github.com/spf13/viper"
)

var ErrNotFound = errors.New("credential not found")

// Record is the stored secret of one user on one source.
type Record struct {
	User       string    `json:"user"`
	Source     source.ID `json:"source"`
	Ciphertext string    `json:"ciphertext"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is a credential backend.
type Store interface {
	// Save inserts the record or replaces the one with the same user and source.
	Save(ctx context.Context, rec *Record) error

	// Get returns ErrNotFound when nothing is stored.
	Get(ctx context.Context, user string, src source.ID) (*Record, error)

	// Delete returns ErrNotFound when nothing is stored.
	Delete(ctx context.Context, user string, src source.ID) error

	// List returns every record of user ordered by source.
	List(ctx context.Context, user string) ([]*Record, error)

	Close() error
}

const (
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendKeyring = "keyring"
)

// Backends lists the accepted values of the credentials backend setting.
var Backends = []string{BackendFile, BackendRedis, BackendKeyring}

// Open returns the backend selected in the configuration.
func Open(ctx context.Context) (Store, error) {
	switch backend := viper.GetString(key.CredentialsBackend); backend {
	case BackendFile, "":
		return NewFile(), nil
	case BackendRedis:
		return DialRedis(ctx, viper.GetString(key.CredentialsRedisURL))
	case BackendKeyring:
		return NewKeyring(), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", backend)
	}
}

// stamp marks rec as written now. Every save refreshes it.
func stamp(rec *Record) {
	rec.UpdatedAt = time.Now().UTC()
}

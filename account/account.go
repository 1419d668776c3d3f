// Package account logs users into sources and recovers their sessions from stored credentials.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/comiknet/comiknet/credential"
	"github.com/comiknet/comiknet/log"
	"github.com/comiknet/comiknet/session"
	"github.com/comiknet/comiknet/source"
	"github.com/comiknet/comiknet/vault"
)

// Authenticator performs the login call on a source.
type Authenticator interface {
	Login(ctx context.Context, src source.ID, form map[string]string) (map[string]*string, error)
}

// Service coordinates login, session state and credential storage.
type Service struct {
	auth  Authenticator
	store credential.Store
}

// New returns a service logging in through auth and persisting into store.
func New(auth Authenticator, store credential.Store) *Service {
	return &Service{auth: auth, store: store}
}

// LoginRequest describes one login attempt.
type LoginRequest struct {
	User   string
	Source source.ID
	Form   map[string]string

	// Key encrypts the form when Remember is set. It is never stored.
	Key      string
	Remember bool
}

// Login logs req.User into req.Source and stores the returned cookies in jar. With Remember the
// form is sealed under req.Key and saved so the session can be restored later.
func (s *Service) Login(ctx context.Context, req LoginRequest, jar session.Jar) error {
	cookies, err := s.auth.Login(ctx, req.Source, req.Form)
	if err != nil {
		return err
	}
	session.Set(jar, req.Source, cookies)

	logger := log.WithFields(log.Fields{"user": req.User, "source": req.Source})
	if !req.Remember {
		logger.Debug("logged in")
		return nil
	}

	ciphertext, err := vault.Seal(req.Key, vault.Secret{Payload: req.Form})
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	if err := s.store.Save(ctx, &credential.Record{User: req.User, Source: req.Source, Ciphertext: ciphertext}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	logger.Info("logged in and saved credentials")
	return nil
}

// Restore logs user back into src with the stored credentials.
// It returns credential.ErrNotFound if nothing was saved and vault.ErrDecryptionFailed on a wrong key.
func (s *Service) Restore(ctx context.Context, user string, src source.ID, key string, jar session.Jar) error {
	rec, err := s.store.Get(ctx, user, src)
	if err != nil {
		return err
	}

	secret, err := vault.Open(key, rec.Ciphertext)
	if err != nil {
		return err
	}

	cookies, err := s.auth.Login(ctx, src, secret.Form())
	if err != nil {
		return err
	}
	session.Set(jar, src, cookies)

	log.WithFields(log.Fields{"user": user, "source": src}).Info("session restored")
	return nil
}

// RestoreAll restores every saved source of user. Sources that fail are returned in the map and
// do not stop the others.
func (s *Service) RestoreAll(ctx context.Context, user, key string, jar session.Jar) (map[source.ID]error, error) {
	records, err := s.store.List(ctx, user)
	if err != nil {
		return nil, err
	}

	failed := make(map[source.ID]error)
	for _, rec := range records {
		if err := s.Restore(ctx, user, rec.Source, key, jar); err != nil {
			failed[rec.Source] = err
		}
	}
	return failed, nil
}

// Forget deletes the stored credentials of user on src and clears its session cookies.
func (s *Service) Forget(ctx context.Context, user string, src source.ID, jar session.Jar) error {
	if jar != nil {
		session.Set(jar, src, nil)
	}

	err := s.store.Delete(ctx, user, src)
	if errors.Is(err, credential.ErrNotFound) {
		return nil
	}
	return err
}

// Reveal decrypts the stored secret of user on src.
func (s *Service) Reveal(ctx context.Context, user string, src source.ID, key string) (vault.Secret, error) {
	rec, err := s.store.Get(ctx, user, src)
	if err != nil {
		return vault.Secret{}, err
	}
	return vault.Open(key, rec.Ciphertext)
}

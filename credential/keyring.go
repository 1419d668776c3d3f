package credential

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/source"
	"github.com/samber/lo"
	"github.com/zalando/go-keyring"
)

// indexPrefix names the entry listing the sources stored for a user.
const indexPrefix = "index:"

// Keyring stores each record as an entry in the system keyring, plus one index entry per user
// since keyrings cannot enumerate.
type Keyring struct {
	service string
	mu      sync.Mutex
}

// NewKeyring uses the application name as keyring service.
func NewKeyring() *Keyring {
	return &Keyring{service: constant.Comiknet}
}

// entryName length-prefixes user so that no user and source pair shares a name with another.
func entryName(user string, src source.ID) string {
	return strconv.Itoa(len(user)) + ":" + user + "/" + src
}

func (k *Keyring) index(user string) ([]source.ID, error) {
	raw, err := keyring.Get(k.service, indexPrefix+user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []source.ID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (k *Keyring) setIndex(user string, ids []source.ID) error {
	if len(ids) == 0 {
		err := keyring.Delete(k.service, indexPrefix+user)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}

	sort.Strings(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, indexPrefix+user, string(data))
}

func (k *Keyring) Save(_ context.Context, rec *Record) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	stamp(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := keyring.Set(k.service, entryName(rec.User, rec.Source), string(data)); err != nil {
		return err
	}

	ids, err := k.index(rec.User)
	if err != nil {
		return err
	}
	return k.setIndex(rec.User, lo.Uniq(append(ids, rec.Source)))
}

func (k *Keyring) get(user string, src source.ID) (*Record, error) {
	raw, err := keyring.Get(k.service, entryName(user, src))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (k *Keyring) Get(_ context.Context, user string, src source.ID) (*Record, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.get(user, src)
}

func (k *Keyring) Delete(_ context.Context, user string, src source.ID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	err := keyring.Delete(k.service, entryName(user, src))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	ids, err := k.index(user)
	if err != nil {
		return err
	}
	return k.setIndex(user, lo.Without(ids, src))
}

func (k *Keyring) List(_ context.Context, user string) ([]*Record, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ids, err := k.index(user)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := k.get(user, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (k *Keyring) Close() error {
	return nil
}

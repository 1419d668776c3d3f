package credential

import (
	"context"
	"sort"
	"sync"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/source"
	"github.com/comiknet/comiknet/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
)

type fileData = map[string]map[source.ID]*Record

// File keeps every record in a single JSON document in the config directory.
type File struct {
	mu     sync.Mutex
	cacher *gache.Cache[fileData]
}

// NewFile opens the credentials document at its default location.
func NewFile() *File {
	return NewFileAt(where.Credentials())
}

// NewFileAt opens the credentials document at path.
func NewFileAt(path string) *File {
	return &File{
		cacher: gache.New[fileData](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (f *File) load() (fileData, error) {
	data, expired, err := f.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || data == nil {
		return make(fileData), nil
	}
	return data, nil
}

func (f *File) Save(_ context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}

	stamp(rec)
	if data[rec.User] == nil {
		data[rec.User] = make(map[source.ID]*Record)
	}
	data[rec.User][rec.Source] = rec

	return f.cacher.Set(data)
}

func (f *File) Get(_ context.Context, user string, src source.ID) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}

	rec, ok := data[user][src]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (f *File) Delete(_ context.Context, user string, src source.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := data[user][src]; !ok {
		return ErrNotFound
	}

	delete(data[user], src)
	if len(data[user]) == 0 {
		delete(data, user)
	}
	return f.cacher.Set(data)
}

func (f *File) List(_ context.Context, user string) ([]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}

	records := lo.Values(data[user])
	sort.Slice(records, func(i, j int) bool { return records[i].Source < records[j].Source })
	return records, nil
}

func (f *File) Close() error {
	return nil
}

package assets

import (
	"embed"
	"io/fs"
	"math/rand/v2"
	"sort"

	"github.com/rotisserie/eris"
)

//go:embed files/*
var bundled embed.FS

const bundleRoot = "files"

// Asset is a bundled payload served verbatim under its identifier.
type Asset struct {
	Identifier string
	Bytes      []byte
}

// Picker selects one asset identifier per call.
type Picker interface {
	RandomIdentifier() string
}

// Option customises a Store during construction.
type Option func(*Store)

// WithIntN replaces the source used by RandomIdentifier. intN must return a value in [0, n)
// and be safe for concurrent use.
func WithIntN(intN func(n int) int) Option {
	return func(s *Store) {
		if intN != nil {
			s.intN = intN
		}
	}
}

// Store is the read-only set of bundled assets. It is never mutated after New returns, so it
// can be shared across request goroutines without locking.
type Store struct {
	assets map[string]Asset
	ids    []string
	intN   func(n int) int
}

// Load builds a Store from the assets compiled into the binary.
func Load(opts ...Option) (*Store, error) {
	root, err := fs.Sub(bundled, bundleRoot)
	if err != nil {
		return nil, eris.Wrap(err, "opening bundled assets")
	}

	store, err := New(root, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "loading bundled assets")
	}
	return store, nil
}

// New reads every regular file in fsys into a Store keyed by its slash-separated path.
func New(fsys fs.FS, opts ...Option) (*Store, error) {
	if fsys == nil {
		return nil, eris.New("asset filesystem is required")
	}

	store := &Store{
		assets: make(map[string]Asset),
		intN:   rand.IntN,
	}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return eris.Wrapf(walkErr, "walking %s", path)
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return eris.Wrapf(err, "reading asset %s", path)
		}

		store.assets[path] = Asset{Identifier: path, Bytes: data}
		store.ids = append(store.ids, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(store.ids) == 0 {
		return nil, eris.New("asset bundle is empty")
	}
	sort.Strings(store.ids)

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Lookup returns the bytes stored under id.
func (s *Store) Lookup(id string) ([]byte, bool) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, false
	}
	return asset.Bytes, true
}

// RandomIdentifier returns one stored identifier chosen uniformly at random.
func (s *Store) RandomIdentifier() string {
	return s.ids[s.intN(len(s.ids))]
}

// Identifiers lists every stored identifier in lexical order.
func (s *Store) Identifiers() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Assets lists every stored asset in identifier order.
func (s *Store) Assets() []Asset {
	out := make([]Asset, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.assets[id])
	}
	return out
}

// Len reports the number of stored assets.
func (s *Store) Len() int {
	return len(s.ids)
}

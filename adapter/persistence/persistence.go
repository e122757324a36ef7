// Package persistence contains the default [domain.Persistence]
// implementation, keeping every collection of a database in one YAML
// datafile guarded by a lock file.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/vinicius-lino-figueiredo/godm/adapter/storage"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"gopkg.in/yaml.v3"
)

// Default permissions of created files and directories.
const (
	DefaultDirMode  = 0o755
	DefaultFileMode = 0o644
)

// ErrDatafileName is returned when the datafile name cannot be used.
var ErrDatafileName = errors.New("invalid datafile name")

// Persistence implements [domain.Persistence].
type Persistence struct {
	filename    string
	fileMode    uint32
	dirMode     uint32
	lockTimeout time.Duration
	storage     domain.Storage
	lock        *flock.Flock
}

// NewPersistence returns a new implementation of [domain.Persistence].
func NewPersistence(options ...Option) (domain.Persistence, error) {
	p := Persistence{
		fileMode:    DefaultFileMode,
		dirMode:     DefaultDirMode,
		lockTimeout: time.Second,
	}
	for _, option := range options {
		option(&p)
	}
	if p.filename == "" || strings.HasSuffix(p.filename, "~") {
		return nil, fmt.Errorf("%w: %q", ErrDatafileName, p.filename)
	}
	if p.storage == nil {
		p.storage = storage.NewStorage()
	}
	p.lock = flock.New(p.filename + ".lock")
	return &p, nil
}

// Load implements [domain.Persistence]. The first call takes an exclusive
// lock on the datafile, held until [Persistence.Close].
func (p *Persistence) Load(ctx context.Context) (map[string][]domain.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := p.storage.EnsureParentDirectoryExists(p.filename, modeOf(p.dirMode)); err != nil {
		return nil, err
	}
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	if err := p.storage.EnsureDatafileIntegrity(p.filename, modeOf(p.fileMode)); err != nil {
		return nil, err
	}

	raw, err := p.storage.ReadFile(ctx, p.filename)
	if err != nil {
		return nil, err
	}

	var file map[string][]map[string]any
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("corrupt datafile %q: %w", p.filename, err)
	}

	res := make(map[string][]domain.Document, len(file))
	for name, docs := range file {
		loaded := make([]domain.Document, len(docs))
		for n, d := range docs {
			loaded[n] = decodeValue(d).(domain.Document)
		}
		res[name] = loaded
	}
	return res, nil
}

func (p *Persistence) acquire(ctx context.Context) error {
	if p.lock.Locked() {
		return nil
	}
	lockCtx, cancel := context.WithTimeout(ctx, p.lockTimeout)
	defer cancel()

	locked, err := p.lock.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !locked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrDatafileLocked{Name: p.filename}
	}
	return nil
}

// Save implements [domain.Persistence]. Collections are written in name
// order.
func (p *Persistence) Save(ctx context.Context, data map[string][]domain.Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := p.acquire(ctx); err != nil {
		return err
	}

	file := make(map[string][]any, len(data))
	for _, name := range slices.Sorted(maps.Keys(data)) {
		docs := make([]any, len(data[name]))
		for n, d := range data[name] {
			docs[n] = encodeValue(d)
		}
		file[name] = docs
	}

	raw, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	return p.storage.CrashSafeWriteFile(ctx, p.filename, raw, modeOf(p.dirMode), modeOf(p.fileMode))
}

// Close implements [domain.Persistence], releasing the datafile lock.
func (p *Persistence) Close() error {
	if !p.lock.Locked() {
		return nil
	}
	return p.lock.Unlock()
}

package persistence

import (
	"os"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// WithFilename sets the datafile. It is required.
func WithFilename(f string) Option {
	return func(p *Persistence) {
		p.filename = f
	}
}

// WithFileMode sets the file permissions for database files.
func WithFileMode(f os.FileMode) Option {
	return func(p *Persistence) {
		p.fileMode = uint32(f)
	}
}

// WithDirMode sets the directory permissions for database
// directories.
func WithDirMode(d os.FileMode) Option {
	return func(p *Persistence) {
		p.dirMode = uint32(d)
	}
}

// WithLockTimeout sets how long to wait for another process to release the
// datafile.
func WithLockTimeout(d time.Duration) Option {
	return func(p *Persistence) {
		p.lockTimeout = d
	}
}

// WithStorage sets the storage implementation for file operations.
func WithStorage(s domain.Storage) Option {
	return func(p *Persistence) {
		p.storage = s
	}
}

// Option configures persistence behavior through the functional
// options pattern.
type Option func(*Persistence)

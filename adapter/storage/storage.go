// Package storage contains the default [domain.Storage] implementation.
package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dolmen-go/contextio"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/multierr"
)

var osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
	return o.MkdirAll(dir, mode)
}

var osSpecificSync = func(f *os.File, _ bool) error {
	return f.Sync()
}

// Storage implements [domain.Storage].
type Storage struct {
	os osOps
}

// NewStorage returns a new implementation of [domain.Storage].
func NewStorage() domain.Storage {
	return &Storage{os: &osImpl{}}
}

// CrashSafeWriteFile implements [domain.Storage]. The content is written to
// a temporary file that is renamed over filename once flushed.
func (d *Storage) CrashSafeWriteFile(ctx context.Context, filename string, data []byte, dirMode os.FileMode, fileMode os.FileMode) error {
	tempFilename := filename + "~"

	if err := d.flushToStorage(filepath.Dir(filename), true, dirMode); err != nil {
		return err
	}

	exists, err := d.Exists(filename)
	if err != nil {
		return err
	}

	if exists {
		if err := d.flushToStorage(filename, false, fileMode); err != nil {
			return err
		}
	}

	if err := d.writeFile(ctx, tempFilename, data, fileMode); err != nil {
		return err
	}

	if err := d.flushToStorage(tempFilename, false, fileMode); err != nil {
		return err
	}

	if err := d.os.Rename(tempFilename, filename); err != nil {
		return err
	}

	return d.flushToStorage(filepath.Dir(filename), true, dirMode)
}

// EnsureDatafileIntegrity implements [domain.Storage].
func (d *Storage) EnsureDatafileIntegrity(filename string, mode os.FileMode) error {
	tempFilename := filename + "~"

	filenameExists, err := d.Exists(filename)
	if err != nil {
		return err
	}
	// write was successful
	if filenameExists {
		return nil
	}

	oldFilenameExists, err := d.Exists(tempFilename)
	if err != nil {
		return err
	}
	// new database
	if !oldFilenameExists {
		return d.os.WriteFile(filename, nil, mode)
	}
	return d.os.Rename(tempFilename, filename)
}

// EnsureParentDirectoryExists implements [domain.Storage].
func (d *Storage) EnsureParentDirectoryExists(filename string, mode os.FileMode) error {
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return err
	}
	return osSpecificEnsureDir(d.os, dir, mode)
}

// Exists implements [domain.Storage].
func (d *Storage) Exists(filename string) (bool, error) {
	_, err := d.os.Stat(filename)
	if err != nil {
		if d.os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Storage) flushToStorage(filename string, isDir bool, mode os.FileMode) error {
	flags := os.O_RDWR
	if isDir {
		flags = os.O_RDONLY
	}

	fileHandle, err := d.os.OpenFile(filename, flags, mode)
	if err != nil {
		return domain.ErrFlushToStorage{ErrorOnFsync: err}
	}

	if err := osSpecificSync(fileHandle, isDir); err != nil {
		_ = fileHandle.Close()
		return domain.ErrFlushToStorage{ErrorOnFsync: err}
	}

	if err := fileHandle.Close(); err != nil {
		return domain.ErrFlushToStorage{ErrorOnClose: err}
	}

	return nil
}

// ReadFile implements [domain.Storage]. Reading stops when ctx is done.
func (d *Storage) ReadFile(ctx context.Context, filename string) (_ []byte, err error) {
	f, err := d.os.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, contextio.NewReader(ctx, f)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Storage) writeFile(ctx context.Context, filename string, data []byte, mode os.FileMode) (err error) {
	f, err := d.os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	_, err = contextio.NewWriter(ctx, f).Write(data)
	return err
}

// Remove implements [domain.Storage].
func (d *Storage) Remove(filename string) error {
	return d.os.Remove(filename)
}

package kbi

import (
	"github.com/ztrue/tracerr"
)

// MemoryStorage is an implementation of Database, which keeps the session in
// memory only. Nothing survives the instance: every read starts signed out.
// This instance should then directly be passed to InitializeOptions.
type MemoryStorage struct {
	initialized bool
	closed      bool
}

func (f *MemoryStorage) initialize() error {
	if f.initialized {
		return tracerr.Wrap(ErrorDatabaseAlreadyInitialized)
	}
	f.initialized = true
	return nil
}

func (f *MemoryStorage) close() error {
	f.closed = true
	return nil
}

func (f *MemoryStorage) readSession(storage *sessionStorage) error {
	if f.closed {
		return tracerr.Wrap(ErrorDatabaseClosed)
	}
	storage.session = &currentSession{}
	return nil
}

func (f *MemoryStorage) writeSession(storage *sessionStorage) error {
	if f.closed {
		return tracerr.Wrap(ErrorDatabaseClosed)
	}
	return nil
}

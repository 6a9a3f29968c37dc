package kbi

// Database is the interface that must be implemented by the storage backends.
// You should not have to use this directly.
type Database interface { // Must be exported because it is an input type in InitializeOptions
	initialize() error
	close() error
	readSession(storage *sessionStorage) error
	writeSession(storage *sessionStorage) error
}

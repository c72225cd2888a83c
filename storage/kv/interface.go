package kv

import (
	"errors"
)

var (
	// ErrClosed indicates that the connection was closed
	ErrClosed = errors.New("connection was closed")
	// ErrNoSuchStore indicates that the store doesn't exist. Either it hasn't been created or was deleted
	ErrNoSuchStore = errors.New("store does not exist")
)

// PluginOptions is a set of driver-specific options
// identifying and configuring a database
type PluginOptions map[string]interface{}

// Plugin represents a kv storage plugin
type Plugin interface {
	// Name returns the name of the storage plugin
	Name() string
	// NewConn opens a connection to the database identified
	// by options, creating the database if it does not exist.
	// A fresh database starts at version 0 with no stores.
	NewConn(options PluginOptions) (Conn, error)
	// NewTempConn returns a connection to a throwaway database
	// initialized with some sane defaults. It is meant for
	// tests that need an initialized instance of the plugin's
	// database without knowing how to initialize it
	NewTempConn() (Conn, error)
	// DeleteDatabase destroys the database identified by options
	// along with all its stores and entries. If the database
	// doesn't exist it should return nil and have no effect.
	// The database must not have an open connection.
	DeleteDatabase(options PluginOptions) error
}

// Conn is a single shared handle to a database. A database
// contains zero or more named stores, each a flat map of
// string keys to opaque byte values. Stores operate
// independently from each other: there are no ordering or
// consistency guarantees for operations on different stores.
type Conn interface {
	// Version returns the database's schema version. A fresh
	// database reports version 0.
	Version() (uint32, error)
	// SetVersion stamps the database's schema version.
	SetVersion(version uint32) error
	// Stores lists all the stores inside this database by name.
	// Results must be in ascending lexicographical order. It must
	// return ErrClosed if its invocation starts after Close() returns.
	Stores() ([]string, error)
	// CreateStore creates the store with this name if it does not
	// exist. It has no effect if the store already exists. It must
	// return ErrClosed if its invocation starts after Close() returns.
	CreateStore(name string) error
	// Get reads one key from a store. It must return nil, nil if
	// the key does not exist. It must return ErrNoSuchStore if the
	// store does not exist and ErrClosed if its invocation starts
	// after Close() returns. The returned slice must remain valid
	// after the call: implementations must copy out of any
	// internally shared memory.
	Get(store string, key string) ([]byte, error)
	// Put writes one key to a store. It must return an error if
	// either key or value is nil or empty. It must return
	// ErrNoSuchStore if the store does not exist and ErrClosed if
	// its invocation starts after Close() returns.
	Put(store string, key string, value []byte) error
	// Delete deletes one key from a store. If the key doesn't exist
	// it has no effect and returns nil. It must return ErrNoSuchStore
	// if the store does not exist and ErrClosed if its invocation
	// starts after Close() returns.
	Delete(store string, key string) error
	// Clear removes every entry from a store. The store itself
	// survives. It must return ErrNoSuchStore if the store does not
	// exist and ErrClosed if its invocation starts after Close()
	// returns.
	Clear(store string) error
	// Close closes the connection. Function calls on this connection
	// occurring after Close returns must have no effect and return
	// ErrClosed. Close must not return until all concurrent
	// operations have concluded. Operations started after the call
	// to Close is started but before it returns may proceed normally
	// or may return ErrClosed. If they return ErrClosed they must
	// have no effect.
	Close() error
}

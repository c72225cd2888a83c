package stash

import (
	"fmt"
	"sync"

	"github.com/stashkv/stash/storage/kv"
	"github.com/stashkv/stash/storage/kv/plugins"
	"go.uber.org/zap"
)

// SchemaVersion is the fixed version stamped on every database a
// Manager opens. Store creation is the only migration performed.
const SchemaVersion uint32 = 1

// State is the connection lifecycle state of a Manager
type State int

const (
	// StateUnopened means no connection exists yet
	StateUnopened State = iota
	// StateOpening means an open is in flight
	StateOpening
	// StateOpen means the cached connection is usable
	StateOpen
	// StateResetting means the destructive recovery sequence is running
	StateResetting
)

func (state State) String() string {
	switch state {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateResetting:
		return "resetting"
	}

	return "unknown"
}

// Config configures a Manager
type Config struct {
	// Plugin is the kv driver backing the database
	Plugin kv.Plugin
	// Driver names a built-in plugin, resolved through the plugin
	// manager when Plugin is nil
	Driver string
	// PluginOptions identify the database to the driver
	PluginOptions kv.PluginOptions
	// Registry declares the stores created on open and the default
	// store. Zero-value fields fall back to DefaultRegistry.
	Registry Registry
	// Logger defaults to a nop logger
	Logger *zap.Logger
}

// Manager lazily opens a single shared connection to a kv database,
// creating every store its registry declares. Concurrent callers of
// Conn before the first open completes await the same in-flight open
// rather than triggering duplicate opens. On Reset the database is
// destroyed; the next Conn call opens a fresh one.
type Manager struct {
	plugin  kv.Plugin
	options kv.PluginOptions
	logger  *zap.Logger

	mu           sync.Mutex
	registry     Registry
	state        State
	pending      *pendingOpen
	resetting    chan struct{}
	conn         kv.Conn
	openRegistry Registry
}

type pendingOpen struct {
	done     chan struct{}
	conn     kv.Conn
	registry Registry
	err      error
}

// NewManager returns an unopened Manager. No connection is made
// until the first call to Conn.
func NewManager(config Config) (*Manager, error) {
	if config.Plugin == nil && config.Driver != "" {
		config.Plugin = plugins.NewKVPluginManager().Plugin(config.Driver)

		if config.Plugin == nil {
			return nil, fmt.Errorf("no such driver: %s", config.Driver)
		}
	}

	if config.Plugin == nil {
		return nil, fmt.Errorf("plugin is required")
	}

	if config.PluginOptions == nil {
		return nil, fmt.Errorf("plugin options are required")
	}

	logger := config.Logger

	if logger == nil {
		logger = zap.NewNop()
	}

	registry := DefaultRegistry()
	registry.Configure(config.Registry.DefaultStore, config.Registry.Stores)

	return &Manager{
		plugin:   config.Plugin,
		options:  config.PluginOptions,
		logger:   logger,
		registry: registry,
		state:    StateUnopened,
	}, nil
}

// Configure updates the registry used by future opens. An already
// open connection is not retroactively migrated: its stores and its
// default store stay as they were at open time until the connection
// is reset or closed.
func (manager *Manager) Configure(defaultStore string, stores []string) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.registry.Configure(defaultStore, stores)
}

// State returns the current lifecycle state
func (manager *Manager) State() State {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	return manager.state
}

// Conn returns the shared connection, opening it if necessary, along
// with the registry snapshot taken when that connection was opened.
// Operations must resolve the default store against the returned
// snapshot, not against the live registry. Callers arriving during an
// in-flight open await that open; callers arriving during a reset
// wait for the reset to finish before a fresh open starts, so no
// connection is ever handed out against a database a reset is about
// to delete.
func (manager *Manager) Conn() (kv.Conn, Registry, error) {
	manager.mu.Lock()

	for {
		if manager.state == StateOpen {
			conn, registry := manager.conn, manager.openRegistry
			manager.mu.Unlock()

			return conn, registry, nil
		}

		if manager.pending != nil {
			pending := manager.pending
			manager.mu.Unlock()

			<-pending.done

			return pending.conn, pending.registry, pending.err
		}

		if manager.resetting == nil {
			break
		}

		resetting := manager.resetting
		manager.mu.Unlock()

		<-resetting

		manager.mu.Lock()
	}

	pending := &pendingOpen{done: make(chan struct{})}
	manager.pending = pending
	manager.state = StateOpening
	registry := manager.registry.clone()
	manager.mu.Unlock()

	conn, err := manager.open(registry)

	manager.mu.Lock()
	manager.pending = nil

	if err != nil {
		manager.state = StateUnopened
	} else {
		manager.state = StateOpen
		manager.conn = conn
		manager.openRegistry = registry
	}
	manager.mu.Unlock()

	pending.conn = conn
	pending.registry = registry
	pending.err = err
	close(pending.done)

	return conn, registry, err
}

func (manager *Manager) open(registry Registry) (kv.Conn, error) {
	conn, err := manager.plugin.NewConn(manager.options)

	if err != nil {
		return nil, fmt.Errorf("Could not open database: %s", err.Error())
	}

	for _, name := range registry.Stores {
		if err := conn.CreateStore(name); err != nil {
			conn.Close()

			return nil, fmt.Errorf("Could not create store %s: %s", name, err.Error())
		}
	}

	version, err := conn.Version()

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("Could not read database version: %s", err.Error())
	}

	if version < SchemaVersion {
		if err := conn.SetVersion(SchemaVersion); err != nil {
			conn.Close()

			return nil, fmt.Errorf("Could not stamp database version: %s", err.Error())
		}
	}

	manager.logger.Info("database opened",
		zap.String("plugin", manager.plugin.Name()),
		zap.Uint32("version", SchemaVersion),
		zap.Strings("stores", registry.Stores),
	)

	return conn, nil
}

// Reset runs the destructive recovery sequence: the cached connection
// is dropped, the stale handle closed if reachable, and the entire
// database deleted. All stores and all entries are lost, for every
// facade sharing this manager. Errors along the way are logged and
// swallowed; the manager always ends up unopened so the next Conn
// call attempts a fresh open.
func (manager *Manager) Reset() {
	manager.mu.Lock()

	if manager.pending != nil || manager.resetting != nil {
		// An open or another reset is in flight; the caller that
		// triggered this reset raced it. Let it finish.
		manager.mu.Unlock()

		return
	}

	conn := manager.conn
	manager.conn = nil
	manager.openRegistry = Registry{}
	manager.state = StateResetting
	resetting := make(chan struct{})
	manager.resetting = resetting
	manager.mu.Unlock()

	manager.logger.Warn("resetting database",
		zap.String("plugin", manager.plugin.Name()),
	)

	if conn != nil {
		if err := conn.Close(); err != nil {
			manager.logger.Warn("Could not close stale connection", zap.Error(err))
		}
	}

	if err := manager.plugin.DeleteDatabase(manager.options); err != nil {
		manager.logger.Error("Could not delete database during reset", zap.Error(err))
	}

	manager.mu.Lock()
	manager.state = StateUnopened
	manager.resetting = nil
	manager.mu.Unlock()

	close(resetting)
}

// Close closes the shared connection if one is open. Unlike Reset it
// is not destructive and propagates the driver error.
func (manager *Manager) Close() error {
	manager.mu.Lock()

	for manager.pending != nil || manager.resetting != nil {
		pending, resetting := manager.pending, manager.resetting
		manager.mu.Unlock()

		if pending != nil {
			<-pending.done
		} else {
			<-resetting
		}

		manager.mu.Lock()
	}

	conn := manager.conn
	manager.conn = nil
	manager.openRegistry = Registry{}
	manager.state = StateUnopened
	manager.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close()
}

package memory

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	gods_utils "github.com/emirpasic/gods/utils"
	"github.com/stashkv/stash/storage/kv"
	"github.com/stashkv/stash/utils/uuid"
)

const (
	DriverName = "memory"
)

// Named databases live for the lifetime of the process so that a
// connection opened after DeleteDatabase or a crash-free reopen
// observes the same semantics as a durable driver.
var databases = struct {
	sync.Mutex
	m map[string]*database
}{m: map[string]*database{}}

func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&MemoryPlugin{},
	}
}

type MemoryPlugin struct {
}

func (plugin *MemoryPlugin) Name() string {
	return DriverName
}

func (plugin *MemoryPlugin) NewConn(options kv.PluginOptions) (kv.Conn, error) {
	name, err := nameFromOptions(options)

	if err != nil {
		return nil, err
	}

	databases.Lock()
	defer databases.Unlock()

	db, ok := databases.m[name]

	if !ok {
		db = newDatabase()
		databases.m[name] = db
	}

	return &MemoryConn{db: db}, nil
}

func (plugin *MemoryPlugin) NewTempConn() (kv.Conn, error) {
	return plugin.NewConn(kv.PluginOptions{
		"name": fmt.Sprintf("memory-%s", uuid.MustUUID()),
	})
}

func (plugin *MemoryPlugin) DeleteDatabase(options kv.PluginOptions) error {
	name, err := nameFromOptions(options)

	if err != nil {
		return err
	}

	databases.Lock()
	defer databases.Unlock()

	delete(databases.m, name)

	return nil
}

func nameFromOptions(options kv.PluginOptions) (string, error) {
	name, ok := options["name"]

	if !ok {
		return "", fmt.Errorf("\"name\" is required")
	}

	nameString, ok := name.(string)

	if !ok {
		return "", fmt.Errorf("\"name\" must be a string")
	}

	return nameString, nil
}

type database struct {
	mu      sync.RWMutex
	version uint32
	stores  *treemap.Map
}

func newDatabase() *database {
	return &database{stores: treemap.NewWith(gods_utils.StringComparator)}
}

var _ kv.Conn = (*MemoryConn)(nil)

type MemoryConn struct {
	mu     sync.RWMutex
	db     *database
	closed bool
}

func (conn *MemoryConn) Version() (version uint32, err error) {
	err = conn.read(func(db *database) error {
		version = db.version

		return nil
	})

	return version, err
}

func (conn *MemoryConn) SetVersion(version uint32) error {
	return conn.write(func(db *database) error {
		db.version = version

		return nil
	})
}

func (conn *MemoryConn) Stores() (stores []string, err error) {
	err = conn.read(func(db *database) error {
		stores = []string{}

		for _, name := range db.stores.Keys() {
			stores = append(stores, name.(string))
		}

		return nil
	})

	return stores, err
}

func (conn *MemoryConn) CreateStore(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("store name must not be empty")
	}

	return conn.write(func(db *database) error {
		if _, ok := db.stores.Get(name); !ok {
			db.stores.Put(name, treemap.NewWith(gods_utils.StringComparator))
		}

		return nil
	})
}

func (conn *MemoryConn) Get(store string, key string) (value []byte, err error) {
	err = conn.read(func(db *database) error {
		entries, err := conn.store(db, store)

		if err != nil {
			return err
		}

		if v, ok := entries.Get(key); ok {
			value = append([]byte(nil), v.([]byte)...)
		}

		return nil
	})

	return value, err
}

func (conn *MemoryConn) Put(store string, key string, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("key must not be nil or empty")
	}

	if len(value) == 0 {
		return fmt.Errorf("value must not be nil or empty")
	}

	return conn.write(func(db *database) error {
		entries, err := conn.store(db, store)

		if err != nil {
			return err
		}

		entries.Put(key, append([]byte(nil), value...))

		return nil
	})
}

func (conn *MemoryConn) Delete(store string, key string) error {
	if len(key) == 0 {
		return fmt.Errorf("key must not be nil or empty")
	}

	return conn.write(func(db *database) error {
		entries, err := conn.store(db, store)

		if err != nil {
			return err
		}

		entries.Remove(key)

		return nil
	})
}

func (conn *MemoryConn) Clear(store string) error {
	return conn.write(func(db *database) error {
		if _, err := conn.store(db, store); err != nil {
			return err
		}

		db.stores.Put(store, treemap.NewWith(gods_utils.StringComparator))

		return nil
	})
}

func (conn *MemoryConn) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.closed = true

	return nil
}

func (conn *MemoryConn) store(db *database, name string) (*treemap.Map, error) {
	entries, ok := db.stores.Get(name)

	if !ok {
		return nil, kv.ErrNoSuchStore
	}

	return entries.(*treemap.Map), nil
}

func (conn *MemoryConn) read(fn func(db *database) error) error {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	if conn.closed {
		return kv.ErrClosed
	}

	conn.db.mu.RLock()
	defer conn.db.mu.RUnlock()

	return fn(conn.db)
}

func (conn *MemoryConn) write(fn func(db *database) error) error {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	if conn.closed {
		return kv.ErrClosed
	}

	conn.db.mu.Lock()
	defer conn.db.mu.Unlock()

	return fn(conn.db)
}

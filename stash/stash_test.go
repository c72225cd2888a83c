package stash_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stashkv/stash/stash"
	"github.com/stashkv/stash/storage/kv"
	"github.com/stashkv/stash/storage/kv/plugins/memory"
	"github.com/stashkv/stash/utils/uuid"
	"github.com/stretchr/testify/require"
)

var errSimulated = errors.New("simulated storage failure")

func tempOptions() kv.PluginOptions {
	return kv.PluginOptions{
		"name": fmt.Sprintf("stash-test-%s", uuid.MustUUID()),
	}
}

func newTestManager(t *testing.T, config stash.Config) *stash.Manager {
	if config.Plugin == nil {
		config.Plugin = &memory.MemoryPlugin{}
	}

	if config.PluginOptions == nil {
		config.PluginOptions = tempOptions()
	}

	manager, err := stash.NewManager(config)
	require.NoError(t, err)

	plugin, options := config.Plugin, config.PluginOptions

	t.Cleanup(func() {
		manager.Close()
		plugin.DeleteDatabase(options)
	})

	return manager
}

// testPlugin wraps the memory plugin to count opens, slow them down,
// and inject failures into the connections it hands out.
type testPlugin struct {
	inner kv.Plugin

	mu          sync.Mutex
	opens       int
	openDelay   time.Duration
	deleteDelay time.Duration
	failOpen    bool
	conns       []*faultyConn
}

func newTestPlugin() *testPlugin {
	return &testPlugin{inner: &memory.MemoryPlugin{}}
}

func (plugin *testPlugin) Name() string {
	return plugin.inner.Name()
}

func (plugin *testPlugin) NewConn(options kv.PluginOptions) (kv.Conn, error) {
	plugin.mu.Lock()
	plugin.opens++
	delay, failOpen := plugin.openDelay, plugin.failOpen
	plugin.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if failOpen {
		return nil, errSimulated
	}

	conn, err := plugin.inner.NewConn(options)

	if err != nil {
		return nil, err
	}

	faulty := &faultyConn{Conn: conn}

	plugin.mu.Lock()
	plugin.conns = append(plugin.conns, faulty)
	plugin.mu.Unlock()

	return faulty, nil
}

func (plugin *testPlugin) NewTempConn() (kv.Conn, error) {
	return plugin.inner.NewTempConn()
}

func (plugin *testPlugin) DeleteDatabase(options kv.PluginOptions) error {
	plugin.mu.Lock()
	delay := plugin.deleteDelay
	plugin.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	return plugin.inner.DeleteDatabase(options)
}

func (plugin *testPlugin) openCount() int {
	plugin.mu.Lock()
	defer plugin.mu.Unlock()

	return plugin.opens
}

func (plugin *testPlugin) setOpenDelay(delay time.Duration) {
	plugin.mu.Lock()
	defer plugin.mu.Unlock()

	plugin.openDelay = delay
}

func (plugin *testPlugin) setDeleteDelay(delay time.Duration) {
	plugin.mu.Lock()
	defer plugin.mu.Unlock()

	plugin.deleteDelay = delay
}

func (plugin *testPlugin) setFailOpen(fail bool) {
	plugin.mu.Lock()
	defer plugin.mu.Unlock()

	plugin.failOpen = fail
}

func (plugin *testPlugin) lastConn() *faultyConn {
	plugin.mu.Lock()
	defer plugin.mu.Unlock()

	if len(plugin.conns) == 0 {
		return nil
	}

	return plugin.conns[len(plugin.conns)-1]
}

type faultyConn struct {
	kv.Conn

	mu         sync.Mutex
	failReads  bool
	failWrites bool
}

func (conn *faultyConn) setFailReads(fail bool) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.failReads = fail
}

func (conn *faultyConn) setFailWrites(fail bool) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.failWrites = fail
}

func (conn *faultyConn) Get(store string, key string) ([]byte, error) {
	conn.mu.Lock()
	fail := conn.failReads
	conn.mu.Unlock()

	if fail {
		return nil, errSimulated
	}

	return conn.Conn.Get(store, key)
}

func (conn *faultyConn) Put(store string, key string, value []byte) error {
	conn.mu.Lock()
	fail := conn.failWrites
	conn.mu.Unlock()

	if fail {
		return errSimulated
	}

	return conn.Conn.Put(store, key, value)
}

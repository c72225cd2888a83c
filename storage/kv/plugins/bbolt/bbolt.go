package bbolt

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stashkv/stash/storage/kv"
	"github.com/stashkv/stash/utils/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	DriverName = "bbolt"
)

// metaBucketName is reserved for connection bookkeeping. The leading
// zero byte keeps it out of the store namespace.
var metaBucketName = []byte("\x00meta")

var versionKey = []byte("version")

func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&BBoltPlugin{},
	}
}

type BBoltPlugin struct {
}

func (plugin *BBoltPlugin) Name() string {
	return DriverName
}

func (plugin *BBoltPlugin) NewConn(options kv.PluginOptions) (kv.Conn, error) {
	config, err := configFromOptions(options)

	if err != nil {
		return nil, err
	}

	conn, err := New(config)

	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (plugin *BBoltPlugin) NewTempConn() (kv.Conn, error) {
	return plugin.NewConn(kv.PluginOptions{
		"path": fmt.Sprintf("/tmp/bbolt-%s", uuid.MustUUID()),
	})
}

func (plugin *BBoltPlugin) DeleteDatabase(options kv.PluginOptions) error {
	config, err := configFromOptions(options)

	if err != nil {
		return err
	}

	if err := os.RemoveAll(config.Path); err != nil {
		return fmt.Errorf("Could not remove path %s: %s", config.Path, err.Error())
	}

	return nil
}

func configFromOptions(options kv.PluginOptions) (BBoltConnConfig, error) {
	var config BBoltConnConfig

	if path, ok := options["path"]; !ok {
		return config, fmt.Errorf("\"path\" is required")
	} else if pathString, ok := path.(string); !ok {
		return config, fmt.Errorf("\"path\" must be a string")
	} else {
		config.Path = pathString
	}

	return config, nil
}

type BBoltConnConfig struct {
	Path string
}

var _ kv.Conn = (*BBoltConn)(nil)

func New(config BBoltConnConfig) (*BBoltConn, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0700); err != nil {
		return nil, fmt.Errorf("Could not create directory %s: %s", filepath.Dir(config.Path), err.Error())
	}

	db, err := bolt.Open(config.Path, 0666, nil)

	if err != nil {
		return nil, fmt.Errorf("Could not open bbolt database at %s: %s", config.Path, err.Error())
	}

	if err := db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(metaBucketName)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("Could not ensure meta bucket exists: %s", err.Error())
	}

	return &BBoltConn{db: db}, nil
}

type BBoltConn struct {
	db *bolt.DB
}

func (conn *BBoltConn) Version() (uint32, error) {
	var version uint32

	if err := conn.db.View(func(txn *bolt.Tx) error {
		v := txn.Bucket(metaBucketName).Get(versionKey)

		if len(v) == 4 {
			version = binary.BigEndian.Uint32(v)
		}

		return nil
	}); err != nil {
		return 0, mapErr(err)
	}

	return version, nil
}

func (conn *BBoltConn) SetVersion(version uint32) error {
	return mapErr(conn.db.Update(func(txn *bolt.Tx) error {
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, version)

		return txn.Bucket(metaBucketName).Put(versionKey, v)
	}))
}

func (conn *BBoltConn) Stores() ([]string, error) {
	stores := []string{}

	if err := conn.db.View(func(txn *bolt.Tx) error {
		return txn.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			if string(name) == string(metaBucketName) {
				return nil
			}

			stores = append(stores, string(name))

			return nil
		})
	}); err != nil {
		return nil, mapErr(err)
	}

	return stores, nil
}

func (conn *BBoltConn) CreateStore(name string) error {
	if err := validateStoreName(name); err != nil {
		return err
	}

	return mapErr(conn.db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists([]byte(name))

		return err
	}))
}

func (conn *BBoltConn) Get(store string, key string) ([]byte, error) {
	var value []byte

	if err := conn.db.View(func(txn *bolt.Tx) error {
		bucket := txn.Bucket([]byte(store))

		if bucket == nil {
			return kv.ErrNoSuchStore
		}

		if v := bucket.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}

		return nil
	}); err != nil {
		return nil, mapErr(err)
	}

	return value, nil
}

func (conn *BBoltConn) Put(store string, key string, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("key must not be nil or empty")
	}

	if len(value) == 0 {
		return fmt.Errorf("value must not be nil or empty")
	}

	return mapErr(conn.db.Update(func(txn *bolt.Tx) error {
		bucket := txn.Bucket([]byte(store))

		if bucket == nil {
			return kv.ErrNoSuchStore
		}

		return bucket.Put([]byte(key), value)
	}))
}

func (conn *BBoltConn) Delete(store string, key string) error {
	if len(key) == 0 {
		return fmt.Errorf("key must not be nil or empty")
	}

	return mapErr(conn.db.Update(func(txn *bolt.Tx) error {
		bucket := txn.Bucket([]byte(store))

		if bucket == nil {
			return kv.ErrNoSuchStore
		}

		return bucket.Delete([]byte(key))
	}))
}

func (conn *BBoltConn) Clear(store string) error {
	return mapErr(conn.db.Update(func(txn *bolt.Tx) error {
		if txn.Bucket([]byte(store)) == nil {
			return kv.ErrNoSuchStore
		}

		if err := txn.DeleteBucket([]byte(store)); err != nil {
			return err
		}

		_, err := txn.CreateBucket([]byte(store))

		return err
	}))
}

func (conn *BBoltConn) Close() error {
	return conn.db.Close()
}

func validateStoreName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("store name must not be empty")
	}

	if strings.HasPrefix(name, "\x00") {
		return fmt.Errorf("store name must not start with a zero byte: reserved")
	}

	return nil
}

func mapErr(err error) error {
	switch err {
	case bolt.ErrDatabaseNotOpen, bolt.ErrTxClosed:
		return kv.ErrClosed
	}

	return err
}

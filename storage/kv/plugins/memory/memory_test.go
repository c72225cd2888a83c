package memory_test

import (
	"fmt"
	"testing"

	"github.com/stashkv/stash/storage/kv"
	"github.com/stashkv/stash/storage/kv/plugins/memory"
	"github.com/stashkv/stash/utils/uuid"
)

func tempOptions() kv.PluginOptions {
	return kv.PluginOptions{
		"name": fmt.Sprintf("memory-test-%s", uuid.MustUUID()),
	}
}

func TestOptionsValidation(t *testing.T) {
	plugin := &memory.MemoryPlugin{}

	if _, err := plugin.NewConn(kv.PluginOptions{}); err == nil {
		t.Fatalf("Expected an error when \"name\" is missing")
	}

	if _, err := plugin.NewConn(kv.PluginOptions{"name": 5}); err == nil {
		t.Fatalf("Expected an error when \"name\" is not a string")
	}
}

func TestNamedDatabaseSurvivesReopen(t *testing.T) {
	plugin := &memory.MemoryPlugin{}
	options := tempOptions()
	defer plugin.DeleteDatabase(options)

	conn, err := plugin.NewConn(options)

	if err != nil {
		t.Fatalf("Could not open conn: %s", err.Error())
	}

	if err := conn.CreateStore("a"); err != nil {
		t.Fatalf("Could not create store: %s", err.Error())
	}

	if err := conn.Put("a", "k", []byte("v")); err != nil {
		t.Fatalf("Could not put: %s", err.Error())
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Could not close conn: %s", err.Error())
	}

	conn, err = plugin.NewConn(options)

	if err != nil {
		t.Fatalf("Could not reopen conn: %s", err.Error())
	}

	defer conn.Close()

	value, err := conn.Get("a", "k")

	if err != nil {
		t.Fatalf("Could not get: %s", err.Error())
	}

	if string(value) != "v" {
		t.Fatalf("Expected value v, got %v", value)
	}
}

func TestDeleteDatabase(t *testing.T) {
	plugin := &memory.MemoryPlugin{}
	options := tempOptions()

	conn, err := plugin.NewConn(options)

	if err != nil {
		t.Fatalf("Could not open conn: %s", err.Error())
	}

	if err := conn.CreateStore("a"); err != nil {
		t.Fatalf("Could not create store: %s", err.Error())
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Could not close conn: %s", err.Error())
	}

	if err := plugin.DeleteDatabase(options); err != nil {
		t.Fatalf("Could not delete database: %s", err.Error())
	}

	if err := plugin.DeleteDatabase(options); err != nil {
		t.Fatalf("Expected no error deleting a missing database, got %s", err.Error())
	}

	conn, err = plugin.NewConn(options)

	if err != nil {
		t.Fatalf("Could not reopen conn: %s", err.Error())
	}

	defer conn.Close()
	defer plugin.DeleteDatabase(options)

	stores, err := conn.Stores()

	if err != nil {
		t.Fatalf("Could not list stores: %s", err.Error())
	}

	if len(stores) != 0 {
		t.Fatalf("Expected a fresh database after delete, found stores %v", stores)
	}
}

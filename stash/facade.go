package stash

import (
	"fmt"
	"sort"

	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// RecoveryPolicy selects what GetData does after a read or connection
// failure triggers the manager's destructive reset.
type RecoveryPolicy int

const (
	// RecoverWithDefaults logs the failure, resets, and hands the
	// caller a copy of the schema defaults with a nil error. Callers
	// must treat a default-shaped result as possibly meaning
	// "recovered from failure", not "no prior data existed".
	RecoverWithDefaults RecoveryPolicy = iota
	// PropagateErrors resets and returns the failure, matching the
	// behavior of the mutating operations.
	PropagateErrors
)

// Facade performs persistence operations for one schema through a
// shared Manager. Every operation takes a store name; the empty
// string selects the default store from the registry snapshot taken
// when the connection was opened.
//
// Write failures always propagate and never reset the connection.
// Writes are not atomic across fields: a Save failing partway through
// leaves earlier writes committed. Concurrent saves to overlapping
// keys race at the granularity of individual key writes.
type Facade struct {
	manager *Manager
	schema  Schema
	codec   Codec
	logger  *zap.Logger
	policy  RecoveryPolicy
}

// Option customizes a Facade
type Option func(*Facade)

// WithCodec replaces the default JSONCodec
func WithCodec(codec Codec) Option {
	return func(facade *Facade) {
		facade.codec = codec
	}
}

// WithLogger sets the logger used on the recovery path
func WithLogger(logger *zap.Logger) Option {
	return func(facade *Facade) {
		facade.logger = logger
	}
}

// WithRecoveryPolicy selects GetData's failure behavior
func WithRecoveryPolicy(policy RecoveryPolicy) Option {
	return func(facade *Facade) {
		facade.policy = policy
	}
}

// New returns a Facade bound to schema. Facades sharing a manager
// share its connection, and one facade's reset wipes data for all
// of them.
func New(manager *Manager, schema Schema, options ...Option) *Facade {
	facade := &Facade{
		manager: manager,
		schema:  schema,
		codec:   JSONCodec{},
		logger:  zap.NewNop(),
		policy:  RecoverWithDefaults,
	}

	for _, option := range options {
		option(facade)
	}

	return facade
}

// GetData reads every declared schema field from the store. A key
// with no entry appears in the result with a nil value; it never
// resolves to the schema default and is never an error. On any
// read or connection failure the manager is reset and the result is
// governed by the facade's RecoveryPolicy.
func (facade *Facade) GetData(store string) (map[string]interface{}, error) {
	data, err := facade.getData(store)

	if err == nil {
		return data, nil
	}

	facade.logger.Error("Could not read data, resetting database",
		zap.String("store", store),
		zap.Error(err),
	)

	facade.manager.Reset()

	if facade.policy == PropagateErrors {
		return nil, err
	}

	return facade.schema.Defaults(), nil
}

func (facade *Facade) getData(store string) (map[string]interface{}, error) {
	conn, registry, err := facade.manager.Conn()

	if err != nil {
		return nil, err
	}

	if store == "" {
		store = registry.DefaultStore
	}

	data := make(map[string]interface{}, len(facade.schema.fields))

	for _, field := range facade.schema.fields {
		raw, err := conn.Get(store, field)

		if err != nil {
			return nil, err
		}

		if raw == nil {
			data[field] = nil

			continue
		}

		value, err := facade.codec.Decode(raw)

		if err != nil {
			return nil, err
		}

		data[field] = value
	}

	return data, nil
}

// Save writes each field present in data as one entry in the store.
// Fields are written one at a time in ascending field order; the
// first failure aborts and propagates, leaving earlier writes
// committed.
func (facade *Facade) Save(data map[string]interface{}, store string) error {
	conn, registry, err := facade.manager.Conn()

	if err != nil {
		return err
	}

	if store == "" {
		store = registry.DefaultStore
	}

	fields := make([]string, 0, len(data))

	for field := range data {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	for _, field := range fields {
		value, err := facade.codec.Encode(data[field])

		if err != nil {
			return fmt.Errorf("Could not encode field %s: %s", field, err.Error())
		}

		if err := conn.Put(store, field, value); err != nil {
			return fmt.Errorf("Could not save field %s: %s", field, err.Error())
		}
	}

	return nil
}

// Remove deletes one key from the store. A missing key is not an
// error.
func (facade *Facade) Remove(key string, store string) error {
	conn, registry, err := facade.manager.Conn()

	if err != nil {
		return err
	}

	if store == "" {
		store = registry.DefaultStore
	}

	return conn.Delete(store, key)
}

// RemovePartOfMap removes the entry a caller views as a sub-field of
// a larger persisted structure. It behaves exactly like Remove; the
// distinct name exists for callers that track the difference.
func (facade *Facade) RemovePartOfMap(key string, store string) error {
	return facade.Remove(key, store)
}

// ClearThisInstance deletes the entry for each declared schema field
// that currently exists in the store. Keys outside this facade's
// schema survive, including other facades' fields in the same store.
func (facade *Facade) ClearThisInstance(store string) error {
	conn, registry, err := facade.manager.Conn()

	if err != nil {
		return err
	}

	if store == "" {
		store = registry.DefaultStore
	}

	for _, field := range facade.schema.fields {
		raw, err := conn.Get(store, field)

		if err != nil {
			return err
		}

		if raw == nil {
			continue
		}

		if err := conn.Delete(store, field); err != nil {
			return err
		}
	}

	return nil
}

// ClearAll deletes every entry from every store on the shared
// connection, regardless of which facade declared which fields.
// Irreversible. Per-store failures are collected and all stores are
// attempted.
func (facade *Facade) ClearAll() error {
	conn, _, err := facade.manager.Conn()

	if err != nil {
		return err
	}

	stores, err := conn.Stores()

	if err != nil {
		return err
	}

	var result *multierror.Error

	for _, store := range stores {
		if err := conn.Clear(store); err != nil {
			result = multierror.Append(result, fmt.Errorf("Could not clear store %s: %s", store, err.Error()))
		}
	}

	return result.ErrorOrNil()
}

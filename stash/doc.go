// Package stash is a thin, schema-bound convenience layer over a
// pluggable key-value engine. A Facade is constructed around a
// Schema describing which keys matter and what their defaults are,
// and performs get/save/remove/clear operations against named
// stores through a shared, lazily opened connection.
//
// The Manager owns the connection lifecycle: it opens once, creates
// every store its Registry declares, and on a detected read failure
// runs a destructive reset that deletes and recreates the entire
// database. All facades sharing a Manager share that fate.
package stash

// Package kv provides an interface for implementing
// kv drivers that can be used to build more complex storage
// interfaces.
//
// A kv plugin is a factory for database connections. A database
// contains zero or more stores and stores contain zero or more
// key-value entries. Each store operates independently from other
// stores: there are no ordering or consistency guarantees for
// operations on different stores.
//
//  - Database
//    - Store A
//      - key1: abc
//      - key2: def
//    - Store B
//      - keyN: aaa
//      - keyM: xyz
//    - Store C
//
// Rather than defining a flat interface over a single list of
// key-value pairs, store partitioning was pushed down to this layer
// so that each component needing a kv storage interface can have its
// own store without stepping on the toes of other components, and so
// that drivers can map stores onto whatever isolation unit they
// natively provide (buckets, tables, maps).
package kv

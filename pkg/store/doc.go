// Package store defines the durable key-value contract the persistence bridge
// writes through, plus a small in-memory implementation.
//
// The contract mirrors the browser's window.localStorage: string keys, string
// values, no partial updates. Implementations live in sub-packages:
//
//	memory        store.MemoryStore        tests and examples
//	yamlstore     flat YAML file           single host, flock-coordinated
//	sqlitestore   modernc.org/sqlite       single host, WAL
//	localstorage  syscall/js               js/wasm builds only
//
// Every implementation runs the suite in storetest.
package store

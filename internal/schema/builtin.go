package schema

import (
	_ "embed"
	"sync"
)

//go:embed builtin.yaml
var builtin []byte

var (
	defaultOnce sync.Once
	defaultDB   *Database
	defaultErr  error
)

// Default returns the product schema: events, persons, their distinct ids
// and the query log. The database is built once and shared.
func Default() (*Database, error) {
	defaultOnce.Do(func() {
		defaultDB, defaultErr = Parse(builtin)
	})
	return defaultDB, defaultErr
}

// MustDefault is Default that panics on error.
func MustDefault() *Database {
	db, err := Default()
	if err != nil {
		panic(err)
	}
	return db
}

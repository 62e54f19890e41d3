package sqliteutil

import (
	"database/sql"
	devenv "diningbot-backend/dev/env"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config points at either a local sqlite file or a remote libsql
// database, Url takes priority if both are set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens the configured database and applies `schema` to it, the
// schema must be idempotent (CREATE ... IF NOT EXISTS).
func (config Config) OpenDB(schema string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch {
	case config.Url != "":
		db, err = openRemote(config.Url, config.AuthToken)
	case config.File != "":
		var path string
		path, err = devenv.ResolvePath(config.File)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		db, err = OpenFile(path)
	default:
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	if err != nil {
		return nil, err
	}

	err = ApplySchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openRemote(dburl, authToken string) (*sql.DB, error) {
	values := url.Values{}
	if authToken != "" {
		values.Add("authToken", authToken)
	}
	if len(values) > 0 {
		dburl = dburl + "?" + values.Encode()
	}
	db, err := sql.Open("libsql", dburl)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

// OpenFile opens a local sqlite database, ":memory:" opens an in-memory
// database.
func OpenFile(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

func ApplySchema(db *sql.DB, schema string) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// OpenMemory opens an in-memory database with `schema` applied.
func OpenMemory(schema string) (*sql.DB, error) {
	db, err := OpenFile(":memory:")
	if err != nil {
		return nil, err
	}
	err = ApplySchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"sort"

	"github.com/6529-Collections/marketview/internal/db"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/dgraph-io/badger/v4"
)

// Compares two stores built from the same chain range, one per backend, and
// reports documents that are missing on either side or differ in index or body.
func main() {
	sqlitePath := flag.String("sqlite", "", "Path to the SQLite store")
	badgerPath := flag.String("badger", "./db/badger", "Path to the Badger store")
	kind := flag.String("kind", "", "Only compare documents of this kind")
	flag.Parse()

	if *sqlitePath == "" {
		log.Fatalf("SQLite DB path is required (use --sqlite=/path/to/db.sqlite)")
	}

	sqlDB, err := db.OpenSqlite(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	sqliteBackend := store.NewSQLiteBackend(sqlDB)
	defer sqliteBackend.Close()

	kv, err := badger.Open(badger.DefaultOptions(*badgerPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open Badger DB: %v", err)
	}
	badgerBackend := store.NewBadgerBackend(kv)
	defer badgerBackend.Close()

	ctx := context.Background()
	left, err := collect(ctx, sqliteBackend, store.Kind(*kind))
	if err != nil {
		log.Fatalf("Failed to read SQLite documents: %v", err)
	}
	right, err := collect(ctx, badgerBackend, store.Kind(*kind))
	if err != nil {
		log.Fatalf("Failed to read Badger documents: %v", err)
	}

	keys := make([]string, 0, len(left)+len(right))
	for k := range left {
		keys = append(keys, k)
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var onlySqlite, onlyBadger, differing int
	for _, k := range keys {
		l, inLeft := left[k]
		r, inRight := right[k]
		switch {
		case !inRight:
			onlySqlite++
			fmt.Printf("only in sqlite: %s\n", k)
		case !inLeft:
			onlyBadger++
			fmt.Printf("only in badger: %s\n", k)
		case l.Index != r.Index:
			differing++
			fmt.Printf("index differs: %s sqlite=%+v badger=%+v\n", k, l.Index, r.Index)
		case !sameJSON(l.Body, r.Body):
			differing++
			fmt.Printf("body differs: %s\n  sqlite=%s\n  badger=%s\n", k, l.Body, r.Body)
		}
	}

	fmt.Printf("sqlite documents: %d, badger documents: %d\n", len(left), len(right))
	fmt.Printf("only in sqlite: %d, only in badger: %d, differing: %d\n", onlySqlite, onlyBadger, differing)
	if onlySqlite+onlyBadger+differing == 0 {
		fmt.Println("Stores match.")
	}
}

func collect(ctx context.Context, w store.Walker, kind store.Kind) (map[string]store.Record, error) {
	records := make(map[string]store.Record)
	err := w.Walk(ctx, kind, func(rec store.Record) error {
		records[string(rec.Kind)+"/"+rec.ID] = rec
		return nil
	})
	return records, err
}

func sameJSON(a, b []byte) bool {
	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

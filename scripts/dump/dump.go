package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/6529-Collections/marketview/internal/store"
	"github.com/dgraph-io/badger/v4"
)

func main() {
	dbPath := flag.String("db", "./db/badger", "Path to the Badger store")
	kind := flag.String("kind", "", "Only dump documents of this kind (e.g. listing, auction, history)")
	outputMode := flag.String("o", "console", "Output mode: 'console' or 'file'")
	outputFile := flag.String("f", "dump.txt", "Output file (if mode is 'file')")
	flag.Parse()

	var out *os.File
	var err error

	if *outputMode == "file" {
		out, err = os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer out.Close()
	} else {
		out = os.Stdout
	}

	kv, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open BadgerDB: %v", err)
	}
	backend := store.NewBadgerBackend(kv)
	defer backend.Close()

	if *outputMode == "file" {
		fmt.Println("Dumping store documents to file", *outputFile)
	} else {
		fmt.Println("Dumping store documents to console")
	}

	counts := map[store.Kind]int{}
	err = backend.Walk(context.Background(), store.Kind(*kind), func(rec store.Record) error {
		counts[rec.Kind]++
		fmt.Fprintf(out, "Document: %s/%s\n", rec.Kind, rec.ID)
		if rec.Index.AssetID != "" {
			fmt.Fprintf(out, "  Asset: %s\n", rec.Index.AssetID)
			fmt.Fprintf(out, "  Status: %s\n", rec.Index.Status)
			fmt.Fprintf(out, "  Position: %s\n", rec.Index.Position)
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, rec.Body, "  ", "  "); err != nil {
			fmt.Fprintf(out, "  [ERROR] Body is not valid JSON: %v\n  %s\n", err, rec.Body)
		} else {
			fmt.Fprintf(out, "  %s\n", pretty.String())
		}
		fmt.Fprintln(out, "-------------------------")
		return nil
	})
	if err != nil {
		log.Fatalf("Error while iterating: %v", err)
	}

	for k, n := range counts {
		fmt.Fprintf(out, "%s: %d documents\n", k, n)
	}
	fmt.Println("Dump complete.")
}

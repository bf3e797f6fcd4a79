// Command addressbook builds a region's full-text address book from its
// source CSV.
package main

import (
	"context"
	"fmt"
	"os"

	"wayfarer/pkg/addressbook"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <input-csv> <output-sqlite>\n", os.Args[0])
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer f.Close()

	buildings, err := addressbook.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	if len(buildings) == 0 {
		return fmt.Errorf("%s has no addressable rows", input)
	}

	db, err := addressbook.Create(output)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := addressbook.Import(ctx, db, buildings); err != nil {
		return err
	}
	fmt.Printf("imported %d buildings into %s\n", len(buildings), output)
	return nil
}

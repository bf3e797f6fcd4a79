package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const sampleCSV = `1;23.145556;53.135278;PL;Białystok;15-318;Wiejska;18
2;23.146000;53.136000;PL;Białystok;15-318;Wiejska;35C
3;;;PL;Białystok;15-318;Wiejska;40
`

func TestRunImportsCSV(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "podlaskie.csv")
	output := filepath.Join(dir, "podlaskie.sqlite")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0o644))

	require.NoError(t, run(context.Background(), input, output))

	db, err := sql.Open("sqlite", "file:"+output+"?mode=ro")
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM building").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunRejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(input, []byte(""), 0o644))

	err := run(context.Background(), input, filepath.Join(dir, "out.sqlite"))
	assert.Error(t, err)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.sqlite"))
	assert.Error(t, err)
}

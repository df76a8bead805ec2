package table

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDedupPreservesOrder(t *testing.T) {
	got := Resolve([]Spec{
		{Name: "orders", ChunkSize: 500},
		{Name: "customers"},
		{Name: "orders", ChunkSize: 7},
		{Name: "items"},
		{Name: "customers"},
	}, 2000)

	assert.Equal(t, []Spec{
		{Name: "orders", ChunkSize: 500},
		{Name: "customers", ChunkSize: 2000},
		{Name: "items", ChunkSize: 2000},
	}, got)
}

func TestResolveDefaults(t *testing.T) {
	got := Resolve(Specs("a"), 0)
	assert.Equal(t, []Spec{{Name: "a", ChunkSize: DefaultChunkSize}}, got)
	assert.Empty(t, Resolve(nil, 10))
}

func TestInfoFetcherSQL(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE orders (id INTEGER)`,
		`CREATE TABLE customers (id INTEGER)`,
		`CREATE TABLE items (id INTEGER)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	// creation order, so sorting is observable
	fetcher := NewInfoFetcherSQL(db, "main", `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid`)
	ctx := context.Background()

	infos, err := fetcher.All(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers", "items"}, Names(infos))
	assert.Equal(t, "main", infos[0].DatabaseName)

	infos, err = fetcher.All(ctx, &FetchOptions{SortByCol: SortByAlphaTableName, SortByDirection: SortDirectionASC})
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "items", "orders"}, Names(infos))

	infos, err = fetcher.All(ctx, &FetchOptions{SortByCol: SortByAlphaTableName, SortByDirection: SortDirectionDESC})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "items", "customers"}, Names(infos))
}

func TestInfoFetcherSQLQueryError(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewInfoFetcherSQL(db, "main", `SELECT name FROM no_such_catalog`).All(context.Background(), nil)
	assert.Error(t, err)
}

package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"))

	testCases := []StateRecord{
		{Mode: ModeStock, Status: StatusInStock},
		{Mode: ModeStock, Status: StatusOutOfStock},
		{Mode: ModePrice, Amount: "279.00", Currency: "EUR"},
	}

	for _, record := range testCases {
		err := store.Save(record)
		if err != nil {
			t.Fatal(err)
		}
		loaded, found, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		require.True(t, found)
		require.False(t, loaded.UpdatedAt.IsZero())

		diff := cmp.Diff(record, loaded, cmpopts.IgnoreFields(StateRecord{}, "UpdatedAt"))
		if diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestStoreMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	_, found, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, found)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	err := os.WriteFile(path, []byte(`{"mode": "stock", "status`), 0644)
	require.NoError(t, err)

	store := NewStore(path)
	_, found, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, found)
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "state.json"))

	err := store.Save(StateRecord{Mode: ModeStock, Status: StatusInStock})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "state.json", entries[0].Name())
}

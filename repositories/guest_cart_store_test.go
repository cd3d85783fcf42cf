package repositories

import (
	"os"
	"testing"

	"gpu-shop/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGuestCartRoundTrip(t *testing.T) {
	store, err := NewFileGuestCartStore(t.TempDir())
	require.NoError(t, err)

	deselected := false
	items := []models.CartLineItem{
		{
			ID:          uuid.New(),
			ProductID:   1,
			ProductName: "VoltCore RTX Apex",
			UnitPrice:   decimal.RequireFromString("999.99"),
			Quantity:    3,
			ImageURL:    "/uploads/products/apex.png",
			Selected:    &deselected,
		},
	}

	require.NoError(t, store.Save("guest-abc", items))

	got, err := store.Load("guest-abc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, items[0].ID, got[0].ID)
	require.Equal(t, 3, got[0].Quantity)
	require.True(t, got[0].UnitPrice.Equal(items[0].UnitPrice))
	require.NotNil(t, got[0].Selected)
	require.False(t, *got[0].Selected)
}

func TestGuestCartLoadMissingKeyIsEmpty(t *testing.T) {
	store, err := NewFileGuestCartStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Load("never-saved")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGuestCartClear(t *testing.T) {
	store, err := NewFileGuestCartStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("guest-x", []models.CartLineItem{{ID: uuid.New(), Quantity: 1}}))
	require.NoError(t, store.Clear("guest-x"))
	require.NoError(t, store.Clear("guest-x"))

	got, err := store.Load("guest-x")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGuestKeySanitization(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileGuestCartStore(dir)
	require.NoError(t, err)

	// path separators and dots are stripped before hitting the filesystem
	require.NoError(t, store.Save("../../etc/passwd", []models.CartLineItem{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "etcpasswd.json", entries[0].Name())

	_, err = store.Load("!!!")
	require.Error(t, err)
}

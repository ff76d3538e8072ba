package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestPharmacistRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Phil", "phil@example.com", "")

	p, err := f.pharmacists.Register(ctx, user.ID, PharmacistInput{
		Inventory: []models.InventoryItem{{MedicationName: "Ibuprofen", StockLevel: 30, ExpirationDate: f.now.AddDate(1, 0, 0)}},
	})
	require.NoError(t, err)
	require.Len(t, p.Inventory, 1)
	assert.False(t, p.Inventory[0].ID.IsZero())

	stored, err := f.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RolePharmacist, stored.Role)

	_, err = f.pharmacists.Register(ctx, user.ID, PharmacistInput{})
	assert.True(t, IsKind(err, KindValidation))
}

func TestPharmacistProfileMissing(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "Ada", "ada@example.com", "")

	_, err := f.pharmacists.Profile(context.Background(), user.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestInventoryOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Phil", "phil@example.com", models.RolePharmacist)
	expires := f.now.AddDate(0, 6, 0)

	items, err := f.pharmacists.AddDrug(ctx, user.ID, models.InventoryItem{MedicationName: "Amoxicillin", StockLevel: 12, ExpirationDate: expires})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = f.pharmacists.AddDrug(ctx, user.ID, models.InventoryItem{MedicationName: "Paracetamol", StockLevel: 40, ExpirationDate: expires})
	require.NoError(t, err)
	require.Len(t, items, 2)

	_, err = f.pharmacists.AddDrug(ctx, user.ID, models.InventoryItem{MedicationName: "Bad", StockLevel: -1, ExpirationDate: expires})
	assert.True(t, IsKind(err, KindValidation))

	items, err = f.pharmacists.RemoveDrug(ctx, user.ID, items[0].ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Paracetamol", items[0].MedicationName)

	replaced, err := f.pharmacists.SetInventory(ctx, user.ID, []models.InventoryItem{
		{MedicationName: "Insulin", StockLevel: 5, ExpirationDate: expires},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 1)

	current, err := f.pharmacists.Inventory(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, replaced, current)
}

func TestPharmacistNotificationsAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Phil", "phil@example.com", models.RolePharmacist)

	notes, err := f.pharmacists.SetNotifications(ctx, user.ID, []string{"restock insulin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"restock insulin"}, notes)

	profile, err := f.pharmacists.UpdateProfile(ctx, user.ID, PharmacistUpdate{Notifications: []string{}})
	require.NoError(t, err)
	assert.Empty(t, profile.Notifications)

	_, err = f.pharmacists.UpdateProfile(ctx, user.ID, PharmacistUpdate{})
	assert.True(t, IsKind(err, KindValidation))
}

func TestExportInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Phil", "phil@example.com", models.RolePharmacist)

	_, err := f.pharmacists.SetInventory(ctx, user.ID, []models.InventoryItem{
		{MedicationName: "Insulin", StockLevel: 5, ExpirationDate: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)},
		{MedicationName: "Aspirin", StockLevel: 9, ExpirationDate: time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	data, err := f.pharmacists.ExportInventory(ctx, user.ID)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, inventoryHeader, rows[0])
	assert.Equal(t, []string{"Insulin", "5", "2031-01-01", "In stock"}, rows[1])
	assert.Equal(t, []string{"Aspirin", "9", "2029-01-01", "Expired"}, rows[2])
}

func TestInventoryStatus(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)

	assert.Equal(t, "Expired", inventoryStatus(models.InventoryItem{StockLevel: 3, ExpirationDate: now}, now))
	assert.Equal(t, "Out of stock", inventoryStatus(models.InventoryItem{StockLevel: 0, ExpirationDate: future}, now))
	assert.Equal(t, "In stock", inventoryStatus(models.InventoryItem{StockLevel: 1, ExpirationDate: future}, now))
}

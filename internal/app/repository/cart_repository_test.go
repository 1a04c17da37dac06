package repository

import (
	"testing"
	"time"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSessionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func setupCartRepoTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCartRepository(testDB)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	product := &model.Product{
		Name:          "Test Product",
		SKU:           "TST-001",
		Price:         decimal.RequireFromString("85.50"),
		StockQuantity: 10,
		IsActive:      true,
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func TestCartRepository_FindOrCreateByOwner_Guest(t *testing.T) {
	testDB, repo, _, _ := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	identity := model.GuestIdentity(testSessionKey)

	cart, err := repo.FindOrCreateByOwner(identity)
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)
	require.NotNil(t, cart.SessionKey)
	assert.Equal(t, testSessionKey, *cart.SessionKey)
	assert.Nil(t, cart.UserID)

	// Second call returns the same row
	again, err := repo.FindOrCreateByOwner(identity)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartRepository_FindOrCreateByOwner_User(t *testing.T) {
	testDB, repo, user, _ := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	identity := model.AuthenticatedIdentity(user.ID)

	cart, err := repo.FindOrCreateByOwner(identity)
	require.NoError(t, err)
	require.NotNil(t, cart.UserID)
	assert.Equal(t, user.ID, *cart.UserID)
	assert.Nil(t, cart.SessionKey)
}

func TestCartRepository_FindByOwner_NotFound(t *testing.T) {
	testDB, repo, _, _ := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByOwner(model.GuestIdentity(testSessionKey))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_FindByOwner_PreloadsItemsInOrder(t *testing.T) {
	testDB, repo, _, product := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	second := &model.Product{
		Name:          "Second Product",
		SKU:           "TST-002",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 5,
		IsActive:      true,
	}
	testDB.Create(second)

	identity := model.GuestIdentity(testSessionKey)
	cart, err := repo.FindOrCreateByOwner(identity)
	require.NoError(t, err)

	first := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: product.Price,
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.CreateItem(first))
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: second.ID,
		Quantity:  2,
		UnitPrice: second.Price,
	}))

	found, err := repo.FindByOwner(identity)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, product.ID, found.Items[0].ProductID)
	assert.Equal(t, "Test Product", found.Items[0].Product.Name)
	assert.Equal(t, second.ID, found.Items[1].ProductID)
}

func TestCartRepository_LockItemByProduct(t *testing.T) {
	testDB, repo, _, product := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByOwner(model.GuestIdentity(testSessionKey))
	require.NoError(t, err)

	_, err = repo.LockItemByProduct(cart.ID, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: product.Price,
	}
	require.NoError(t, repo.CreateItem(item))

	locked, err := repo.LockItemByProduct(cart.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, locked.ID)
	assert.Equal(t, 2, locked.Quantity)
}

func TestCartRepository_DeleteItemsByCartID(t *testing.T) {
	testDB, repo, _, product := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByOwner(model.GuestIdentity(testSessionKey))
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: product.Price,
	}))

	require.NoError(t, repo.DeleteItemsByCartID(cart.ID))

	items, err := repo.ItemsWithProducts(cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepository_DeleteOrphanedGuestCarts(t *testing.T) {
	testDB, repo, user, product := setupCartRepoTest(t)
	defer db.CleanupTestDB(testDB)

	// Live session with a cart
	liveKey := testSessionKey
	testDB.Create(&model.Session{SessionKey: liveKey, ExpiresAt: time.Now().Add(time.Hour)})
	liveCart, err := repo.FindOrCreateByOwner(model.GuestIdentity(liveKey))
	require.NoError(t, err)

	// Orphaned guest cart with an item, session already gone
	orphanKey := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	orphanCart, err := repo.FindOrCreateByOwner(model.GuestIdentity(orphanKey))
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    orphanCart.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: product.Price,
	}))

	// User cart must never be swept
	userCart, err := repo.FindOrCreateByOwner(model.AuthenticatedIdentity(user.ID))
	require.NoError(t, err)

	deleted, err := repo.DeleteOrphanedGuestCarts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var ids []uint
	testDB.Model(&model.Cart{}).Pluck("id", &ids)
	assert.ElementsMatch(t, []uint{liveCart.ID, userCart.ID}, ids)

	var itemCount int64
	testDB.Model(&model.CartItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), itemCount)
}

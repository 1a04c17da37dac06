package repository

import (
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is the ownership-scoped store for carts and cart items.
// Mutating flows run inside a transaction: obtain a tx-bound copy through
// WithTx and use the Lock* methods to serialize concurrent writers on the
// same row.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository

	FindByOwner(identity model.Identity) (*model.Cart, error)
	FindOrCreateByOwner(identity model.Identity) (*model.Cart, error)
	LockCart(cartID uint) (*model.Cart, error)

	FindItemByID(itemID uint) (*model.CartItem, error)
	LockItem(itemID uint) (*model.CartItem, error)
	LockItemByProduct(cartID, productID uint) (*model.CartItem, error)
	ItemsWithProducts(cartID uint) ([]model.CartItem, error)

	CreateItem(item *model.CartItem) error
	SaveItem(item *model.CartItem) error
	DeleteItem(itemID uint) error
	DeleteItemsByCartID(cartID uint) error
	DeleteCart(cartID uint) error

	DeleteOrphanedGuestCarts() (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) ownerScope(identity model.Identity) *gorm.DB {
	if identity.IsAuthenticated() {
		return r.db.Where("user_id = ?", identity.UserID)
	}
	return r.db.Where("session_key = ? AND user_id IS NULL", identity.SessionKey)
}

func (r *cartRepository) FindByOwner(identity model.Identity) (*model.Cart, error) {
	var cart model.Cart
	err := r.ownerScope(identity).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by owner in database", err, map[string]interface{}{
				"user_id":     identity.UserID,
				"session_key": identity.SessionKey,
			})
		}
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByOwner returns the identity's cart, creating the row when it
// does not exist yet. Run inside the mutation's transaction so the check and
// the insert cannot race.
func (r *cartRepository) FindOrCreateByOwner(identity model.Identity) (*model.Cart, error) {
	cart := model.Cart{}
	if identity.IsAuthenticated() {
		userID := identity.UserID
		cart.UserID = &userID
	} else {
		sessionKey := identity.SessionKey
		cart.SessionKey = &sessionKey
	}

	err := r.ownerScope(identity).
		Attrs(cart).
		FirstOrCreate(&cart).Error
	if err != nil {
		logger.Error("Failed to find or create cart in database", err, map[string]interface{}{
			"user_id":     identity.UserID,
			"session_key": identity.SessionKey,
		})
		return nil, err
	}

	logger.Debug("Cart resolved for owner", map[string]interface{}{
		"cart_id":     cart.ID,
		"user_id":     identity.UserID,
		"session_key": identity.SessionKey,
	})
	return &cart, nil
}

// LockCart takes a row lock on the cart itself. Used to serialize concurrent
// first inserts of the same product, which have no item row to lock yet.
func (r *cartRepository) LockCart(cartID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindItemByID(itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.
		Preload("Cart").
		Preload("Product").
		First(&item, itemID).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
				"cart_item_id": itemID,
			})
		}
		return nil, err
	}
	return &item, nil
}

// LockItem loads an item by primary key under a row lock, with its owning
// cart and product attached.
func (r *cartRepository) LockItem(itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Cart").
		Preload("Product").
		First(&item, itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockItemByProduct loads the (cart, product) item under a row lock. A
// concurrent writer targeting the same item blocks here until the first
// transaction commits, then re-reads fresh state.
func (r *cartRepository) LockItemByProduct(cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) ItemsWithProducts(cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.
		Where("cart_id = ?", cartID).
		Preload("Product").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to load cart items in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) SaveItem(item *model.CartItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      item.CartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) error {
	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteCart(cartID uint) error {
	if err := r.db.Delete(&model.Cart{}, cartID).Error; err != nil {
		logger.Error("Failed to delete cart from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

// DeleteOrphanedGuestCarts removes guest carts whose session row no longer
// exists, along with their items. Returns the number of carts removed.
func (r *cartRepository) DeleteOrphanedGuestCarts() (int64, error) {
	liveKeys := r.db.Model(&model.Session{}).Select("session_key")
	orphanIDs := r.db.Model(&model.Cart{}).
		Select("id").
		Where("user_id IS NULL AND session_key NOT IN (?)", liveKeys)

	if err := r.db.
		Where("cart_id IN (?)", orphanIDs).
		Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete orphaned cart items from database", err)
		return 0, err
	}

	result := r.db.
		Where("user_id IS NULL AND session_key NOT IN (?)", liveKeys).
		Delete(&model.Cart{})
	if result.Error != nil {
		logger.Error("Failed to delete orphaned guest carts from database", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

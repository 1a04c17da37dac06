package service

import (
	"errors"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"gorm.io/gorm"
)

// CartService orchestrates cart reads and mutations for a resolved identity.
// Every mutation runs inside a single transaction with a row lock on the
// target item (or on the cart, for first inserts), so two near-simultaneous
// writes to the same product cannot lose an update. Frozen unit prices are
// never rewritten after the first add.
type CartService interface {
	GetCart(identity model.Identity) (*CartView, error)
	AddItem(identity model.Identity, productID uint, quantity int) (*CartItemView, *CartTotalsView, error)
	UpdateItem(identity model.Identity, itemID uint, quantity int) (*CartItemView, *CartTotalsView, error)
	RemoveItem(identity model.Identity, itemID uint) (string, *CartTotalsView, error)
	ClearCart(identity model.Identity) (*CartTotalsView, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart is read-only: an identity without a cart row gets a computed empty
// view and no row is ever written.
func (s *cartService) GetCart(identity model.Identity) (*CartView, error) {
	cart, err := s.cartRepo.FindByOwner(identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCartView(), nil
		}
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id":     identity.UserID,
			"session_key": identity.SessionKey,
		})
		return nil, err
	}

	logger.Debug("Cart fetched", map[string]interface{}{
		"cart_id": cart.ID,
		"items":   len(cart.Items),
	})
	return newCartView(cart.ID, cart.Items), nil
}

func validateQuantity(quantity int) error {
	if quantity < model.MinItemQuantity || quantity > model.MaxItemQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

func (s *cartService) AddItem(identity model.Identity, productID uint, quantity int) (*CartItemView, *CartTotalsView, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":     identity.UserID,
		"session_key": identity.SessionKey,
		"product_id":  productID,
		"quantity":    quantity,
	})

	if err := validateQuantity(quantity); err != nil {
		return nil, nil, err
	}

	product, err := s.productRepo.FindActiveByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found or inactive", map[string]interface{}{
				"product_id": productID,
			})
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, err
	}

	var itemView *CartItemView
	var totalsView *CartTotalsView

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		cart, err := repo.FindOrCreateByOwner(identity)
		if err != nil {
			return err
		}

		item, err := repo.LockItemByProduct(cart.ID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if item == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			// No item row to lock yet: lock the cart row instead to
			// serialize concurrent first inserts of the same product, then
			// re-read in case another writer inserted while we waited.
			if _, err := repo.LockCart(cart.ID); err != nil {
				return err
			}
			item, err = repo.LockItemByProduct(cart.ID, productID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if item != nil && item.ID != 0 {
			newQty := item.Quantity + quantity
			if newQty > model.MaxItemQuantity {
				newQty = model.MaxItemQuantity
			}
			if newQty > product.StockQuantity {
				logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
					"product_id": productID,
					"requested":  newQty,
					"available":  product.StockQuantity,
				})
				return newInsufficientStockError(product.StockQuantity, item.Quantity)
			}

			// Price stays frozen at the original add.
			item.Quantity = newQty
			if err := repo.SaveItem(item); err != nil {
				return err
			}
		} else {
			if quantity > product.StockQuantity {
				logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
					"product_id": productID,
					"requested":  quantity,
					"available":  product.StockQuantity,
				})
				return newInsufficientStockError(product.StockQuantity, 0)
			}

			item = &model.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
			}
			if err := repo.CreateItem(item); err != nil {
				return err
			}
		}

		item.Product = *product

		items, err := repo.ItemsWithProducts(cart.ID)
		if err != nil {
			return err
		}

		view := newCartItemView(item)
		totals := newCartTotalsView(CalculateTotals(items))
		itemView = &view
		totalsView = &totals
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"cart_item_id": itemView.ID,
		"quantity":     itemView.Quantity,
	})
	return itemView, totalsView, nil
}

func (s *cartService) UpdateItem(identity model.Identity, itemID uint, quantity int) (*CartItemView, *CartTotalsView, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":      identity.UserID,
		"session_key":  identity.SessionKey,
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	if err := validateQuantity(quantity); err != nil {
		return nil, nil, err
	}

	var itemView *CartItemView
	var totalsView *CartTotalsView

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		item, err := repo.LockItem(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		if !item.Cart.OwnedBy(identity) {
			logger.Warn("Cart item access denied: ownership mismatch", map[string]interface{}{
				"cart_item_id": itemID,
				"cart_id":      item.CartID,
				"user_id":      identity.UserID,
				"session_key":  identity.SessionKey,
			})
			return ErrNotCartOwner
		}

		if quantity > item.Product.StockQuantity {
			logger.Warn("Cannot update cart item: insufficient stock", map[string]interface{}{
				"cart_item_id": itemID,
				"requested":    quantity,
				"available":    item.Product.StockQuantity,
			})
			return &InsufficientStockError{
				Available:  item.Product.StockQuantity,
				MaxAddable: item.Product.StockQuantity,
			}
		}

		// Quantity is the only mutable field; the frozen price is untouched.
		item.Quantity = quantity
		if err := repo.SaveItem(item); err != nil {
			return err
		}

		items, err := repo.ItemsWithProducts(item.CartID)
		if err != nil {
			return err
		}

		view := newCartItemView(item)
		totals := newCartTotalsView(CalculateTotals(items))
		itemView = &view
		totalsView = &totals
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Cart item updated successfully", map[string]interface{}{
		"cart_item_id": itemID,
		"quantity":     quantity,
	})
	return itemView, totalsView, nil
}

// RemoveItem deletes a single line and returns the removed product's name
// alongside the recomputed totals.
func (s *cartService) RemoveItem(identity model.Identity, itemID uint) (string, *CartTotalsView, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":      identity.UserID,
		"session_key":  identity.SessionKey,
		"cart_item_id": itemID,
	})

	var productName string
	var totalsView *CartTotalsView

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		item, err := repo.LockItem(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		if !item.Cart.OwnedBy(identity) {
			logger.Warn("Cart item removal denied: ownership mismatch", map[string]interface{}{
				"cart_item_id": itemID,
				"cart_id":      item.CartID,
				"user_id":      identity.UserID,
				"session_key":  identity.SessionKey,
			})
			return ErrNotCartOwner
		}

		productName = item.Product.Name

		if err := repo.DeleteItem(itemID); err != nil {
			return err
		}

		items, err := repo.ItemsWithProducts(item.CartID)
		if err != nil {
			return err
		}

		totals := newCartTotalsView(CalculateTotals(items))
		totalsView = &totals
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_item_id": itemID,
	})
	return productName, totalsView, nil
}

func (s *cartService) ClearCart(identity model.Identity) (*CartTotalsView, error) {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id":     identity.UserID,
		"session_key": identity.SessionKey,
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		cart, err := repo.FindByOwner(identity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to clear
				return nil
			}
			return err
		}

		return repo.DeleteItemsByCartID(cart.ID)
	})
	if err != nil {
		return nil, err
	}

	totals := newCartTotalsView(CalculateTotals(nil))
	logger.Info("Cart cleared", map[string]interface{}{
		"user_id":     identity.UserID,
		"session_key": identity.SessionKey,
	})
	return &totals, nil
}

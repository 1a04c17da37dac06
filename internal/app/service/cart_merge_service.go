package service

import (
	"errors"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"gorm.io/gorm"
)

// CartMergeService folds a guest cart into the authenticated user's cart at
// login. The whole merge is one transaction: on any failure nothing is
// visible, and because the guest cart and session are deleted at the end, a
// second call with the same guest identity finds nothing and is a no-op.
type CartMergeService interface {
	MergeGuestCart(sessionKey string, userID uint) error
}

type cartMergeService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	sessionRepo repository.SessionRepository
	productRepo repository.ProductRepository
}

func NewCartMergeService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
) CartMergeService {
	return &cartMergeService{
		db:          db,
		cartRepo:    cartRepo,
		sessionRepo: sessionRepo,
		productRepo: productRepo,
	}
}

func (s *cartMergeService) MergeGuestCart(sessionKey string, userID uint) error {
	if sessionKey == "" {
		return nil
	}

	logger.Info("Merging guest cart into user cart", map[string]interface{}{
		"user_id": userID,
	})

	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		guestCart, err := repo.FindByOwner(model.GuestIdentity(sessionKey))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to merge; already merged or never existed.
				logger.Debug("No guest cart to merge", map[string]interface{}{
					"user_id": userID,
				})
				return nil
			}
			return err
		}

		userCart, err := repo.FindOrCreateByOwner(model.AuthenticatedIdentity(userID))
		if err != nil {
			return err
		}
		if _, err := repo.LockCart(userCart.ID); err != nil {
			return err
		}

		merged := 0
		moved := 0
		for i := range guestCart.Items {
			guestItem := &guestCart.Items[i]

			userItem, err := repo.LockItemByProduct(userCart.ID, guestItem.ProductID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if userItem != nil && userItem.ID != 0 {
				if err := mergeQuantities(repo, s.productRepo.WithTx(tx), userItem, guestItem); err != nil {
					return err
				}
				merged++
			} else {
				// Product only in the guest cart: move it over with its
				// frozen price intact.
				item := &model.CartItem{
					CartID:    userCart.ID,
					ProductID: guestItem.ProductID,
					Quantity:  guestItem.Quantity,
					UnitPrice: guestItem.UnitPrice,
				}
				if err := repo.CreateItem(item); err != nil {
					return err
				}
				moved++
			}
		}

		// Dropping the guest cart and session record is what makes a repeat
		// merge a no-op.
		if err := repo.DeleteItemsByCartID(guestCart.ID); err != nil {
			return err
		}
		if err := repo.DeleteCart(guestCart.ID); err != nil {
			return err
		}
		if err := s.sessionRepo.WithTx(tx).Delete(sessionKey); err != nil {
			return err
		}

		logger.Info("Guest cart merged successfully", map[string]interface{}{
			"user_id":      userID,
			"user_cart_id": userCart.ID,
			"merged_items": merged,
			"moved_items":  moved,
		})
		return nil
	})
}

// mergeQuantities combines a guest line into an existing user line. The
// merged quantity is min(user + guest, 99, current stock), floored at 1 so a
// stock report of zero cannot produce an invalid row. The user item's frozen
// price wins; the guest price is discarded.
func mergeQuantities(repo repository.CartRepository, productRepo repository.ProductRepository, userItem, guestItem *model.CartItem) error {
	mergedQty := userItem.Quantity + guestItem.Quantity
	if mergedQty > model.MaxItemQuantity {
		mergedQty = model.MaxItemQuantity
	}

	product, err := productRepo.FindByID(userItem.ProductID)
	if err == nil && mergedQty > product.StockQuantity {
		mergedQty = product.StockQuantity
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if mergedQty < model.MinItemQuantity {
		mergedQty = model.MinItemQuantity
	}

	userItem.Quantity = mergedQty
	return repo.SaveItem(userItem)
}

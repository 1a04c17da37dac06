package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/middleware"
	"github.com/marbelle/marbelle-backend/internal/response"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// itemWithTotals is the payload for item-level mutations
type itemWithTotals struct {
	Item       *service.CartItemView   `json:"item"`
	CartTotals *service.CartTotalsView `json:"cart_totals"`
}

type totalsOnly struct {
	CartTotals *service.CartTotalsView `json:"cart_totals"`
}

// respondCartError maps service errors to envelope responses. Stock
// conflicts carry the maximum addable amount so the client can offer a
// corrected retry.
func respondCartError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		response.BadRequest(c, response.ValidationInvalidQuantity, "Quantity must be between 1 and 99.")
	case errors.Is(err, service.ErrProductNotFound):
		response.NotFound(c, response.CartProductNotFound, "Product not found.")
	case errors.Is(err, service.ErrCartItemNotFound):
		response.NotFound(c, response.CartItemNotFound, "Cart item not found.")
	case errors.Is(err, service.ErrNotCartOwner):
		response.Forbidden(c, "This cart item belongs to another cart.")
	case errors.As(err, &stockErr):
		response.FailWithData(c, http.StatusConflict, response.CartInsufficientStock,
			fmt.Sprintf("Only %d items available in stock.", stockErr.Available),
			gin.H{"max_addable": stockErr.MaxAddable})
	default:
		response.InternalError(c, "")
	}
}

// GetCart returns the current cart with items and totals
// GET /api/v1/cart/
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		log.Error("Identity missing from context", nil)
		response.InternalError(c, "")
		return
	}

	cart, err := ctrl.cartService.GetCart(identity)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		response.InternalError(c, "Failed to fetch cart.")
		return
	}

	response.OK(c, "Cart retrieved successfully.", cart)
}

// AddItem adds a product to the cart or increments its quantity
// POST /api/v1/cart/items/
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		log.Error("Identity missing from context", nil)
		response.InternalError(c, "")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		response.ValidationFailed(c, map[string]string{"body": err.Error()})
		return
	}

	item, totals, err := ctrl.cartService.AddItem(identity, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}

	response.Created(c,
		fmt.Sprintf("Added %d x %s to cart.", req.Quantity, item.Product.Name),
		itemWithTotals{Item: item, CartTotals: totals})
}

// UpdateItem changes the quantity of a cart item
// PUT /api/v1/cart/items/:id/
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		log.Error("Identity missing from context", nil)
		response.InternalError(c, "")
		return
	}

	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"cart_item_id": itemID,
			"error":        err.Error(),
		})
		response.ValidationFailed(c, map[string]string{"body": err.Error()})
		return
	}

	item, totals, err := ctrl.cartService.UpdateItem(identity, itemID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}

	response.OK(c, "Cart item updated successfully.",
		itemWithTotals{Item: item, CartTotals: totals})
}

// RemoveItem deletes a single cart item
// DELETE /api/v1/cart/items/:id/remove/
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		log.Error("Identity missing from context", nil)
		response.InternalError(c, "")
		return
	}

	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	productName, totals, err := ctrl.cartService.RemoveItem(identity, itemID)
	if err != nil {
		respondCartError(c, err)
		return
	}

	response.OK(c,
		fmt.Sprintf("Removed %s from cart.", productName),
		totalsOnly{CartTotals: totals})
}

// ClearCart deletes every item in the identity's cart
// DELETE /api/v1/cart/clear/
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		log.Error("Identity missing from context", nil)
		response.InternalError(c, "")
		return
	}

	totals, err := ctrl.cartService.ClearCart(identity)
	if err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		response.InternalError(c, "Failed to clear cart.")
		return
	}

	response.OK(c, "Cart cleared successfully.", totalsOnly{CartTotals: totals})
}

func parseItemID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.BadRequest(c, response.ValidationInvalidID, "Invalid cart item ID.")
		return 0, false
	}
	return uint(id), true
}

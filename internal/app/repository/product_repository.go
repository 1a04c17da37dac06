package repository

import (
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductRepository is the narrow, read-only contract against the product
// catalog: the cart subsystem reads price, active flag, and current stock,
// and writes nothing.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository

	FindByID(id uint) (*model.Product, error)
	FindActiveByID(id uint) (*model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product in database", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindActiveByID(id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find active product in database", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

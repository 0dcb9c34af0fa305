package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/models"
)

// decrementStock applies a conditional decrement so two concurrent checkouts
// cannot both take the last unit. The WHERE guard keeps stock non-negative;
// zero rows affected means the quantity was no longer available.
func decrementStock(tx *gorm.DB, productID, variantID *uuid.UUID, quantity int, name string) error {
	var res *gorm.DB
	if variantID != nil {
		res = tx.Model(&models.ProductVariant{}).
			Where("id = ? AND stock >= ?", *variantID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	} else {
		res = tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", *productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InsufficientStockf("insufficient stock for %s (requested %d)", name, quantity)
	}
	return nil
}

// incrementStock returns units to the ledger on cancellation, return,
// deletion or quantity reduction.
func incrementStock(tx *gorm.DB, productID, variantID *uuid.UUID, quantity int) error {
	if variantID != nil {
		return tx.Model(&models.ProductVariant{}).
			Where("id = ?", *variantID).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", *productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

// availableStock reads the current quantity for an item target.
func availableStock(tx *gorm.DB, productID, variantID *uuid.UUID) (int, error) {
	if variantID != nil {
		var variant models.ProductVariant
		if err := tx.First(&variant, "id = ?", *variantID).Error; err != nil {
			return 0, err
		}
		return variant.Stock, nil
	}
	var product models.Product
	if err := tx.First(&product, "id = ?", *productID).Error; err != nil {
		return 0, err
	}
	return product.Stock, nil
}

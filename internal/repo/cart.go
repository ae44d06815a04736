package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ddkma/bakery_shop/internal/models"
)

// CartItemRow is a cart line joined with the product's display snapshot.
type CartItemRow struct {
	ID           uint            `json:"id"`
	CartID       uint            `json:"cart_id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     uint            `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// OwnedItemRow is the single joined read used by the quantity-update path:
// the line item, its owning cart (scoped to the user) and the live product
// columns the stock guard needs.
type OwnedItemRow struct {
	ID           uint
	CartID       uint
	ProductID    uint
	ProductName  string
	ProductImage string
	Quantity     uint
	UnitPrice    decimal.Decimal
	Stock        uint
	Available    bool
	Deleted      bool
}

const cartItemSelect = `cart_items.id AS id,
	cart_items.cart_id AS cart_id,
	cart_items.product_id AS product_id,
	products.name AS product_name,
	products.image AS product_image,
	cart_items.quantity AS quantity,
	cart_items.unit_price AS unit_price`

func (r *GormRepo) FindActiveCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// ensureActiveCart fetches the user's active cart, creating one when absent.
// The partial unique index on carts(user_id) WHERE active turns a concurrent
// create into a unique violation, in which case the winner's row is fetched.
func (r *GormRepo) ensureActiveCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID, Active: true}
	cerr := r.DB.WithContext(ctx).Create(&cart).Error
	if cerr == nil {
		return &cart, nil
	}
	if !isUniqueViolation(cerr) {
		return nil, cerr
	}

	// lost the race, another request created the active cart first
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// errCartRetired signals that the cart was cleared between being resolved
// and the item write. The caller resolves a fresh cart and tries again.
var errCartRetired = errors.New("cart no longer active")

// lockActiveCart re-asserts, inside the item transaction, that the cart is
// still active. The no-op update takes a row lock, so a concurrent clear
// cannot retire the cart before the item write commits.
func lockActiveCart(tx *gorm.DB, cartID uint) error {
	res := tx.Model(&models.Cart{}).
		Where("id = ? AND active = ?", cartID, true).
		Update("active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errCartRetired
	}
	return nil
}

// AddOrAccumulateItem inserts a line item for (cart, product) or adds
// quantity to the existing one. The cart is created lazily. The unit price is
// stored only on insert: an accumulating add keeps the price captured when
// the product first entered the cart. A cart cleared mid-flight causes a
// retry against a fresh cart rather than an orphan row.
func (r *GormRepo) AddOrAccumulateItem(ctx context.Context, userID, productID, quantity uint, unitPrice decimal.Decimal) (*models.CartItem, error) {
	for attempt := 0; attempt < 3; attempt++ {
		cart, err := r.ensureActiveCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		item, err := r.writeItem(ctx, cart.ID, productID, quantity, unitPrice)
		if err != nil && isUniqueViolation(err) {
			// concurrent insert of the same product won; fold into its row
			item, err = r.foldItem(ctx, cart.ID, productID, quantity)
		}
		if errors.Is(err, errCartRetired) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return item, nil
	}
	return nil, fmt.Errorf("add item for user %d: %w", userID, errCartRetired)
}

func (r *GormRepo) writeItem(ctx context.Context, cartID, productID, quantity uint, unitPrice decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActiveCart(tx, cartID); err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).
				First(&item).Error
		}

		item = models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// foldItem accumulates into the row a concurrent insert of the same product
// just created. Runs in a fresh transaction: the losing insert aborted the
// previous one.
func (r *GormRepo) foldItem(ctx context.Context, cartID, productID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActiveCart(tx, cartID); err != nil {
			return err
		}
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetOwnedItem resolves an item together with its cart and product in one
// read scoped to the owner. A miss is a miss: items owned by other users are
// indistinguishable from missing ones.
func (r *GormRepo) GetOwnedItem(ctx context.Context, userID, itemID uint) (*OwnedItemRow, error) {
	var row OwnedItemRow
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select(cartItemSelect + `,
	products.stock AS stock,
	products.available AS available,
	products.deleted AS deleted`).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.id = ? AND carts.user_id = ? AND carts.active = ?", itemID, userID, true).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) SetItemQuantity(ctx context.Context, cartID, itemID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND cart_id = ?", itemID, cartID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", itemID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item only when it belongs to the user's active cart.
// The ownership check is part of the delete predicate, not a prior read.
func (r *GormRepo) DeleteItem(ctx context.Context, userID, itemID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID,
			r.DB.Model(&models.Cart{}).Select("id").Where("user_id = ? AND active = ?", userID, true)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearCart deletes the active cart's items and retires the cart row in one
// transaction. Returns false when the user has no active cart.
func (r *GormRepo) ClearCart(ctx context.Context, userID uint) (bool, error) {
	cleared := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Where("user_id = ? AND active = ?", userID, true).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("active", false).Error; err != nil {
			return err
		}
		cleared = true
		return nil
	})
	return cleared, err
}

func (r *GormRepo) ListItems(ctx context.Context, cartID uint) ([]CartItemRow, error) {
	rows := make([]CartItemRow, 0)
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select(cartItemSelect).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package service

import "errors"

const MaxQuantity = 99

var (
	ErrMissingUser      = errors.New("user id is required")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 99")
	ErrInvalidReference = errors.New("exactly one of asset_id and bundle_id must be set")
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutFailed   = errors.New("checkout failed")
)

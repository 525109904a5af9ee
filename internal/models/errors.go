package models

import "errors"

// Sentinel errors for the persistence core. Repositories return these
// (optionally wrapped) so services and the HTTP layer can translate them
// without string matching:
// - ErrNotFound: entity does not exist in its document
// - ErrAlreadyExists: key conflict (duplicate username)
// - ErrValidation: malformed input (zero/negative quantity, missing field)
// - ErrEmptyCart: checkout attempted with nothing in the cart
//
// Storage read/write failures are not sentinels; they surface as wrapped
// *os.PathError / encoding errors and map to 500 at the HTTP layer.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("invalid input")
	ErrEmptyCart     = errors.New("cart is empty")
)

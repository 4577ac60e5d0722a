package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrClientNotFound is returned when a client is not found
	ErrClientNotFound = errors.New("client not found")

	// ErrClientHasQuotes is returned when deleting a client that still has quotes
	ErrClientHasQuotes = errors.New("client still has quotes")

	// ErrDuplicateSiret is returned when a client with the same SIRET already exists
	ErrDuplicateSiret = errors.New("a client with this SIRET number already exists")

	// ErrProductNotFound is returned when a product is not found
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateProductCode is returned when a product with the same code already exists
	ErrDuplicateProductCode = errors.New("a product with this code already exists")

	// ErrQuoteNotFound is returned when a quote is not found
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrQuoteVersionConflict is returned when a save carries a stale version
	ErrQuoteVersionConflict = errors.New("quote was modified by someone else")

	// ErrQuoteNotEditable is returned when editing a quote outside the draft status
	ErrQuoteNotEditable = errors.New("only draft quotes can be edited")

	// ErrInvalidTransition is returned when a status change is not allowed by
	// the transition table
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrInvalidQuantity is returned when a line quantity is not strictly positive
	ErrInvalidQuantity = errors.New("line quantity must be greater than zero")

	// ErrInvalidDiscount is returned when a discount is outside the 0..100 range
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")

	// ErrInvalidTaxRate is returned when a tax rate is negative
	ErrInvalidTaxRate = errors.New("tax rate must not be negative")

	// ErrNegativePrice is returned when a price or cost is negative
	ErrNegativePrice = errors.New("prices and costs must not be negative")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned when a user with the same id or email exists
	ErrDuplicateUser = errors.New("a user with this id or email already exists")

	// ErrUserInactive is returned when an inactive account tries to authenticate
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInvalidRole is returned when an invalid role type is provided
	ErrInvalidRole = errors.New("invalid role type")

	// ErrInvalidSortKey is returned when a sort parameter names no known column
	ErrInvalidSortKey = errors.New("unknown sort key")

	// ErrExportNotFound is returned when an export snapshot is not found
	ErrExportNotFound = errors.New("export not found")
)

package loans

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidUser     = errors.New("user does not exist or is inactive")
	ErrBookUnavailable = errors.New("no copies of the book are available")
	ErrAlreadyReturned = errors.New("loan has already been returned")
	ErrAlreadyExtended = errors.New("loan has already been extended")
	ErrLoanClosed      = errors.New("loan is closed and cannot be modified")
)

package certificates

import "errors"

var (
	ErrNotFound         = errors.New("certificate not found")
	ErrInvalidRecipient = errors.New("invalid recipient email")
)

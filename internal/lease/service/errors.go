package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrGateway         = errors.New("membership gateway failure")
	ErrNotAuthorized   = errors.New("not authorized")
)

func gatewayError(err error) error {
	return fmt.Errorf("%w: %w", ErrGateway, err)
}

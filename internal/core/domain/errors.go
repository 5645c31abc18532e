package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrTemporary          = errors.New("temporary failure")
	ErrContractViolation  = errors.New("contract violation")
	ErrUnsupportedBackend = errors.New("unsupported index backend")
	ErrEmptyResponse      = errors.New("empty response body")
)

// ErrMalformedPacket marks a feed unit that failed to parse as a packet.
// Consumers skip the unit and keep reading; the skip stays observable as a count.
var ErrMalformedPacket = errors.New("malformed packet")

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

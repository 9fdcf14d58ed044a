package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	// ErrInvalidArgument marks missing or malformed caller input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstreamUnavailable marks a failed call to an external provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrAlreadyExists is reported by providers on a duplicate create. Callers fold it into success.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyMember is reported by providers on a redundant membership add.
	ErrAlreadyMember = errors.New("already a member")
	// ErrForbidden marks a caller acting on behalf of another user.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized marks a missing or invalid caller credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// InvalidArgument returns an ErrInvalidArgument carrying a caller-facing message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// Upstream classifies err as ErrUpstreamUnavailable unless it already carries
// a known class. Context cancellation and deadlines end up here too.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAlreadyMember) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

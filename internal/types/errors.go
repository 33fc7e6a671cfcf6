package types

import (
	"errors"
	"fmt"
)

// TransientFetchError covers network or API failures while listing source
// items or reading back recent posts. The next scheduled cycle retries.
type TransientFetchError struct {
	Account string
	Op      string
	Err     error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("account %s: %s failed: %v", e.Account, e.Op, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

func NewTransientFetchError(account, op string, err error) *TransientFetchError {
	return &TransientFetchError{
		Account: account,
		Op:      op,
		Err:     err,
	}
}

func IsTransient(err error) bool {
	var target *TransientFetchError
	return errors.As(err, &target)
}

// PublishError is returned when a destination rejects a post. Items left
// unsent stay new and are re-detected on the next cycle.
type PublishError struct {
	Account string
	Item    string
	Sent    int
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("account %s: publishing %s failed after %d sent: %v", e.Account, e.Item, e.Sent, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func NewPublishError(account, item string, sent int, err error) *PublishError {
	return &PublishError{
		Account: account,
		Item:    item,
		Sent:    sent,
		Err:     err,
	}
}

func IsPublishError(err error) bool {
	var target *PublishError
	return errors.As(err, &target)
}

// ConfigurationError is the only error class allowed to stop the process.
type ConfigurationError struct {
	Account string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for account %s: %s: %s", e.Account, e.Field, e.Reason)
}

func NewConfigurationError(account, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Account: account,
		Field:   field,
		Reason:  reason,
	}
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

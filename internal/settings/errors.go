package settings

import (
	"context"
	"errors"
)

var (
	// ErrCorruptRoster means the persisted accounts list could not be decoded.
	ErrCorruptRoster = errors.New("corrupt accounts roster")

	// ErrUnknownAccount means an account id is not present in the roster.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrInvalidAccount means an account id is empty or not usable as a key.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrInvalidValue means a value does not fit the setting's schema.
	ErrInvalidValue = errors.New("invalid setting value")
)

// rejectingStore fails every operation with err.
type rejectingStore struct {
	err error
}

func (r rejectingStore) Get(context.Context, string) (string, bool, error) { return "", false, r.err }
func (r rejectingStore) Set(context.Context, string, string) error         { return r.err }
func (r rejectingStore) Delete(context.Context, string) error              { return r.err }
func (r rejectingStore) Keys(context.Context) ([]string, error)            { return nil, r.err }
func (r rejectingStore) Clear(context.Context) error                       { return r.err }

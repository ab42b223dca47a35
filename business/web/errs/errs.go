// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// blockErrors are rejections of a block or chain offered by a peer.
var blockErrors = []error{
	database.ErrLinkage,
	database.ErrProofOfWork,
	database.ErrDifficultyJump,
	database.ErrHashMismatch,
	database.ErrInvalidGenesis,
	database.ErrChainTooShort,
	database.ErrChainInvalid,
	database.ErrMultipleReward,
}

// txErrors are rejections of a transaction.
var txErrors = []error{
	database.ErrDuplicateTransaction,
	database.ErrInvalidBalance,
	database.ErrInvalidOutputSum,
	database.ErrInvalidSignature,
	database.ErrInvalidReward,
	database.ErrBalanceExceeded,
	database.ErrAmountExceedsProvided,
}

// Ledger converts an error returned by the ledger into a trusted error
// so the client sees why the ledger rejected the request. Any other error
// is returned unchanged.
func Ledger(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, database.ErrChainChanged):
		return NewTrusted(err, http.StatusConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewTrusted(err, http.StatusServiceUnavailable)
	}

	for _, target := range blockErrors {
		if errors.Is(err, target) {
			return NewTrusted(err, http.StatusNotAcceptable)
		}
	}

	for _, target := range txErrors {
		if errors.Is(err, target) {
			return NewTrusted(err, http.StatusBadRequest)
		}
	}

	return err
}

package errs_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

func TestLedger(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
	}{
		{name: "chain", err: fmt.Errorf("%w: %w", database.ErrChainInvalid, database.ErrLinkage), status: http.StatusNotAcceptable},
		{name: "short", err: database.ErrChainTooShort, status: http.StatusNotAcceptable},
		{name: "balance", err: fmt.Errorf("%w: amount[10]", database.ErrBalanceExceeded), status: http.StatusBadRequest},
		{name: "chainchanged", err: fmt.Errorf("%w: tip[abc]", database.ErrChainChanged), status: http.StatusConflict},
		{name: "cancelled", err: fmt.Errorf("mining: %w", context.Canceled), status: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("boom"), status: 0},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			err := errs.Ledger(tst.err)

			if tst.status == 0 {
				if errs.IsTrusted(err) {
					t.Fatalf("Should not trust an unknown error")
				}
				return
			}

			trusted := errs.GetTrusted(err)
			if trusted == nil || trusted.Status != tst.status {
				t.Fatalf("Should map to status %d: %v", tst.status, err)
			}

			if !errors.Is(err, tst.err) {
				t.Fatalf("Should keep the ledger error in the chain")
			}
		})
	}
}

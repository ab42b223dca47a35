package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powchain/app/services/node/handlers"
	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const to = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"

func newMux(t *testing.T) (http.Handler, http.Handler, *state.State) {
	t.Helper()

	st, err := state.New(state.Config{
		Host:    "localhost:9080",
		Genesis: genesis.Default(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
		Origin:   "*",
	}

	return handlers.PublicMux(cfg), handlers.PrivateMux(cfg), st
}

func call(h http.Handler, method string, path string, body string, v any) int {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if v != nil {
		json.NewDecoder(w.Body).Decode(v)
	}

	return w.Code
}

func Test_PublicAPI(t *testing.T) {
	public, private, st := newMux(t)
	gen := genesis.Default()

	t.Log("Given the need to drive the ledger over the public API.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen transacting from the node wallet.", testID)
		{
			var er errs.Response
			if code := call(public, http.MethodPost, "/v1/wallet/transact", `{"recipient":"bad","amount":10}`, &er); code != http.StatusBadRequest || er.Fields["recipient"] == "" {
				t.Fatalf("\t%s\tTest %d:\tShould reject a bad recipient: %d %+v", failed, testID, code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a bad recipient.", success, testID)

			var tx database.Tx
			if code := call(public, http.MethodPost, "/v1/wallet/transact", `{"recipient":"`+to+`","amount":10}`, &tx); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transact: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to transact.", success, testID)

			er = errs.Response{}
			body := `{"recipient":"` + to + `","amount":100000}`
			if code := call(public, http.MethodPost, "/v1/wallet/transact", body, &er); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject an overspend: %d %+v", failed, testID, code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an overspend.", success, testID)

			var pool []database.Tx
			if code := call(public, http.MethodGet, "/v1/transactions", "", &pool); code != http.StatusOK || len(pool) != 1 || pool[0].ID != tx.ID {
				t.Fatalf("\t%s\tTest %d:\tShould list the pending transaction: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould list the pending transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining a block.", testID)
		{
			var mined struct {
				Block  database.Block `json:"block"`
				Length int            `json:"length"`
			}
			if code := call(public, http.MethodPost, "/v1/blockchain/mine", "", &mined); code != http.StatusOK || mined.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine a block: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			var length struct {
				Length int `json:"length"`
			}
			if call(public, http.MethodGet, "/v1/blockchain/length", "", &length); length.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould report the chain length.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the chain length.", success, testID)

			var blocks []database.Block
			if call(public, http.MethodGet, "/v1/blockchain/range?start=0&end=1", "", &blocks); len(blocks) != 1 || blocks[0].Hash != mined.Block.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould get the newest block first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the newest block first.", success, testID)

			var bal struct {
				Balance uint64 `json:"balance"`
			}
			if call(public, http.MethodGet, "/v1/balances/"+to, "", &bal); bal.Balance != gen.StartingBalance+10 {
				t.Fatalf("\t%s\tTest %d:\tShould credit the recipient: %d", failed, testID, bal.Balance)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the recipient.", success, testID)

			var known []struct {
				Address string `json:"address"`
			}
			if call(public, http.MethodGet, "/v1/known-addresses", "", &known); len(known) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould know both addresses: %v", failed, testID, known)
			}
			t.Logf("\t%s\tTest %d:\tShould know both addresses.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer asks for the node status.", testID)
		{
			var status struct {
				LatestBlockHash string `json:"latest_block_hash"`
				ChainLength     int    `json:"chain_length"`
			}
			if code := call(private, http.MethodGet, "/v1/node/status", "", &status); code != http.StatusOK || status.ChainLength != 2 || status.LatestBlockHash != st.RetrieveLatestBlock().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould report the status: %d %+v", failed, testID, code, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the status.", success, testID)

			chain, err := json.Marshal(st.RetrieveChain())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal the chain: %s", failed, testID, err)
			}

			if code := call(private, http.MethodPost, "/v1/node/blockchain/replace", string(chain), nil); code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tTest %d:\tShould reject a chain of the same length: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a chain of the same length.", success, testID)

			if code := call(private, http.MethodPost, "/v1/node/peers", `{"host":"localhost:9080"}`, nil); code != http.StatusNoContent || len(st.RetrieveKnownPeers()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not add itself as a peer: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould not add itself as a peer.", success, testID)
		}
	}
}

func Test_MineCancelled(t *testing.T) {
	public, _, st := newMux(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := httptest.NewRequest(http.MethodPost, "/v1/blockchain/mine", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	public.ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Should get back a service unavailable when the client goes away: %d", w.Code)
	}

	if st.RetrieveChainLength() != 1 {
		t.Fatalf("Should not add a block for a cancelled request.")
	}
}

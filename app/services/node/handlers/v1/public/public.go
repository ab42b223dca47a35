// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powchain/business/sys/metrics"
	"github.com/ardanlabs/powchain/business/sys/validate"
	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Blockchain returns the entire chain.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// BlockchainRange returns the blocks between start and end with the newest
// block first.
func (h Handlers) BlockchainRange(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	start, err := queryInt(r, "start", 0)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	end, err := queryInt(r, "end", start+1)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, h.State.QueryBlocksRange(start, end), http.StatusOK)
}

// BlockchainLength returns the number of blocks in the chain.
func (h Handlers) BlockchainLength(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, length{Length: h.State.RetrieveChainLength()}, http.StatusOK)
}

// Mine mines a new block with the pending transactions and proposes the
// block to the known peers.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return errs.Ledger(err)
	}

	resp := mined{
		Block:  block,
		Length: h.State.RetrieveChainLength(),
	}
	metrics.BlockMined(resp.Length)

	if err := h.State.NetSendBlockToPeers(block); err != nil {
		h.Log.Infow("mine", "traceid", v.TraceID, "status", "propose block", "WARNING", err)
		resp.Warnings = append(resp.Warnings, err.Error())
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transact sends value from the node wallet to a recipient.
func (h Handlers) Transact(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req transact
	if err := web.Decode(r, &req); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("transact", "traceid", v.TraceID, "to", req.Recipient, "amount", req.Amount)

	tx, err := h.State.Transact(req.Recipient, req.Amount)
	if err != nil {
		return errs.Ledger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// WalletInfo returns the node wallet address and its balance.
func (h Handlers) WalletInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.State.RetrieveWalletAddress()

	info := walletInfo{
		Address: address,
		Balance: h.State.QueryBalance(address),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Balance returns the balance of the specified address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")
	if !validate.IsAddress(address) {
		return errs.NewTrusted(errors.New("invalid address"), http.StatusBadRequest)
	}

	bal := balance{
		Address: address,
		Name:    h.NS.Lookup(address),
		Balance: h.State.QueryBalance(address),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// KnownAddresses returns the addresses found in the chain.
func (h Handlers) KnownAddresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addresses := h.State.RetrieveKnownAddresses()

	known := make([]knownAddress, len(addresses))
	for i, address := range addresses {
		known[i] = knownAddress{
			Address: address,
			Name:    h.NS.Lookup(address),
		}
	}

	return web.Respond(ctx, w, known, http.StatusOK)
}

// Transactions returns the set of uncommitted transactions.
func (h Handlers) Transactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// SubmitWalletTransaction adds a transaction signed by an external wallet
// to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "tx", tx)
	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		return errs.Ledger(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transactions added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// queryInt reads an integer query parameter. A missing value returns def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key + " value")
	}

	return n, nil
}

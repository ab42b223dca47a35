package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the pending transactions into a new block and
// proposes it to the peers. A cancel signal stops the search and this
// function does not return until the state change behind the signal is
// done, so the next operation starts from the changed chain.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if n := w.state.QueryMempoolLength(); n == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", n)
		return
	}

	// Whatever happens, leftover transactions get another operation.
	defer func() {
		if n := w.state.QueryMempoolLength(); n > 0 {
			w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", n)
			w.SignalStartMining()
		}
	}()

	// A cancel that arrived between operations belongs to a state change
	// that may still be running. Mining must not snapshot the chain
	// before it completes.
	select {
	case wait := <-w.cancelMining:
		w.awaitStateChange(wait)
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watched := make(chan chan struct{}, 1)
	go func() {
		select {
		case wait := <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
			watched <- wait
		case <-ctx.Done():
			watched <- nil
		}
	}()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", time.Since(t))

	cancelled := ctx.Err() != nil
	cancel()
	if wait := <-watched; wait != nil {
		w.awaitStateChange(wait)
	}

	switch {
	case err == nil:
		if err := w.state.NetSendBlockToPeers(block); err != nil {
			w.evHandler("worker: runMiningOperation: MINING: proposeBlockToPeers: WARNING %s", err)
		}

	case errors.Is(err, database.ErrChainChanged):
		w.evHandler("worker: runMiningOperation: MINING: chain changed while mining: %s", err)

	case cancelled:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}
}

// awaitStateChange blocks until the caller that signalled the cancel calls
// its done function.
func (w *Worker) awaitStateChange(wait chan struct{}) {
	w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
	<-wait
	w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
}

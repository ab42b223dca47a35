// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/wallet"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalSync()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Wallet     *wallet.Wallet
	Host       string
	Genesis    genesis.Genesis
	AutoMine   bool
	KnownPeers *peer.PeerSet
	EvHandler  EventHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	wallet    *wallet.Wallet
	host      string
	autoMine  bool
	evHandler EventHandler

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	w := cfg.Wallet
	if w == nil {
		var err error
		if w, err = wallet.New(); err != nil {
			return nil, err
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		wallet:    w,
		host:      cfg.Host,
		autoMine:  cfg.AutoMine,
		evHandler: ev,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		db:         database.New(cfg.Genesis, ev),

		// The worker.Run call replaces this and starts everything up
		// and running for the node.
		Worker: nopWorker{},
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// signalMining starts a mining operation when the node mines on its own.
func (s *State) signalMining() {
	if s.autoMine {
		s.Worker.SignalStartMining()
	}
}

// =============================================================================

// nopWorker is used until a worker registers itself with the state.
type nopWorker struct{}

func (nopWorker) Shutdown() {}
func (nopWorker) Sync() {}
func (nopWorker) SignalSync() {}
func (nopWorker) SignalStartMining() {}
func (nopWorker) SignalCancelMining() func() { return func() {} }
func (nopWorker) SignalShareTx(tx database.Tx) {}

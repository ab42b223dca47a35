package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	minerECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	to         = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, hexKey string) *state.State {
	t.Helper()

	var w *wallet.Wallet
	var err error
	switch hexKey {
	case "":
		w, err = wallet.New()
	default:
		key, kerr := crypto.HexToECDSA(hexKey)
		ifErrFailNow(t, kerr)
		w, err = wallet.FromPrivateKey(key)
	}
	ifErrFailNow(t, err)

	st, err := state.New(state.Config{
		Wallet:     w,
		Host:       "localhost:9080",
		Genesis:    genesis.Default(),
		KnownPeers: peer.NewPeerSet(),
		EvHandler:  func(v string, args ...any) { t.Logf(v, args...) },
	})
	ifErrFailNow(t, err)

	return st
}

// =============================================================================

func Test_TransactMineBalance(t *testing.T) {
	gen := genesis.Default()
	st := newState(t, minerECDSA)
	miner := st.RetrieveWalletAddress()

	t.Log("Given the need to send value from the node wallet.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen transacting twice before mining.", testID)
		{
			tx, err := st.Transact(to, 100)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transact: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to transact.", success, testID)

			tx2, err := st.Transact("0x8e113078ADF6888B7ba84967F299F29AeCe24c55", 50)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transact again: %v", failed, testID, err)
			}

			if tx2.ID != tx.ID || st.QueryMempoolLength() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould amend the pending transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould amend the pending transaction.", success, testID)

			if _, err := st.Transact(to, gen.StartingBalance); !errors.Is(err, database.ErrAmountExceedsProvided) {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to overspend: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to overspend.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining the pending transaction.", testID)
		{
			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine a block.", success, testID)

			if len(block.Data) != 2 || !block.Data[1].IsReward() {
				t.Fatalf("\t%s\tTest %d:\tShould mine the transaction and the reward.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mine the transaction and the reward.", success, testID)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould clear the mempool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clear the mempool.", success, testID)

			// The reward sits in the same block as the miner's own
			// transaction so it is not part of the replayed balance.
			exp := gen.StartingBalance - 150
			if got := st.QueryBalance(miner); got != exp {
				t.Logf("\t\tTest %d:\tgot: %d", testID, got)
				t.Logf("\t\tTest %d:\texp: %d", testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould replay the miner balance.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replay the miner balance.", success, testID)

			if got := st.QueryBalance(to); got != gen.StartingBalance+100 {
				t.Logf("\t\tTest %d:\tgot: %d", testID, got)
				t.Fatalf("\t%s\tTest %d:\tShould replay the recipient balance.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replay the recipient balance.", success, testID)

			if err := database.ValidateChain(st.RetrieveChain(), gen); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen transacting after the block was mined.", testID)
		{
			tx, err := st.Transact(to, 10)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transact: %v", failed, testID, err)
			}

			exp := gen.StartingBalance - 150
			if tx.Input.Signed.Amount != exp {
				t.Logf("\t\tTest %d:\tgot: %d", testID, tx.Input.Signed.Amount)
				t.Logf("\t\tTest %d:\texp: %d", testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould sign against the replayed balance.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould sign against the replayed balance.", success, testID)

			if _, err := st.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
			}

			blocks := st.QueryBlocksRange(0, 2)
			if len(blocks) != 2 || blocks[0].Hash != st.RetrieveLatestBlock().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould get back the newest blocks first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the newest blocks first.", success, testID)

			if blocks := st.QueryBlocksRange(2, 10); len(blocks) != 1 || !blocks[0].IsGenesis() {
				t.Fatalf("\t%s\tTest %d:\tShould clamp the range to the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clamp the range to the chain.", success, testID)
		}
	}
}

func Test_ProposedBlock(t *testing.T) {
	gen := genesis.Default()
	node1 := newState(t, minerECDSA)
	node2 := newState(t, "")

	t.Log("Given the need to accept blocks mined by a peer.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer proposes the next block.", testID)
		{
			tx, err := node1.Transact(to, 100)
			ifErrFailNow(t, err)

			if err := node2.UpsertNodeTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the peer transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the peer transaction.", success, testID)

			block, err := node1.MineNewBlock(context.Background())
			ifErrFailNow(t, err)

			if err := node2.ProcessProposedBlock(block); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the peer block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the peer block.", success, testID)

			if node2.RetrieveLatestBlock().Hash != block.Hash || node2.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have the block as tip and a clear mempool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the block as tip and a clear mempool.", success, testID)

			if err := node2.ProcessProposedBlock(block); !errors.Is(err, database.ErrLinkage) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the same block twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the same block twice.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer has a longer chain.", testID)
		{
			for i := 0; i < 2; i++ {
				_, err := node1.MineNewBlock(context.Background())
				ifErrFailNow(t, err)
			}

			if err := node2.ReplaceChain(node1.RetrieveChain()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			if node2.RetrieveChainLength() != node1.RetrieveChainLength() {
				t.Fatalf("\t%s\tTest %d:\tShould have the same length as the peer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the same length as the peer.", success, testID)

			if err := node2.ReplaceChain(node1.RetrieveChain()); !errors.Is(err, database.ErrChainTooShort) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a chain of the same length: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a chain of the same length.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer sends a reward transaction.", testID)
		{
			reward := database.NewRewardTx(to, gen.MiningReward)
			if err := node2.UpsertNodeTransaction(reward); !errors.Is(err, database.ErrInvalidReward) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the reward transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the reward transaction.", success, testID)
		}
	}
}

func Test_NetRequestPeerChain(t *testing.T) {
	node1 := newState(t, minerECDSA)
	_, err := node1.MineNewBlock(context.Background())
	ifErrFailNow(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/blockchain", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(node1.RetrieveChain())
	})
	mux.HandleFunc("/v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(node1.RetrievePeerStatus())
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	node2 := newState(t, "")
	pr := peer.New(srv.URL)

	status, err := node2.NetRequestPeerStatus(pr)
	if err != nil {
		t.Fatalf("Should be able to request the peer status: %s", err)
	}
	if status.ChainLength != 2 || status.LatestBlockHash != node1.RetrieveLatestBlock().Hash {
		t.Fatalf("Should get back the peer status: %+v", status)
	}

	blocks, err := node2.NetRequestPeerChain(pr)
	if err != nil {
		t.Fatalf("Should be able to request the peer chain: %s", err)
	}

	if err := node2.ReplaceChain(blocks); err != nil {
		t.Fatalf("Should be able to replace with the peer chain: %s", err)
	}

	if node2.RetrieveLatestBlock().Hash != node1.RetrieveLatestBlock().Hash {
		t.Fatalf("Should have the peer tip.")
	}
}

// poolSenders adds a pending transaction from n new wallets to every state.
func poolSenders(t *testing.T, n int, states ...*state.State) {
	t.Helper()

	gen := genesis.Default()
	for i := 0; i < n; i++ {
		w, err := wallet.New()
		ifErrFailNow(t, err)

		tx, err := database.NewTx(w, gen.StartingBalance, to, 1)
		ifErrFailNow(t, err)

		for _, st := range states {
			ifErrFailNow(t, st.UpsertNodeTransaction(tx))
		}
	}
}

func Test_MineWhileChainChanges(t *testing.T) {
	gen := genesis.Default()

	t.Log("Given the need to keep the chain valid while mining runs.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer block arrives while mining.", testID)
		{
			for attempt := 0; attempt < 3; attempt++ {
				node1 := newState(t, minerECDSA)
				node2 := newState(t, "")

				tx, err := node1.Transact(to, 100)
				ifErrFailNow(t, err)
				ifErrFailNow(t, node2.UpsertNodeTransaction(tx))
				poolSenders(t, 300, node2)

				block, err := node1.MineNewBlock(context.Background())
				ifErrFailNow(t, err)

				var wg sync.WaitGroup
				var mineErr, procErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, mineErr = node2.MineNewBlock(context.Background())
				}()
				go func() {
					defer wg.Done()
					procErr = node2.ProcessProposedBlock(block)
				}()
				wg.Wait()

				if mineErr != nil && !errors.Is(mineErr, database.ErrChainChanged) {
					t.Fatalf("\t%s\tTest %d:\tShould only fail mining on a changed chain: %v", failed, testID, mineErr)
				}
				if procErr != nil && !errors.Is(procErr, database.ErrLinkage) {
					t.Fatalf("\t%s\tTest %d:\tShould only refuse the peer block on linkage: %v", failed, testID, procErr)
				}
				if mineErr != nil && procErr != nil {
					t.Fatalf("\t%s\tTest %d:\tShould add at least one block: %v: %v", failed, testID, mineErr, procErr)
				}

				if err := database.ValidateChain(node2.RetrieveChain(), gen); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould keep a valid chain on attempt %d: %v", failed, testID, attempt, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep a valid chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a longer chain replaces the local chain while mining.", testID)
		{
			for attempt := 0; attempt < 3; attempt++ {
				node1 := newState(t, minerECDSA)
				node2 := newState(t, "")

				poolSenders(t, 300, node1, node2)
				for i := 0; i < 2; i++ {
					_, err := node1.MineNewBlock(context.Background())
					ifErrFailNow(t, err)
				}

				var wg sync.WaitGroup
				var mineErr, replErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, mineErr = node2.MineNewBlock(context.Background())
				}()
				go func() {
					defer wg.Done()
					replErr = node2.ReplaceChain(node1.RetrieveChain())
				}()
				wg.Wait()

				if mineErr != nil && !errors.Is(mineErr, database.ErrChainChanged) {
					t.Fatalf("\t%s\tTest %d:\tShould only fail mining on a changed chain: %v", failed, testID, mineErr)
				}
				if replErr != nil {
					t.Fatalf("\t%s\tTest %d:\tShould replace with the longer chain: %v", failed, testID, replErr)
				}

				if err := database.ValidateChain(node2.RetrieveChain(), gen); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould keep a valid chain on attempt %d: %v", failed, testID, attempt, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep a valid chain.", success, testID)
		}
	}
}

func Test_ReplaceChainRebuildsMempool(t *testing.T) {
	gen := genesis.Default()
	node1 := newState(t, minerECDSA)
	node2 := newState(t, "")

	sender, err := wallet.New()
	ifErrFailNow(t, err)

	spent, err := database.NewTx(sender, gen.StartingBalance, to, 10)
	ifErrFailNow(t, err)
	stale, err := database.NewTx(sender, gen.StartingBalance, "0x8e113078ADF6888B7ba84967F299F29AeCe24c55", 20)
	ifErrFailNow(t, err)

	ifErrFailNow(t, node1.UpsertNodeTransaction(spent))
	ifErrFailNow(t, node2.UpsertNodeTransaction(stale))
	poolSenders(t, 1, node2)

	_, err = node1.MineNewBlock(context.Background())
	ifErrFailNow(t, err)

	if err := node2.ReplaceChain(node1.RetrieveChain()); err != nil {
		t.Fatalf("Should be able to replace the chain: %s", err)
	}

	pool := node2.RetrieveMempool()
	if len(pool) != 1 || pool[0].ID == stale.ID {
		t.Fatalf("Should drop the transaction signed against the replaced balance: %v", pool)
	}

	if _, err := node2.MineNewBlock(context.Background()); err != nil {
		t.Fatalf("Should be able to mine the rebuilt mempool: %s", err)
	}

	if err := database.ValidateChain(node2.RetrieveChain(), gen); err != nil {
		t.Fatalf("Should have a valid chain: %s", err)
	}
}

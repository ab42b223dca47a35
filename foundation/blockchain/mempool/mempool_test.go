package mempool_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	balance = 1000
	to      = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

func newWallet(t *testing.T) *wallet.Wallet {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to decode the private key: %s", err)
	}

	w, err := wallet.FromPrivateKey(pk)
	if err != nil {
		t.Fatalf("Should be able to construct the wallet: %s", err)
	}

	return w
}

// =============================================================================

func TestCRUD(t *testing.T) {
	w := newWallet(t)

	other, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	t.Log("Given the need to validate mempool api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a set of transactions.", testID)
		{
			mp := mempool.New()

			tx1, err := database.NewTx(w, balance, to, 100)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a transaction: %v", failed, testID, err)
			}
			tx2, err := database.NewTx(other, balance, to, 200)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a transaction: %v", failed, testID, err)
			}

			if n := mp.Upsert(tx1); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one transaction, got %d.", failed, testID, n)
			}
			if n := mp.Upsert(tx2); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have two transactions, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add transactions.", success, testID)

			existing, exists := mp.ExistingTx(w.Address())
			if !exists || existing.ID != tx1.ID {
				t.Fatalf("\t%s\tTest %d:\tShould find the sender's pending transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould find the sender's pending transaction.", success, testID)

			if _, exists := mp.ExistingTx(to); exists {
				t.Fatalf("\t%s\tTest %d:\tShould not find a transaction for a recipient.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not find a transaction for a recipient.", success, testID)

			utx, err := tx1.Update(w, other.Address(), 50)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to update a transaction: %v", failed, testID, err)
			}
			if n := mp.Upsert(utx); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould replace the transaction by id, got %d.", failed, testID, n)
			}
			existing, _ = mp.ExistingTx(w.Address())
			if existing.Output[other.Address()] != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould hold the updated transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the transaction by id.", success, testID)

			txs := mp.Copy()
			if len(txs) != 2 || txs[0].ID != tx2.ID || txs[1].ID != tx1.ID {
				t.Fatalf("\t%s\tTest %d:\tShould order the pending transactions by time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould order the pending transactions by time.", success, testID)

			block := database.Block{Data: []database.Tx{tx2, database.NewRewardTx(to, 50)}}
			if n := mp.ClearConfirmed([]database.Block{database.Genesis(), block}); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould clear one confirmed transaction, got %d.", failed, testID, n)
			}
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one pending transaction left.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clear confirmed transactions.", success, testID)

			mp.Delete(utx)
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to delete a transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to delete a transaction.", success, testID)

			mp.Upsert(tx1)
			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to truncate the pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to truncate the pool.", success, testID)
		}
	}
}

func TestPickBest(t *testing.T) {
	w := newWallet(t)

	other, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	mp := mempool.New()

	first, err := database.NewTx(w, balance, to, 100)
	if err != nil {
		t.Fatalf("Should be able to create a transaction: %s", err)
	}
	mp.Upsert(first)

	second, err := database.NewTx(other, balance, to, 100)
	if err != nil {
		t.Fatalf("Should be able to create a transaction: %s", err)
	}
	mp.Upsert(second)

	// Same sender, different id, signed against the same balance.
	third, err := database.NewTx(w, balance, to, 300)
	if err != nil {
		t.Fatalf("Should be able to create a transaction: %s", err)
	}
	mp.Upsert(third)

	txs := mp.PickBest(-1)
	if len(txs) != 2 {
		t.Fatalf("Should pick one transaction per sender, got %d.", len(txs))
	}

	if txs[0].ID != second.ID || txs[1].ID != third.ID {
		t.Logf("got: %s %s", txs[0].ID, txs[1].ID)
		t.Logf("exp: %s %s", second.ID, third.ID)
		t.Fatalf("Should pick the newest transaction of each sender in time order.")
	}

	if txs := mp.PickBest(1); len(txs) != 1 || txs[0].ID != second.ID {
		t.Fatalf("Should limit the number of transactions picked.")
	}
}

package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/wallet"
	"github.com/ardanlabs/powchain/foundation/nameservice"
)

func TestLookup(t *testing.T) {
	root := t.TempDir()

	w, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %s", err)
	}
	if err := w.Save(filepath.Join(root, "miner1.ecdsa")); err != nil {
		t.Fatalf("Should be able to save the wallet: %s", err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	if got := ns.Lookup(w.Address()); got != "miner1" {
		t.Fatalf("Should find the wallet name, got %q", got)
	}

	const unknown = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	if got := ns.Lookup(unknown); got != unknown {
		t.Fatalf("Should return the address when unknown, got %q", got)
	}

	if len(ns.Copy()) != 1 {
		t.Fatalf("Should have one name")
	}
}

func TestMissingFolder(t *testing.T) {
	ns, err := nameservice.New(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Should accept a missing folder: %s", err)
	}
	if len(ns.Copy()) != 0 {
		t.Fatalf("Should have no names")
	}
}

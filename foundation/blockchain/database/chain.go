package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// ValidateChain checks the entire chain. The first block must be the
// genesis block, every block must be valid against its predecessor, and
// the transactions must replay cleanly from the genesis block forward.
func ValidateChain(chain []Block, gen genesis.Genesis) error {
	if len(chain) == 0 || !chain[0].IsGenesis() {
		return ErrInvalidGenesis
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1]); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return ValidateTransactionChain(chain, gen)
}

// ValidateTransactionChain enforces the transaction rules for every block
// in order. Each block is checked against the chain prefix strictly before
// it.
func ValidateTransactionChain(chain []Block, gen genesis.Genesis) error {
	seen := make(map[string]struct{})

	for i := range chain {
		if err := validateBlockTxs(chain[:i], chain[i], seen, gen); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return nil
}

// ValidatePendingTx checks a transaction that is not yet part of a block
// against the chain, as if it were to be mined in the next block. Reward
// transactions are never accepted as pending.
func ValidatePendingTx(chain []Block, tx Tx, gen genesis.Genesis) error {
	if tx.IsReward() {
		return fmt.Errorf("%w: id[%s]: reward transactions can't be submitted", ErrInvalidReward, tx.ID)
	}

	for _, block := range chain {
		for _, btx := range block.Data {
			if btx.ID == tx.ID {
				return fmt.Errorf("%w: id[%s]", ErrDuplicateTransaction, tx.ID)
			}
		}
	}

	return validateSignedTx(chain, tx, gen)
}

// =============================================================================

// validateBlockTxs checks the transactions of a single block. The seen set
// carries the ids of every transaction validated so far.
func validateBlockTxs(prefix []Block, block Block, seen map[string]struct{}, gen genesis.Genesis) error {
	var hasReward bool

	for _, tx := range block.Data {
		if tx.IsReward() {
			if hasReward {
				return fmt.Errorf("%w: id[%s]", ErrMultipleReward, tx.ID)
			}
			hasReward = true

			if err := tx.Validate(gen.MiningReward); err != nil {
				return err
			}
			continue
		}

		if _, exists := seen[tx.ID]; exists {
			return fmt.Errorf("%w: id[%s]", ErrDuplicateTransaction, tx.ID)
		}
		seen[tx.ID] = struct{}{}

		if err := validateSignedTx(prefix, tx, gen); err != nil {
			return err
		}
	}

	return nil
}

// validateSignedTx checks the input amount against the historical balance
// of the sender and then the transaction itself.
func validateSignedTx(prefix []Block, tx Tx, gen genesis.Genesis) error {
	if tx.IsReward() {
		return errors.New("signed transaction expected")
	}

	balance := CalculateBalance(prefix, tx.Input.Signed.Address, gen.StartingBalance)
	if balance != tx.Input.Signed.Amount {
		return fmt.Errorf("%w: id[%s]: address[%s] amount[%d] balance[%d]", ErrInvalidBalance, tx.ID, tx.Input.Signed.Address, tx.Input.Signed.Amount, balance)
	}

	return tx.Validate(gen.MiningReward)
}

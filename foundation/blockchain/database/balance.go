package database

// CalculateBalance replays the blocks to find the balance of the address.
// Blocks are scanned from newest to oldest. The first transaction found
// that was sent by the address sets the base to the sender's own output
// entry, and only amounts received in blocks after that block are added.
// If the address never sent, the base is the starting balance plus every
// amount received across all the blocks.
func CalculateBalance(blocks []Block, address string, startingBalance uint64) uint64 {
	var received uint64

	for i := len(blocks) - 1; i >= 0; i-- {
		var blockReceived uint64

		for _, tx := range blocks[i].Data {
			if !tx.IsReward() && tx.Input.Signed.Address == address {
				if value, exists := tx.Output[address]; exists {
					return value + received
				}
				continue
			}

			if value, exists := tx.Output[address]; exists {
				blockReceived += value
			}
		}

		received += blockReceived
	}

	return startingBalance + received
}

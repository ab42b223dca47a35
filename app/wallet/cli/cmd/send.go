package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the recipient.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	bal, err := queryBalance(w.Address())
	if err != nil {
		return err
	}

	var pending []database.Tx
	if err := send(http.MethodGet, fmt.Sprintf("%s/v1/transactions", url), nil, &pending); err != nil {
		return err
	}

	tx, err := buildTx(w, bal.Balance, pending, to, amount)
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := send(http.MethodPost, fmt.Sprintf("%s/v1/tx/submit", url), tx, &resp); err != nil {
		return err
	}

	fmt.Println(tx.ID, resp.Status)
	return nil
}

// buildTx amends the sender's pending transaction when the node holds
// one, otherwise a new transaction is signed against the balance.
func buildTx(sender database.Signer, balance uint64, pending []database.Tx, recipient string, amount uint64) (database.Tx, error) {
	if amount == 0 {
		return database.Tx{}, errors.New("amount must be greater than zero")
	}

	var existing *database.Tx
	for i := range pending {
		tx := pending[i]
		if tx.IsReward() || tx.Input.Signed.Address != sender.Address() {
			continue
		}
		if existing == nil || tx.Input.Signed.TimeStamp > existing.Input.Signed.TimeStamp {
			existing = &tx
		}
	}

	// A pending transaction signed against an older balance can't be
	// mined, so it is only amended while the balance still matches.
	if existing != nil && existing.Input.Signed.Amount == balance {
		return existing.Update(sender, recipient, amount)
	}

	return database.NewTx(sender, balance, recipient, amount)
}

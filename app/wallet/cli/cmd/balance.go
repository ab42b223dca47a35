package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type balance struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	fmt.Println("For Address:", w.Address())

	bal, err := queryBalance(w.Address())
	if err != nil {
		return err
	}

	fmt.Println(bal.Balance)
	return nil
}

func queryBalance(address string) (balance, error) {
	var bal balance
	if err := send(http.MethodGet, fmt.Sprintf("%s/v1/balances/%s", url, address), nil, &bal); err != nil {
		return balance{}, err
	}
	return bal, nil
}

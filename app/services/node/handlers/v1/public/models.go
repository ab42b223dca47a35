package public

import (
	"github.com/ardanlabs/powchain/business/sys/validate"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// transact is the request for the node wallet to send value.
type transact struct {
	Recipient string `json:"recipient" validate:"required,address"`
	Amount    uint64 `json:"amount" validate:"required,gt=0"`
}

// Validate checks the request fields.
func (t transact) Validate() error {
	return validate.Check(t)
}

type walletInfo struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type balance struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

type knownAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type length struct {
	Length int `json:"length"`
}

type mined struct {
	Block    database.Block `json:"block"`
	Length   int            `json:"length"`
	Warnings []string       `json:"warnings,omitempty"`
}

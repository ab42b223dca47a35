package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// RewardAddress is the sentinel address carried by the input of every
// mining reward transaction.
const RewardAddress = "*--official-mining-reward--*"

// Signer represents the behavior required to construct a signed
// transaction. A wallet implements this interface.
type Signer interface {
	Address() string
	PublicKey() []byte
	Sign(payload any) ([]byte, error)
}

// =============================================================================

// InputKind identifies the two forms a transaction input can take.
type InputKind int

// Set of input kinds.
const (
	InputSigned InputKind = iota
	InputReward
)

// SignedInput captures the sender's balance at signing time and the
// signature over the transaction output.
type SignedInput struct {
	TimeStamp int64         `json:"timestamp"`  // Time the output was signed in ns.
	Amount    uint64        `json:"amount"`     // Sender balance at signing time.
	Address   string        `json:"address"`    // Sender address.
	PublicKey hexutil.Bytes `json:"public_key"` // Uncompressed sender public key.
	Signature hexutil.Bytes `json:"signature"`  // Signature over the output.
}

// Input is a tagged variant. A reward input carries no data of its own and
// is encoded as the fixed reward sentinel.
type Input struct {
	Kind   InputKind
	Signed SignedInput
}

type rewardInput struct {
	Address string `json:"address"`
}

// MarshalJSON implements the json.Marshaler interface.
func (in Input) MarshalJSON() ([]byte, error) {
	if in.Kind == InputReward {
		return json.Marshal(rewardInput{Address: RewardAddress})
	}

	return json.Marshal(in.Signed)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (in *Input) UnmarshalJSON(data []byte) error {
	var si SignedInput
	if err := json.Unmarshal(data, &si); err != nil {
		return err
	}

	if si.Address == RewardAddress {
		if si.TimeStamp != 0 || si.Amount != 0 || len(si.PublicKey) != 0 || len(si.Signature) != 0 {
			return errors.New("reward input can't carry signed input fields")
		}

		*in = Input{Kind: InputReward}
		return nil
	}

	*in = Input{Kind: InputSigned, Signed: si}
	return nil
}

// =============================================================================

// Tx is a value transfer from a sender to one or more recipients. The
// output always holds the sender's remaining balance, except for
// reward transactions.
type Tx struct {
	ID     string            `json:"id"`
	Output map[string]uint64 `json:"output"`
	Input  Input             `json:"input"`
}

// NewTx constructs a signed transaction moving amount from the sender to
// the recipient. The balance is the sender's balance according to the
// chain at the time of construction.
func NewTx(sender Signer, balance uint64, recipient string, amount uint64) (Tx, error) {
	if amount > balance {
		return Tx{}, fmt.Errorf("%w: amount[%d] balance[%d]", ErrBalanceExceeded, amount, balance)
	}

	output := map[string]uint64{
		recipient: amount,
	}
	output[sender.Address()] = balance - amount

	input, err := signInput(sender, balance, output)
	if err != nil {
		return Tx{}, err
	}

	tx := Tx{
		ID:     uuid.NewString(),
		Output: output,
		Input:  input,
	}

	return tx, nil
}

// NewRewardTx constructs the transaction that pays the miner of a block.
func NewRewardTx(minerAddress string, reward uint64) Tx {
	return Tx{
		ID:     uuid.NewString(),
		Output: map[string]uint64{minerAddress: reward},
		Input:  Input{Kind: InputReward},
	}
}

// Update returns a new transaction that additionally moves amount from
// the sender to the recipient. The id and the original input amount are
// kept and the new output is re-signed. The receiver is not modified.
func (tx Tx) Update(sender Signer, recipient string, amount uint64) (Tx, error) {
	if tx.IsReward() {
		return Tx{}, errors.New("reward transaction can't be updated")
	}

	from := sender.Address()
	if tx.Input.Signed.Address != from {
		return Tx{}, fmt.Errorf("transaction sender[%s] does not match wallet[%s]", tx.Input.Signed.Address, from)
	}

	remaining := tx.Output[from]
	if amount > remaining {
		return Tx{}, fmt.Errorf("%w: amount[%d] remaining[%d]", ErrAmountExceedsProvided, amount, remaining)
	}

	output := make(map[string]uint64, len(tx.Output)+1)
	for addr, value := range tx.Output {
		output[addr] = value
	}
	output[recipient] += amount
	output[from] -= amount

	input, err := signInput(sender, tx.Input.Signed.Amount, output)
	if err != nil {
		return Tx{}, err
	}

	ntx := Tx{
		ID:     tx.ID,
		Output: output,
		Input:  input,
	}

	return ntx, nil
}

// IsReward reports whether this is a mining reward transaction.
func (tx Tx) IsReward() bool {
	return tx.Input.Kind == InputReward
}

// Validate checks the transaction is internally consistent. A reward
// transaction must pay exactly the reward to a single address. A signed
// transaction must have outputs that sum to the input amount, a sender
// address bound to the public key, and a signature over the output.
func (tx Tx) Validate(reward uint64) error {
	if tx.IsReward() {
		if len(tx.Output) != 1 {
			return fmt.Errorf("%w: outputs[%d]", ErrInvalidReward, len(tx.Output))
		}
		for addr, value := range tx.Output {
			if value != reward {
				return fmt.Errorf("%w: address[%s] value[%d] exp[%d]", ErrInvalidReward, addr, value, reward)
			}
		}
		return nil
	}

	sum, ok := outputSum(tx.Output)
	if !ok || sum != tx.Input.Signed.Amount {
		return fmt.Errorf("%w: id[%s] sum[%d] amount[%d]", ErrInvalidOutputSum, tx.ID, sum, tx.Input.Signed.Amount)
	}

	addr, err := signature.PublicKeyBytesToAddress(tx.Input.Signed.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: id[%s]: public key: %s", ErrInvalidSignature, tx.ID, err)
	}
	if addr != tx.Input.Signed.Address {
		return fmt.Errorf("%w: id[%s]: address[%s] does not match public key", ErrInvalidSignature, tx.ID, tx.Input.Signed.Address)
	}

	if !signature.Verify(tx.Input.Signed.PublicKey, tx.Output, tx.Input.Signed.Signature) {
		return fmt.Errorf("%w: id[%s]", ErrInvalidSignature, tx.ID)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	if tx.IsReward() {
		return fmt.Sprintf("%s:reward:%v", tx.ID, tx.Output)
	}
	return fmt.Sprintf("%s:%s:%v", tx.ID, tx.Input.Signed.Address, tx.Output)
}

// =============================================================================

// signInput produces a signed input over the specified output.
func signInput(sender Signer, amount uint64, output map[string]uint64) (Input, error) {
	sig, err := sender.Sign(output)
	if err != nil {
		return Input{}, fmt.Errorf("signing output: %w", err)
	}

	input := Input{
		Kind: InputSigned,
		Signed: SignedInput{
			TimeStamp: time.Now().UnixNano(),
			Amount:    amount,
			Address:   sender.Address(),
			PublicKey: sender.PublicKey(),
			Signature: sig,
		},
	}

	return input, nil
}

// outputSum adds the output values, reporting false on overflow.
func outputSum(output map[string]uint64) (uint64, bool) {
	var sum uint64
	for _, value := range output {
		if value > math.MaxUint64-sum {
			return 0, false
		}
		sum += value
	}
	return sum, true
}

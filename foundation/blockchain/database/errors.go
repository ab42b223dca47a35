package database

import "errors"

// Set of errors returned by block validation.
var (
	ErrLinkage        = errors.New("block last hash does not match previous block hash")
	ErrProofOfWork    = errors.New("block hash does not meet the proof of work requirement")
	ErrDifficultyJump = errors.New("block difficulty changed by more than one")
	ErrHashMismatch   = errors.New("block hash does not match block fields")
)

// Set of errors returned by chain validation and replacement.
var (
	ErrInvalidGenesis = errors.New("first block is not the genesis block")
	ErrChainTooShort  = errors.New("incoming chain must be longer than local chain")
	ErrChainInvalid   = errors.New("incoming chain is invalid")
	ErrChainChanged   = errors.New("chain tip changed while mining")
)

// Set of errors returned by transaction chain validation.
var (
	ErrDuplicateTransaction = errors.New("transaction is not unique in the chain")
	ErrMultipleReward       = errors.New("block has more than one mining reward")
	ErrInvalidBalance       = errors.New("transaction input amount does not match historical balance")
)

// Set of errors returned by transaction construction and validation.
var (
	ErrInvalidOutputSum      = errors.New("transaction output values do not sum to input amount")
	ErrInvalidSignature      = errors.New("transaction signature is invalid")
	ErrInvalidReward         = errors.New("mining reward transaction is invalid")
	ErrBalanceExceeded       = errors.New("amount exceeds balance")
	ErrAmountExceedsProvided = errors.New("amount exceeds remaining balance of transaction")
)

package entity

import (
	"math/big"
	"time"
)

// TransactionDirection classifies a transaction relative to the wallet
// the history was requested for.
type TransactionDirection string

const (
	// DirectionSent marks transactions originating from the wallet.
	DirectionSent TransactionDirection = "sent"
	// DirectionReceived marks transactions addressed to the wallet.
	DirectionReceived TransactionDirection = "received"
)

// RawTransaction is one transaction as reported by the history
// provider, normalized at the client boundary.
type RawTransaction struct {
	Hash           string
	FromAddress    string
	ToAddress      string
	ValueWei       *big.Int
	BlockTimestamp time.Time
	ChainID        string
}

// WalletTransaction is one classified history entry returned to clients.
type WalletTransaction struct {
	Hash      string               `json:"hash"`
	Direction TransactionDirection `json:"direction"`
	// Counterparty is the other side of the transfer: the recipient for
	// sent transactions, the sender for received ones.
	Counterparty string    `json:"counterparty"`
	Amount       string    `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
	ChainID      string    `json:"chainId"`
	ChainName    string    `json:"chain_name"`
}

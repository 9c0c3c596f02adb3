package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types as stored in the transactions table.
const (
	TxDeposit     = "deposit"
	TxWithdrawal  = "withdrawal"
	TxTransferOut = "transfer_out"
	TxTransferIn  = "transfer_in"
)

const TransferCompleted = "completed"

// Transaction is one balance movement on one account.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	TransferID   *uuid.UUID      `json:"transfer_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Credit reports whether the transaction increased the balance.
func (t Transaction) Credit() bool {
	return t.Type == TxDeposit || t.Type == TxTransferIn
}

// Transfer links the two sides of a peer-to-peer movement.
type Transfer struct {
	ID            uuid.UUID       `json:"id"`
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PeriodTotals aggregates every transaction of one account in a period.
// Opening and Closing are only meaningful when Count > 0.
type PeriodTotals struct {
	Count   int
	Credits decimal.Decimal
	Debits  decimal.Decimal
	Opening decimal.Decimal
	Closing decimal.Decimal
}

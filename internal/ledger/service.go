package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/accounts"
	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

var (
	ErrAccountNotFound    = accounts.ErrNotFound
	ErrRecipientNotFound  = errors.New("recipient account not found")
	ErrRecipientRequired  = errors.New("exactly one of to_account_id or to_account_number is required")
	ErrSameAccount        = errors.New("cannot transfer to the same account")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrCurrencyMismatch   = errors.New("accounts use different currencies")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

const maxDescription = 255

type Service struct {
	Store Store
	Now   func() time.Time

	// StatementRows caps the rows a statement lists; totals are never capped.
	StatementRows int
}

func NewService(store Store) *Service {
	return &Service{
		Store:         store,
		Now:           func() time.Time { return time.Now().UTC() },
		StatementRows: StatementLimit,
	}
}

// Movement is a single-account deposit or withdrawal.
type Movement struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
}

type TransferRequest struct {
	FromAccountID   uuid.UUID
	ToAccountID     uuid.UUID
	ToAccountNumber string
	Amount          decimal.Decimal
	Description     string
}

// Result is what the caller sees after a movement on their account.
type Result struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

type TransferResult struct {
	Transfer    domain.Transfer    `json:"transfer"`
	Transaction domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, m Movement) (Result, error) {
	return s.move(ctx, userID, m, domain.TxDeposit)
}

func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, m Movement) (Result, error) {
	return s.move(ctx, userID, m, domain.TxWithdrawal)
}

func (s *Service) move(ctx context.Context, userID uuid.UUID, m Movement, kind string) (Result, error) {
	desc, err := checkInput(m.Amount, m.Description)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = s.Store.InTx(ctx, func(tx Tx) error {
		a, err := tx.LockAccount(ctx, m.AccountID)
		if err != nil {
			return err
		}
		if a.UserID != userID {
			return ErrAccountNotFound
		}

		balance := a.Balance.Add(m.Amount)
		if kind == domain.TxWithdrawal {
			if a.Balance.LessThan(m.Amount) {
				return ErrInsufficientFunds
			}
			balance = a.Balance.Sub(m.Amount)
		}

		now := s.Now()
		if err := tx.SetBalance(ctx, a.ID, balance, now); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		t := domain.Transaction{
			ID:           uuid.New(),
			AccountID:    a.ID,
			Type:         kind,
			Amount:       m.Amount,
			BalanceAfter: balance,
			Description:  desc,
			CreatedAt:    now,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		res = Result{Transaction: t, Balance: balance}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Transfer debits the caller's account and credits the recipient in one unit of work.
func (s *Service) Transfer(ctx context.Context, userID uuid.UUID, req TransferRequest) (TransferResult, error) {
	desc, err := checkInput(req.Amount, req.Description)
	if err != nil {
		return TransferResult{}, err
	}
	req.ToAccountNumber = strings.TrimSpace(req.ToAccountNumber)
	if (req.ToAccountID == uuid.Nil) == (req.ToAccountNumber == "") {
		return TransferResult{}, ErrRecipientRequired
	}

	var res TransferResult
	err = s.Store.InTx(ctx, func(tx Tx) error {
		toID := req.ToAccountID
		if req.ToAccountNumber != "" {
			id, err := tx.AccountIDByNumber(ctx, req.ToAccountNumber)
			if errors.Is(err, ErrAccountNotFound) {
				return ErrRecipientNotFound
			}
			if err != nil {
				return err
			}
			toID = id
		}
		if toID == req.FromAccountID {
			return ErrSameAccount
		}

		from, to, err := lockPair(ctx, tx, req.FromAccountID, toID)
		if err != nil {
			return err
		}
		if from.UserID != userID {
			return ErrAccountNotFound
		}
		if from.Currency != to.Currency {
			return ErrCurrencyMismatch
		}
		if from.Balance.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}

		now := s.Now()
		fromBalance := from.Balance.Sub(req.Amount)
		toBalance := to.Balance.Add(req.Amount)

		if err := tx.SetBalance(ctx, from.ID, fromBalance, now); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if err := tx.SetBalance(ctx, to.ID, toBalance, now); err != nil {
			return fmt.Errorf("credit recipient: %w", err)
		}

		tr := domain.Transfer{
			ID:            uuid.New(),
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        req.Amount,
			Description:   desc,
			Status:        domain.TransferCompleted,
			CreatedAt:     now,
		}
		if err := tx.InsertTransfer(ctx, tr); err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}

		out := domain.Transaction{
			ID:           uuid.New(),
			AccountID:    from.ID,
			Type:         domain.TxTransferOut,
			Amount:       req.Amount,
			BalanceAfter: fromBalance,
			Description:  desc,
			TransferID:   &tr.ID,
			CreatedAt:    now,
		}
		in := out
		in.ID = uuid.New()
		in.AccountID = to.ID
		in.Type = domain.TxTransferIn
		in.BalanceAfter = toBalance

		for _, t := range []domain.Transaction{out, in} {
			if err := tx.InsertTransaction(ctx, t); err != nil {
				return fmt.Errorf("insert %s: %w", t.Type, err)
			}
		}

		res = TransferResult{Transfer: tr, Transaction: out, Balance: fromBalance}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

// lockPair locks both accounts in ascending id order so concurrent opposite
// transfers cannot deadlock.
func lockPair(ctx context.Context, tx Tx, fromID, toID uuid.UUID) (domain.Account, domain.Account, error) {
	first, second := fromID, toID
	swapped := bytes.Compare(fromID[:], toID[:]) > 0
	if swapped {
		first, second = toID, fromID
	}

	a, err := tx.LockAccount(ctx, first)
	if err != nil {
		return domain.Account{}, domain.Account{}, lockErr(err, first == toID)
	}
	b, err := tx.LockAccount(ctx, second)
	if err != nil {
		return domain.Account{}, domain.Account{}, lockErr(err, second == toID)
	}
	if swapped {
		return b, a, nil
	}
	return a, b, nil
}

func lockErr(err error, recipient bool) error {
	if recipient && errors.Is(err, ErrAccountNotFound) {
		return ErrRecipientNotFound
	}
	return err
}

// List returns the caller's transactions, optionally for one owned account.
func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]domain.Transaction, error) {
	f = f.normalized()
	if f.AccountID != nil {
		if _, err := s.Store.GetAccount(ctx, userID, *f.AccountID); err != nil {
			return nil, err
		}
	}
	return s.Store.ListTransactions(ctx, userID, f)
}

// StatementData is an owned account's activity over [from, until). Totals
// cover the whole period; Items is oldest first and may be shorter.
type StatementData struct {
	Account domain.Account
	Totals  domain.PeriodTotals
	Items   []domain.Transaction
}

// Truncated reports whether Items lists fewer rows than the period holds.
func (d StatementData) Truncated() bool {
	return d.Totals.Count > len(d.Items)
}

// Statement loads an owned account with its activity in [from, until).
func (s *Service) Statement(ctx context.Context, userID, accountID uuid.UUID, from, until time.Time) (StatementData, error) {
	a, err := s.Store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return StatementData{}, err
	}

	limit := s.StatementRows
	if limit <= 0 {
		limit = StatementLimit
	}
	items, err := s.Store.ListTransactions(ctx, userID, Filter{
		AccountID: &accountID,
		From:      &from,
		Until:     &until,
		Limit:     limit,
		Ascending: true,
	})
	if err != nil {
		return StatementData{}, err
	}

	// Read after the rows so the totals never cover less than Items.
	totals, err := s.Store.PeriodTotals(ctx, accountID, from, until)
	if err != nil {
		return StatementData{}, fmt.Errorf("period totals: %w", err)
	}
	return StatementData{Account: a, Totals: totals, Items: items}, nil
}

func checkInput(amount decimal.Decimal, description string) (string, error) {
	if err := money.Validate(amount); err != nil {
		return "", err
	}
	desc := strings.TrimSpace(description)
	if len(desc) > maxDescription {
		return "", fmt.Errorf("%w: description longer than %d characters", ErrInvalidTransaction, maxDescription)
	}
	return desc, nil
}

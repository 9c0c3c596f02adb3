package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
)

// memStore is an in-memory Store. InTx works on a copy and swaps it in on
// success, so a failed unit of work leaves no trace.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failInsert makes InsertTransaction fail for the given type.
	failInsert string
}

type memState struct {
	accounts     map[uuid.UUID]domain.Account
	transactions []domain.Transaction
	transfers    []domain.Transfer
}

func (s memState) clone() memState {
	out := memState{
		accounts:     make(map[uuid.UUID]domain.Account, len(s.accounts)),
		transactions: append([]domain.Transaction(nil), s.transactions...),
		transfers:    append([]domain.Transfer(nil), s.transfers...),
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	return out
}

func newMemStore() *memStore {
	return &memStore{state: memState{accounts: map[uuid.UUID]domain.Account{}}}
}

func (m *memStore) addAccount(owner uuid.UUID, currency, balance string) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	a := domain.Account{
		ID:            uuid.New(),
		UserID:        owner,
		AccountNumber: uuid.NewString()[:10],
		AccountType:   domain.AccountChecking,
		Balance:       decimal.RequireFromString(balance),
		Currency:      currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.state.accounts[a.ID] = a
	return a
}

func (m *memStore) account(id uuid.UUID) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.accounts[id]
}

func (m *memStore) InTx(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := &memTx{state: m.state.clone(), failInsert: m.failInsert}
	if err := fn(work); err != nil {
		return err
	}
	m.state = work.state
	return nil
}

func (m *memStore) GetAccount(_ context.Context, userID, accountID uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.accounts[accountID]
	if !ok || a.UserID != userID {
		return domain.Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *memStore) ListTransactions(_ context.Context, userID uuid.UUID, f Filter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Transaction{}
	for _, t := range m.state.transactions {
		if m.state.accounts[t.AccountID].UserID != userID {
			continue
		}
		if f.AccountID != nil && t.AccountID != *f.AccountID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(*f.From) {
			continue
		}
		if f.Until != nil && !t.CreatedAt.Before(*f.Until) {
			continue
		}
		out = append(out, t)
	}

	// insertion order stands in for created_at ordering
	if !f.Ascending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	if f.Offset >= len(out) {
		return []domain.Transaction{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) PeriodTotals(_ context.Context, accountID uuid.UUID, from, until time.Time) (domain.PeriodTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := domain.PeriodTotals{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, t := range m.state.transactions {
		if t.AccountID != accountID || t.CreatedAt.Before(from) || !t.CreatedAt.Before(until) {
			continue
		}
		if out.Count == 0 {
			out.Opening = t.BalanceAfter.Sub(t.Amount)
			if !t.Credit() {
				out.Opening = t.BalanceAfter.Add(t.Amount)
			}
		}
		if t.Credit() {
			out.Credits = out.Credits.Add(t.Amount)
		} else {
			out.Debits = out.Debits.Add(t.Amount)
		}
		out.Closing = t.BalanceAfter
		out.Count++
	}
	return out, nil
}

type memTx struct {
	state      memState
	failInsert string
}

func (t *memTx) LockAccount(_ context.Context, id uuid.UUID) (domain.Account, error) {
	a, ok := t.state.accounts[id]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (t *memTx) AccountIDByNumber(_ context.Context, number string) (uuid.UUID, error) {
	for _, a := range t.state.accounts {
		if a.AccountNumber == number {
			return a.ID, nil
		}
	}
	return uuid.Nil, ErrAccountNotFound
}

func (t *memTx) SetBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	a, ok := t.state.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.Balance = balance
	a.UpdatedAt = at
	t.state.accounts[id] = a
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr domain.Transaction) error {
	if t.failInsert != "" && tr.Type == t.failInsert {
		return errInjected
	}
	t.state.transactions = append(t.state.transactions, tr)
	return nil
}

func (t *memTx) InsertTransfer(_ context.Context, tr domain.Transfer) error {
	t.state.transfers = append(t.state.transfers, tr)
	return nil
}

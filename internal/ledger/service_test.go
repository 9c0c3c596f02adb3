package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

var errInjected = errors.New("injected failure")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeposit(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	user := uuid.New()
	a := store.addAccount(user, "USD", "10")

	res, err := svc.Deposit(context.Background(), user, Movement{AccountID: a.ID, Amount: dec("5.25"), Description: "  paycheck "})
	require.NoError(t, err)

	assert.Equal(t, "15.25", money.Format(res.Balance))
	assert.Equal(t, domain.TxDeposit, res.Transaction.Type)
	assert.Equal(t, "paycheck", res.Transaction.Description)
	assert.True(t, res.Transaction.BalanceAfter.Equal(res.Balance))
	assert.Equal(t, "15.25", money.Format(store.account(a.ID).Balance))
	assert.Len(t, store.state.transactions, 1)
}

func TestDepositRejectsForeignAccountAndBadAmounts(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	owner, other := uuid.New(), uuid.New()
	a := store.addAccount(owner, "USD", "0")
	ctx := context.Background()

	_, err := svc.Deposit(ctx, other, Movement{AccountID: a.ID, Amount: dec("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.Deposit(ctx, owner, Movement{AccountID: uuid.New(), Amount: dec("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	for _, amt := range []string{"0", "-3", "0.001"} {
		_, err = svc.Deposit(ctx, owner, Movement{AccountID: a.ID, Amount: dec(amt)})
		assert.ErrorIs(t, err, money.ErrInvalidMoney, amt)
	}

	_, err = svc.Deposit(ctx, owner, Movement{AccountID: a.ID, Amount: dec("1"), Description: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	assert.True(t, store.account(a.ID).Balance.IsZero())
	assert.Empty(t, store.state.transactions)
}

func TestWithdraw(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	user := uuid.New()
	a := store.addAccount(user, "USD", "20")
	ctx := context.Background()

	_, err := svc.Withdraw(ctx, user, Movement{AccountID: a.ID, Amount: dec("20.01")})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "20.00", money.Format(store.account(a.ID).Balance))

	res, err := svc.Withdraw(ctx, user, Movement{AccountID: a.ID, Amount: dec("20")})
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
	assert.Equal(t, domain.TxWithdrawal, res.Transaction.Type)
}

func TestTransferByID(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	from := store.addAccount(alice, "USD", "100")
	to := store.addAccount(bob, "USD", "5")

	res, err := svc.Transfer(context.Background(), alice, TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        dec("30.50"),
		Description:   "rent",
	})
	require.NoError(t, err)

	assert.Equal(t, "69.50", money.Format(res.Balance))
	assert.Equal(t, "69.50", money.Format(store.account(from.ID).Balance))
	assert.Equal(t, "35.50", money.Format(store.account(to.ID).Balance))

	assert.Equal(t, domain.TransferCompleted, res.Transfer.Status)
	assert.Equal(t, from.ID, res.Transfer.FromAccountID)
	assert.Equal(t, to.ID, res.Transfer.ToAccountID)
	require.Len(t, store.state.transfers, 1)

	require.Len(t, store.state.transactions, 2)
	out, in := store.state.transactions[0], store.state.transactions[1]
	assert.Equal(t, domain.TxTransferOut, out.Type)
	assert.Equal(t, domain.TxTransferIn, in.Type)
	require.NotNil(t, out.TransferID)
	require.NotNil(t, in.TransferID)
	assert.Equal(t, res.Transfer.ID, *out.TransferID)
	assert.Equal(t, res.Transfer.ID, *in.TransferID)
	assert.Equal(t, "35.50", money.Format(in.BalanceAfter))
	assert.Equal(t, res.Transaction.ID, out.ID)
}

func TestTransferByAccountNumber(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	from := store.addAccount(alice, "EUR", "10")
	to := store.addAccount(bob, "EUR", "0")

	_, err := svc.Transfer(context.Background(), alice, TransferRequest{
		FromAccountID:   from.ID,
		ToAccountNumber: " " + to.AccountNumber + " ",
		Amount:          dec("10"),
	})
	require.NoError(t, err)
	assert.True(t, store.account(from.ID).Balance.IsZero())
	assert.Equal(t, "10.00", money.Format(store.account(to.ID).Balance))
}

func TestTransferRejections(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	from := store.addAccount(alice, "USD", "10")
	to := store.addAccount(bob, "USD", "0")
	euro := store.addAccount(bob, "EUR", "0")
	ctx := context.Background()

	cases := []struct {
		name string
		user uuid.UUID
		req  TransferRequest
		want error
	}{
		{"no recipient", alice, TransferRequest{FromAccountID: from.ID, Amount: dec("1")}, ErrRecipientRequired},
		{"both recipients", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, ToAccountNumber: to.AccountNumber, Amount: dec("1")}, ErrRecipientRequired},
		{"same account", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: from.ID, Amount: dec("1")}, ErrSameAccount},
		{"unknown recipient id", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: uuid.New(), Amount: dec("1")}, ErrRecipientNotFound},
		{"unknown recipient number", alice, TransferRequest{FromAccountID: from.ID, ToAccountNumber: "0000000000", Amount: dec("1")}, ErrRecipientNotFound},
		{"not the owner", bob, TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("1")}, ErrAccountNotFound},
		{"unknown sender", alice, TransferRequest{FromAccountID: uuid.New(), ToAccountID: to.ID, Amount: dec("1")}, ErrAccountNotFound},
		{"currency mismatch", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: euro.ID, Amount: dec("1")}, ErrCurrencyMismatch},
		{"insufficient", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("10.01")}, ErrInsufficientFunds},
		{"bad amount", alice, TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("0")}, money.ErrInvalidMoney},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tc.user, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, "10.00", money.Format(store.account(from.ID).Balance))
	assert.True(t, store.account(to.ID).Balance.IsZero())
	assert.Empty(t, store.state.transfers)
	assert.Empty(t, store.state.transactions)
}

func TestTransferRollsBackOnPartialFailure(t *testing.T) {
	store := newMemStore()
	store.failInsert = domain.TxTransferIn
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	from := store.addAccount(alice, "USD", "50")
	to := store.addAccount(bob, "USD", "0")

	_, err := svc.Transfer(context.Background(), alice, TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("25")})
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, "50.00", money.Format(store.account(from.ID).Balance))
	assert.True(t, store.account(to.ID).Balance.IsZero())
	assert.Empty(t, store.state.transfers)
	assert.Empty(t, store.state.transactions)
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	a := store.addAccount(alice, "USD", "100")
	b := store.addAccount(bob, "USD", "100")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Transfer(ctx, alice, TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("3")})
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Transfer(ctx, bob, TransferRequest{FromAccountID: b.ID, ToAccountID: a.ID, Amount: dec("2")})
		}()
	}
	wg.Wait()

	total := store.account(a.ID).Balance.Add(store.account(b.ID).Balance)
	assert.Equal(t, "200.00", money.Format(total))
	assert.False(t, store.account(a.ID).Balance.IsNegative())
	assert.False(t, store.account(b.ID).Balance.IsNegative())
}

func TestListAndFilters(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	alice, bob := uuid.New(), uuid.New()
	a1 := store.addAccount(alice, "USD", "0")
	a2 := store.addAccount(alice, "USD", "0")
	b1 := store.addAccount(bob, "USD", "0")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Deposit(ctx, alice, Movement{AccountID: a1.ID, Amount: dec("10")})
		require.NoError(t, err)
	}
	_, err := svc.Withdraw(ctx, alice, Movement{AccountID: a1.ID, Amount: dec("1")})
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, alice, Movement{AccountID: a2.ID, Amount: dec("7")})
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, bob, Movement{AccountID: b1.ID, Amount: dec("7")})
	require.NoError(t, err)

	all, err := svc.List(ctx, alice, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, a2.ID, all[0].AccountID, "newest first")

	onlyA1, err := svc.List(ctx, alice, Filter{AccountID: &a1.ID, Type: domain.TxDeposit})
	require.NoError(t, err)
	assert.Len(t, onlyA1, 3)

	page, err := svc.List(ctx, alice, Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = svc.List(ctx, alice, Filter{AccountID: &b1.ID})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStatement(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	user := uuid.New()
	a := store.addAccount(user, "USD", "0")
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return day }
	_, err := svc.Deposit(ctx, user, Movement{AccountID: a.ID, Amount: dec("10")})
	require.NoError(t, err)
	svc.Now = func() time.Time { return day.AddDate(0, 0, 5) }
	_, err = svc.Withdraw(ctx, user, Movement{AccountID: a.ID, Amount: dec("4")})
	require.NoError(t, err)

	st, err := svc.Statement(ctx, user, a.ID, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, a.ID, st.Account.ID)
	require.Len(t, st.Items, 1)
	assert.Equal(t, domain.TxDeposit, st.Items[0].Type)
	assert.Equal(t, 1, st.Totals.Count)
	assert.Equal(t, "10.00", money.Format(st.Totals.Closing))
	assert.False(t, st.Truncated())

	_, err = svc.Statement(ctx, uuid.New(), a.ID, day, day)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStatementTotalsCoverRowsBeyondCap(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.StatementRows = 3
	user := uuid.New()
	a := store.addAccount(user, "USD", "100")
	ctx := context.Background()

	day := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := day.Add(time.Duration(i) * time.Minute)
		svc.Now = func() time.Time { return at }
		_, err := svc.Deposit(ctx, user, Movement{AccountID: a.ID, Amount: dec("10")})
		require.NoError(t, err)
	}
	svc.Now = func() time.Time { return day.Add(time.Hour) }
	_, err := svc.Withdraw(ctx, user, Movement{AccountID: a.ID, Amount: dec("15")})
	require.NoError(t, err)

	st, err := svc.Statement(ctx, user, a.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, st.Items, 3)
	assert.True(t, st.Truncated())
	assert.Equal(t, 6, st.Totals.Count)
	assert.Equal(t, "100.00", money.Format(st.Totals.Opening))
	assert.Equal(t, "50.00", money.Format(st.Totals.Credits))
	assert.Equal(t, "15.00", money.Format(st.Totals.Debits))
	assert.Equal(t, "135.00", money.Format(st.Totals.Closing))
	assert.Equal(t, money.Format(store.account(a.ID).Balance), money.Format(st.Totals.Closing))
}

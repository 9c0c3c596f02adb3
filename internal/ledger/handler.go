package ledger

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/audit"
	"github.com/ishantswami13-crypto/minibank-backend/internal/auth"
	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/httperr"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

const dateLayout = "2006-01-02"

// Request types accepted by Create.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
)

type Handler struct {
	Service *Service
	Audit   audit.Recorder
}

func NewHandler(svc *Service, rec audit.Recorder) *Handler {
	return &Handler{Service: svc, Audit: rec}
}

type createRequest struct {
	Type            string          `json:"type"`
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	ToAccountID     string          `json:"to_account_id"`
	ToAccountNumber string          `json:"to_account_number"`
}

// Create handles deposits, withdrawals and transfers on one route, keyed by type.
func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	accountID, err := uuid.Parse(strings.TrimSpace(body.AccountID))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "account_id must be a uuid")
	}

	ctx := c.UserContext()
	kind := strings.ToLower(strings.TrimSpace(body.Type))
	switch kind {
	case KindDeposit, KindWithdrawal:
		m := Movement{AccountID: accountID, Amount: body.Amount, Description: body.Description}

		var res Result
		action := "ledger.deposit"
		if kind == KindDeposit {
			res, err = h.Service.Deposit(ctx, userID, m)
		} else {
			action = "ledger.withdrawal"
			res, err = h.Service.Withdraw(ctx, userID, m)
		}
		if err != nil {
			return httpError(err)
		}

		audit.Best(c, h.Audit, audit.FromRequest(c, userID, action, "transaction", res.Transaction.ID, map[string]any{
			"account_id": accountID.String(),
			"amount":     money.Format(res.Transaction.Amount),
		}))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transaction": res.Transaction,
			"balance":     money.Format(res.Balance),
		})

	case KindTransfer:
		req := TransferRequest{
			FromAccountID:   accountID,
			ToAccountNumber: body.ToAccountNumber,
			Amount:          body.Amount,
			Description:     body.Description,
		}
		if raw := strings.TrimSpace(body.ToAccountID); raw != "" {
			if req.ToAccountID, err = uuid.Parse(raw); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to_account_id must be a uuid")
			}
		}

		res, err := h.Service.Transfer(ctx, userID, req)
		if err != nil {
			return httpError(err)
		}

		audit.Best(c, h.Audit, audit.FromRequest(c, userID, "ledger.transfer", "transfer", res.Transfer.ID, map[string]any{
			"from_account_id": res.Transfer.FromAccountID.String(),
			"to_account_id":   res.Transfer.ToAccountID.String(),
			"amount":          money.Format(res.Transfer.Amount),
		}))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transfer":    res.Transfer,
			"transaction": res.Transaction,
			"balance":     money.Format(res.Balance),
		})

	default:
		return fiber.NewError(fiber.StatusBadRequest, "type must be deposit, withdrawal or transfer")
	}
}

// List serves both /transactions (account_id query) and /accounts/:id/transactions.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	f, err := parseFilter(c)
	if err != nil {
		return err
	}

	items, err := h.Service.List(c.UserContext(), userID, f)
	if err != nil {
		return httpError(err)
	}

	f = f.normalized()
	return c.JSON(fiber.Map{
		"items":  items,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

func parseFilter(c *fiber.Ctx) (Filter, error) {
	var f Filter

	rawAccount := strings.TrimSpace(c.Params("id"))
	if rawAccount == "" {
		rawAccount = strings.TrimSpace(c.Query("account_id"))
	}
	if rawAccount != "" {
		id, err := uuid.Parse(rawAccount)
		if err != nil {
			return Filter{}, fiber.NewError(fiber.StatusBadRequest, "invalid account id")
		}
		f.AccountID = &id
	}

	if typ := strings.ToLower(strings.TrimSpace(c.Query("type"))); typ != "" {
		switch typ {
		case domain.TxDeposit, domain.TxWithdrawal, domain.TxTransferIn, domain.TxTransferOut:
			f.Type = typ
		default:
			return Filter{}, fiber.NewError(fiber.StatusBadRequest, "invalid type")
		}
	}

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		f.From = &d
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		until := d.AddDate(0, 0, 1)
		f.Until = &until
	}

	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		return Filter{}, err
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return n, nil
}

// httpError maps ledger errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, money.ErrInvalidMoney),
		errors.Is(err, ErrInvalidTransaction),
		errors.Is(err, ErrRecipientRequired),
		errors.Is(err, ErrSameAccount):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(fiber.StatusNotFound, "account not found")
	case errors.Is(err, ErrRecipientNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrCurrencyMismatch):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return httperr.Internal("ledger operation failed", err)
	}
}

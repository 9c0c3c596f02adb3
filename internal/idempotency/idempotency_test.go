package idempotency

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[string]Record
}

func (m *memStore) Lookup(_ context.Context, owner uuid.UUID, key string) (Record, bool, error) {
	r, ok := m.records[owner.String()+"/"+key]
	return r, ok, nil
}

func (m *memStore) Save(_ context.Context, owner uuid.UUID, _ string, key string, rec Record) error {
	k := owner.String() + "/" + key
	if _, ok := m.records[k]; !ok {
		m.records[k] = rec
	}
	return nil
}

func newApp(store Store, user uuid.UUID, calls *int) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", user.String())
		return c.Next()
	})
	app.Post("/transactions", Middleware(store), func(c *fiber.Ctx) error {
		*calls++
		if strings.Contains(string(c.Body()), "fail") {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient funds")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"n": *calls})
	})
	return app
}

func post(t *testing.T, app *fiber.App, key, body string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw), resp.Header.Get(HeaderReplayed)
}

func TestReplaysStoredResponse(t *testing.T) {
	store := &memStore{records: map[string]Record{}}
	calls := 0
	app := newApp(store, uuid.New(), &calls)

	status, body, replayed := post(t, app, "k1", `{"amount":"5"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Empty(t, replayed)

	status, body, replayed = post(t, app, "k1", `{"amount":"5"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Equal(t, "true", replayed)
	assert.Equal(t, 1, calls)
}

func TestRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := &memStore{records: map[string]Record{}}
	calls := 0
	app := newApp(store, uuid.New(), &calls)

	status, _, _ := post(t, app, "k1", `{"amount":"5"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, _, _ = post(t, app, "k1", `{"amount":"6"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, 1, calls)
}

func TestFailuresAreNotStored(t *testing.T) {
	store := &memStore{records: map[string]Record{}}
	calls := 0
	app := newApp(store, uuid.New(), &calls)

	status, _, _ := post(t, app, "k2", `{"fail":true}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	status, _, _ = post(t, app, "k2", `{"fail":true}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.records)
}

func TestWithoutKeyAlwaysRuns(t *testing.T) {
	store := &memStore{records: map[string]Record{}}
	calls := 0
	app := newApp(store, uuid.New(), &calls)

	post(t, app, "", `{}`)
	post(t, app, "", `{}`)
	assert.Equal(t, 2, calls)

	status, _, _ := post(t, app, strings.Repeat("k", 300), `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestKeysAreScopedPerOwner(t *testing.T) {
	store := &memStore{records: map[string]Record{}}
	calls := 0
	post(t, newApp(store, uuid.New(), &calls), "shared", `{}`)
	post(t, newApp(store, uuid.New(), &calls), "shared", `{}`)
	assert.Equal(t, 2, calls)
}

type downStore struct{}

func (downStore) Lookup(context.Context, uuid.UUID, string) (Record, bool, error) {
	return Record{}, false, errors.New("conn closed")
}

func (downStore) Save(context.Context, uuid.UUID, string, string, Record) error {
	return errors.New("conn closed")
}

func TestLookupFailureRefusesToRun(t *testing.T) {
	calls := 0
	app := newApp(downStore{}, uuid.New(), &calls)

	status, _, _ := post(t, app, "retry-1", `{"amount":"5"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, 0, calls)

	status, _, _ = post(t, app, "", `{"amount":"5"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, calls)
}

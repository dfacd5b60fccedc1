package reward

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "0x52908400098527886E0F7030069857D2E4169EE7"

type memStore struct {
	claims []Claim
	err    error
}

func (m *memStore) RecordClaim(_ context.Context, c Claim) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.claims = append(m.claims, c)
	return int64(len(m.claims)), nil
}

func validClaim() Claim {
	return Claim{
		SessionID: "s-1",
		GameID:    "2048_classic",
		Account:   testAccount,
		Score:     2400,
		MaxTile:   256,
		EndedAt:   1700000000,
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestClaimValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Claim)
	}{
		{"no session", func(c *Claim) { c.SessionID = "" }},
		{"bad account", func(c *Claim) { c.Account = "bob" }},
		{"negative score", func(c *Claim) { c.Score = -1 }},
		{"no end time", func(c *Claim) { c.EndedAt = 0 }},
	}
	require.NoError(t, validClaim().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaim()
			tt.mut(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidClaim)
		})
	}
}

func TestLedgerClientSubmit(t *testing.T) {
	store := &memStore{}
	client := NewLedgerClient(store, testAccount, quietLogger())
	fixed := time.Unix(1700000100, 0)
	client.now = func() time.Time { return fixed }

	rc, err := client.Submit(context.Background(), validClaim())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rc.ClaimID)
	assert.Equal(t, StatusPending, rc.Status)
	assert.Equal(t, fixed, rc.SubmittedAt)
	require.Len(t, store.claims, 1)
	assert.Equal(t, 2400, store.claims[0].Score)
}

func TestLedgerClientRejectsForeignAccount(t *testing.T) {
	store := &memStore{}
	client := NewLedgerClient(store, "0x0000000000000000000000000000000000000001", quietLogger())

	_, err := client.Submit(context.Background(), validClaim())
	assert.ErrorIs(t, err, ErrInvalidClaim)
	assert.Empty(t, store.claims)
}

func TestLedgerClientStoreError(t *testing.T) {
	boom := errors.New("disk full")
	client := NewLedgerClient(&memStore{err: boom}, testAccount, quietLogger())

	_, err := client.Submit(context.Background(), validClaim())
	assert.ErrorIs(t, err, boom)
}

func TestClosedClients(t *testing.T) {
	ledger, err := LedgerFactory(&memStore{}, quietLogger())(testAccount)
	require.NoError(t, err)
	nop, err := NopFactory()(testAccount)
	require.NoError(t, err)

	for _, c := range []Client{ledger, nop} {
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		_, err := c.Submit(context.Background(), validClaim())
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestNopClientSkips(t *testing.T) {
	rc, err := (&NopClient{}).Submit(context.Background(), validClaim())
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, rc.Status)
	assert.Zero(t, rc.ClaimID)
}

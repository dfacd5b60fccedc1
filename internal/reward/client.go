package reward

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LedgerClient records claims as pending in a ClaimStore for later payout.
type LedgerClient struct {
	store   ClaimStore
	account string
	logger  *log.Logger
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewLedgerClient returns a client bound to account.
func NewLedgerClient(store ClaimStore, account string, logger *log.Logger) *LedgerClient {
	if logger == nil {
		logger = log.Default()
	}
	return &LedgerClient{
		store:   store,
		account: account,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit records the claim. Claims for another account are rejected.
func (c *LedgerClient) Submit(ctx context.Context, claim Claim) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Receipt{}, ErrClosed
	}
	if err := claim.Validate(); err != nil {
		return Receipt{}, err
	}
	if !strings.EqualFold(claim.Account, c.account) {
		return Receipt{}, fmt.Errorf("%w: account %s does not own this client", ErrInvalidClaim, claim.Account)
	}

	id, err := c.store.RecordClaim(ctx, claim)
	if err != nil {
		return Receipt{}, fmt.Errorf("reward: cannot record claim: %w", err)
	}

	c.logger.Info("reward claim recorded",
		"claim", id,
		"session", claim.SessionID,
		"account", claim.Account,
		"score", claim.Score,
	)
	return Receipt{ClaimID: id, Status: StatusPending, SubmittedAt: c.now()}, nil
}

// Close marks the client closed. It is safe to call more than once.
func (c *LedgerClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// LedgerFactory opens LedgerClients over store.
func LedgerFactory(store ClaimStore, logger *log.Logger) Factory {
	return func(account string) (Client, error) {
		return NewLedgerClient(store, account, logger), nil
	}
}

// NopClient accepts claims and drops them.
type NopClient struct {
	mu     sync.Mutex
	closed bool
}

func (c *NopClient) Submit(_ context.Context, claim Claim) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Receipt{}, ErrClosed
	}
	return Receipt{Status: StatusSkipped, SubmittedAt: time.Now()}, nil
}

func (c *NopClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// NopFactory is used when rewards are disabled.
func NopFactory() Factory {
	return func(string) (Client, error) { return &NopClient{}, nil }
}

var (
	_ Client = (*LedgerClient)(nil)
	_ Client = (*NopClient)(nil)
)

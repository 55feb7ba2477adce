package payrail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// ErrTransferRejected is returned when the mock rail is told to fail.
var ErrTransferRejected = fmt.Errorf("transfer rejected: %w", models.ErrTransferDeclined)

// Config holds payment rail settings
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	MockAPI  bool
	FailRate float64 // mock only: probability that a transfer fails
	Seed     int64   // mock only: seeds failure injection
}

// Client moves pots to winners, either through the treasury HTTP API or
// against in-memory balances when MockAPI is set.
type Client struct {
	BaseURL string
	APIKey  string
	MockAPI bool
	client  *http.Client

	mu       sync.Mutex
	balances map[models.ParticipantID]models.Amount
	paid     models.Amount
	failNext int
	failRate float64
	rng      *rand.Rand
	now      func() time.Time
}

// transferBody is the JSON body of POST /transfers
type transferBody struct {
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
	Round     uint64 `json:"round"`
	Reason    string `json:"reason"`
}

// transferResponse is the JSON body of a successful transfer
type transferResponse struct {
	Reference string    `json:"reference"`
	SettledAt time.Time `json:"settledAt"`
}

// NewClient creates a new payment rail client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:   cfg.APIKey,
		MockAPI:  cfg.MockAPI,
		client:   &http.Client{Timeout: timeout},
		balances: make(map[models.ParticipantID]models.Amount),
		failRate: cfg.FailRate,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		now:      time.Now,
	}
}

// Transfer sends req.Amount to req.To
func (c *Client) Transfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	if req.To == "" || req.Amount == 0 {
		return models.TransferReceipt{}, fmt.Errorf("%w: invalid transfer of %s to %q", models.ErrTransferDeclined, req.Amount, req.To)
	}
	if c.MockAPI {
		return c.mockTransfer(ctx, req)
	}
	return c.httpTransfer(ctx, req)
}

func (c *Client) httpTransfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	body, err := json.Marshal(transferBody{
		To:        string(req.To),
		Amount:    req.Amount.String(),
		Reference: req.IdempotencyKey,
		Round:     req.RoundNumber,
		Reason:    string(req.Reason),
	})
	if err != nil {
		return models.TransferReceipt{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return models.TransferReceipt{}, fmt.Errorf("failed to build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.TransferReceipt{}, fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("transfer rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if definitive(resp.StatusCode) {
			err = fmt.Errorf("%w: %w", models.ErrTransferDeclined, err)
		}
		return models.TransferReceipt{}, err
	}

	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return models.TransferReceipt{}, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if out.Reference == "" {
		out.Reference = req.IdempotencyKey
	}
	if out.SettledAt.IsZero() {
		out.SettledAt = c.now()
	}
	return models.TransferReceipt{Reference: out.Reference, SettledAt: out.SettledAt}, nil
}

// definitive reports whether a status means the treasury refused the transfer
// outright. Server errors, timeouts and throttling leave the outcome unknown.
func definitive(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}

// mockTransfer credits an in-memory balance
func (c *Client) mockTransfer(ctx context.Context, req models.TransferRequest) (models.TransferReceipt, error) {
	if err := ctx.Err(); err != nil {
		return models.TransferReceipt{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failNext > 0 {
		c.failNext--
		return models.TransferReceipt{}, ErrTransferRejected
	}
	if c.failRate > 0 && c.rng.Float64() < c.failRate {
		return models.TransferReceipt{}, ErrTransferRejected
	}

	balance, ok := c.balances[req.To].Add(req.Amount)
	if !ok {
		return models.TransferReceipt{}, errors.New("mock balance overflow")
	}
	paid, ok := c.paid.Add(req.Amount)
	if !ok {
		return models.TransferReceipt{}, errors.New("mock ledger overflow")
	}
	c.balances[req.To] = balance
	c.paid = paid

	return models.TransferReceipt{
		Reference: "MOCK-" + req.IdempotencyKey,
		SettledAt: c.now(),
	}, nil
}

// FailNext makes the next n mock transfers fail
func (c *Client) FailNext(n int) {
	c.mu.Lock()
	c.failNext = n
	c.mu.Unlock()
}

// Balance returns what the mock rail has paid to id
func (c *Client) Balance(id models.ParticipantID) models.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[id]
}

// TotalPaid returns the sum of all successful mock transfers
func (c *Client) TotalPaid() models.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paid
}

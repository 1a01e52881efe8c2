package helpers

import (
	"context"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
)

// MockSwapClient simulates on-chain swap operations for testing
type MockSwapClient struct {
	mu sync.Mutex

	quote      float64
	quoteErr   error
	exitResult map[string]interface{}
	exitErr    error
	exitCalls  []string // position ids, in call order
}

// NewMockSwapClient creates a mock swap client with a successful default exit
func NewMockSwapClient() *MockSwapClient {
	return &MockSwapClient{
		exitResult: map[string]interface{}{
			"success": true,
			"tx_hash": "0xmock",
		},
	}
}

// SetQuote configures the QuoteExactIn response
func (m *MockSwapClient) SetQuote(out float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quote = out
	m.quoteErr = err
}

// SetExitResult configures the ExecuteWatchlistExit response
func (m *MockSwapClient) SetExitResult(result map[string]interface{}, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitResult = result
	m.exitErr = err
}

// ExitCalls returns the position ids passed to ExecuteWatchlistExit
func (m *MockSwapClient) ExitCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.exitCalls))
	copy(out, m.exitCalls)
	return out
}

func (m *MockSwapClient) QuoteExactIn(ctx context.Context, tokenIn, tokenOut string, amountIn float64, fee int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quote, m.quoteErr
}

func (m *MockSwapClient) ExecuteWatchlistExit(ctx context.Context, positionID, triggerType string) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitCalls = append(m.exitCalls, positionID)
	if m.exitErr != nil {
		return nil, m.exitErr
	}
	return m.exitResult, nil
}

func (m *MockSwapClient) RegisterStopLossTakeProfit(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"registered": true}, nil
}

// MockWatchlistClient simulates the position-monitoring component
type MockWatchlistClient struct {
	mu sync.Mutex

	positions     []map[string]interface{}
	notifications []map[string]interface{}
	globalROI     map[string]interface{}
	closed        []string
}

// NewMockWatchlistClient creates an empty mock watchlist
func NewMockWatchlistClient() *MockWatchlistClient {
	return &MockWatchlistClient{}
}

// SetPositions configures the open positions
func (m *MockWatchlistClient) SetPositions(positions []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
}

// SetNotifications configures the trigger notifications to return
func (m *MockWatchlistClient) SetNotifications(notifications []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = notifications
}

// SetGlobalROI configures the global ROI notification (nil disables it)
func (m *MockWatchlistClient) SetGlobalROI(notification map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalROI = notification
}

// Closed returns the position ids closed so far
func (m *MockWatchlistClient) Closed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.closed))
	copy(out, m.closed)
	return out
}

func (m *MockWatchlistClient) ListPositions(ctx context.Context) ([]map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions, nil
}

func (m *MockWatchlistClient) ClosePosition(ctx context.Context, positionID, triggerType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, positionID)
	return nil
}

func (m *MockWatchlistClient) EvaluateTriggers(ctx context.Context) ([]map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications, nil
}

func (m *MockWatchlistClient) EvaluateGlobalROITrigger(ctx context.Context) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.globalROI, nil
}

// MockWalletClient simulates wallet analysis reads
type MockWalletClient struct {
	mu sync.Mutex

	feedback map[string]interface{}
	state    map[string]interface{}
	calls    int
}

// NewMockWalletClient creates a mock wallet client with empty documents
func NewMockWalletClient() *MockWalletClient {
	return &MockWalletClient{
		feedback: map[string]interface{}{},
		state:    map[string]interface{}{},
	}
}

// SetFeedback configures the wallet feedback document
func (m *MockWalletClient) SetFeedback(doc map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = doc
}

// FeedbackCalls returns how many times GetWalletFeedback ran
func (m *MockWalletClient) FeedbackCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockWalletClient) GetWalletFeedback(ctx context.Context, walletAddress string) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.feedback, nil
}

func (m *MockWalletClient) GetGlobalWalletState(ctx context.Context) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

var _ ports.SwapClient = (*MockSwapClient)(nil)
var _ ports.WatchlistClient = (*MockWatchlistClient)(nil)
var _ ports.WalletClient = (*MockWalletClient)(nil)

package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/knamoah/kasabot/internal/retry"
)

// MockProvider is a test provider that records calls and returns canned
// responses, optionally failing a number of leading calls.
type MockProvider struct {
	mu        sync.Mutex
	Calls     []CompletionRequest
	Response  *CompletionResponse
	Err       error
	FailFirst int
	ProvName  string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.FailFirst >= len(m.Calls) {
		return nil, errors.New("transient backend error")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func testClient(p Provider, attempts int) *Client {
	policy := retry.Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return NewClient(p, policy, time.Second, zerolog.Nop())
}

// --- Tests ---

func TestClientReturnsProviderResponse(t *testing.T) {
	mock := NewMockProvider("test")
	c := testClient(mock, 3)

	resp, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	mock := NewMockProvider("test")
	mock.FailFirst = 2
	c := testClient(mock, 3)

	resp, err := c.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestClientBoundsAttempts(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("backend down")
	c := testClient(mock, 3)

	_, err := c.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompletionError, got %T", err)
	}
	if cerr.Permanent {
		t.Error("transient exhaustion should not be marked permanent")
	}
	if cerr.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", cerr.Attempts)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestClientDoesNotRetryAuthErrors(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
	c := testClient(mock, 5)

	_, err := c.Complete(context.Background(), CompletionRequest{})
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompletionError, got %v", err)
	}
	if !cerr.Permanent {
		t.Error("auth failure should be permanent")
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestClientDoesNotRetryQuotaExhaustion(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = &openai.APIError{
		HTTPStatusCode: http.StatusTooManyRequests,
		Type:           "insufficient_quota",
	}
	c := testClient(mock, 5)

	_, err := c.Complete(context.Background(), CompletionRequest{})
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompletionError, got %v", err)
	}
	if !cerr.Permanent {
		t.Error("quota exhaustion should be permanent")
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestClientRetriesPlainRateLimit(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Type: "requests"}
	c := testClient(mock, 2)

	_, err := c.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Errorf("rate limiting should be retried, got %d calls", mock.CallCount())
	}
}

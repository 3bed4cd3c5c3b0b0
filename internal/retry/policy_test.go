package retry

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffExponential {
		t.Fatalf("expected exponential default mode got %s", p.Mode)
	}
	if p.Initial != time.Second {
		t.Fatalf("expected initial 1s got %v", p.Initial)
	}
	if p.Max != 5*time.Second {
		t.Fatalf("expected max 5s got %v", p.Max)
	}
	if p.MaxRetries != 0 {
		t.Fatalf("expected no retries by default got %d", p.MaxRetries)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxRetries != 5 {
		t.Fatalf("expected maxRetries 5 got %d", p.MaxRetries)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Check
	cfg.Retries = 2
	cfg.RetryBackoff = config.RetryBackoffLinear
	cfg.RetryInitialDelay = "100ms"
	cfg.RetryMaxDelay = "1s"

	p := FromConfig(cfg)
	if p.MaxRetries != 2 || p.Mode != config.RetryBackoffLinear || p.Initial != 100*time.Millisecond || p.Max != time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	cases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 250 * time.Millisecond}}
	for _, c := range cases {
		if got := linear.Delay(c.attempt); got != c.want {
			t.Fatalf("linear attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}

	exp := NewPolicy(config.RetryBackoffExponential, 100*time.Millisecond, 300*time.Millisecond, 5)
	expCases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 300 * time.Millisecond}, {40, 300 * time.Millisecond}}
	for _, c := range expCases {
		if got := exp.Delay(c.attempt); got != c.want {
			t.Fatalf("exponential attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}

	if d := exp.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
}

func TestBackoffHonoursRetryAfter(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 3*time.Second, 1)

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"2"}}}
	if d := p.Backoff(0, 0, 0, resp); d != 2*time.Second {
		t.Fatalf("expected 2s from Retry-After got %v", d)
	}

	resp.Header.Set("Retry-After", "60")
	if d := p.Backoff(0, 0, 0, resp); d != 3*time.Second {
		t.Fatalf("expected cap 3s got %v", d)
	}

	if d := p.Backoff(0, 0, 0, nil); d != 100*time.Millisecond {
		t.Fatalf("expected policy delay got %v", d)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if err := (Policy{Initial: 0, Max: time.Second}).Validate(); err == nil {
		t.Fatal("expected error for zero initial")
	}
}

func TestWrapHTTPClient_NoRetriesReturnsSameClient(t *testing.T) {
	c := &http.Client{}
	if got := WrapHTTPClient(c, DefaultPolicy()); got != c {
		t.Fatal("expected the client to be returned unchanged")
	}
}

func TestWrapHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	client := WrapHTTPClient(srv.Client(), p)

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls got %d", calls.Load())
	}
}

func TestWrapHTTPClient_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := WrapHTTPClient(srv.Client(), NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3))
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()
	if calls.Load() != 1 {
		t.Fatalf("expected a single call got %d", calls.Load())
	}
}

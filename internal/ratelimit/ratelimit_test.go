package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowUnderLimit(t *testing.T) {
	l := NewIPLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestDenyOverLimit(t *testing.T) {
	l := NewIPLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		l.Allow("1.2.3.4")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("4th request should be denied")
	}
}

func TestDifferentIPsIndependent(t *testing.T) {
	l := NewIPLimiter(2, time.Hour)

	l.Allow("1.1.1.1")
	l.Allow("1.1.1.1")

	if l.Allow("1.1.1.1") {
		t.Fatal("1.1.1.1 should be denied")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatal("2.2.2.2 should be allowed")
	}
}

func TestExpiredEntriesPruned(t *testing.T) {
	l := NewIPLimiter(2, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")
	if l.Allow("1.2.3.4") {
		t.Fatal("should be denied before window expires")
	}

	now = now.Add(time.Minute + time.Second)
	if !l.Allow("1.2.3.4") {
		t.Fatal("should be allowed after window expires")
	}
}

func TestSweepForgetsIdleIPs(t *testing.T) {
	l := NewIPLimiter(1, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("1.1.1.1")
	now = now.Add(30 * time.Second)
	l.Allow("2.2.2.2")
	now = now.Add(45 * time.Second)
	l.Sweep()

	if _, ok := l.entries["1.1.1.1"]; ok {
		t.Error("1.1.1.1 should have been swept")
	}
	if _, ok := l.entries["2.2.2.2"]; !ok {
		t.Error("2.2.2.2 is still inside the window")
	}
}

func TestDisabled(t *testing.T) {
	l := NewIPLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatal("a zero limit should never deny")
		}
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", NewIPLimiter(1, time.Minute).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}

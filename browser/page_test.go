package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sitelens/sitelens/models"
)

func TestPage_RetiresAfterRepeatedFailures(t *testing.T) {
	p := &Page{created: time.Now()}
	for i := 0; i < 3; i++ {
		p.recordFailure()
	}
	if !p.shouldRetire(50, 10*time.Minute) {
		t.Error("page with 3 consecutive failures should retire")
	}
}

func TestPage_SuccessesDecayTheErrorScore(t *testing.T) {
	p := &Page{created: time.Now()}
	p.recordFailure()
	p.recordFailure()
	p.recordSuccess()
	p.recordSuccess()
	if p.shouldRetire(50, 10*time.Minute) {
		t.Error("recovered page should stay in the pool")
	}
}

func TestPage_RetiresAtMaxUses(t *testing.T) {
	p := &Page{created: time.Now()}
	for i := 0; i < 5; i++ {
		p.recordSuccess()
	}
	if !p.shouldRetire(5, 10*time.Minute) {
		t.Error("page at its use limit should retire")
	}
	if p.shouldRetire(6, 10*time.Minute) {
		t.Error("page under its use limit should stay")
	}
	if p.shouldRetire(0, 10*time.Minute) {
		t.Error("maxUses of 0 disables use-based retirement")
	}
}

func TestPage_RetiresAtMaxAge(t *testing.T) {
	p := &Page{created: time.Now().Add(-11 * time.Minute)}
	if !p.shouldRetire(50, 10*time.Minute) {
		t.Error("page past its age limit should retire")
	}
	if p.shouldRetire(50, 0) {
		t.Error("maxAge of 0 disables age-based retirement")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline exceeded", context.DeadlineExceeded, models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"anything else", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "navigation to target URL failed")
			if got.Code != tt.want {
				t.Errorf("categorizeError(%v).Code = %s, want %s", tt.err, got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("categorized error should wrap the original %v", tt.err)
			}
		})
	}
}

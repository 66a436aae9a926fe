package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	testErr := errors.New("boom")

	tests := []struct {
		name   string
		result Result
		status Status
		err    error
	}{
		{"healthy", Healthy("ok"), StatusHealthy, nil},
		{"degraded", Degraded("slow"), StatusDegraded, nil},
		{"unhealthy", Unhealthy("down", testErr), StatusUnhealthy, testErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Error != tt.err {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.err)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
}

func TestResult_WithDetails(t *testing.T) {
	base := Healthy("ok")
	withDetails := base.WithDetails(map[string]any{"size": 3})

	if withDetails.Details["size"] != 3 {
		t.Errorf("Details[size] = %v, want 3", withDetails.Details["size"])
	}
	if base.Details != nil {
		t.Error("WithDetails should not modify the receiver")
	}
}

func TestStatus_MarshalText(t *testing.T) {
	got, err := json.Marshal(map[string]Status{"cache.monitors": StatusDegraded})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(got) != `{"cache.monitors":"degraded"}` {
		t.Errorf("Marshal() = %s, want status names", got)
	}
}

func TestStatus_Worse(t *testing.T) {
	tests := []struct {
		a, b Status
		want Status
	}{
		{StatusHealthy, StatusHealthy, StatusHealthy},
		{StatusHealthy, StatusDegraded, StatusDegraded},
		{StatusUnhealthy, StatusDegraded, StatusUnhealthy},
	}
	for _, tt := range tests {
		if got := tt.a.Worse(tt.b); got != tt.want {
			t.Errorf("%v.Worse(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestResult_Serving(t *testing.T) {
	if !Degraded("low hit ratio").Serving() {
		t.Error("degraded components still serve")
	}
	if Unhealthy("circuit open", ErrCircuitOpen).Serving() {
		t.Error("unhealthy components do not serve")
	}
}

func TestResult_WithDetailsMerges(t *testing.T) {
	r := Healthy("ok").
		WithDetails(map[string]any{"size": 3, "capacity": 10}).
		WithDetails(map[string]any{"size": 4})

	if r.Details["size"] != 4 || r.Details["capacity"] != 10 {
		t.Errorf("Details = %v, want size 4 and capacity 10", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	called := false
	checker := NewCheckerFunc("probe", func(ctx context.Context) Result {
		called = true
		return Degraded("probing")
	})

	if checker.Name() != "probe" {
		t.Errorf("Name() = %v, want probe", checker.Name())
	}
	result := checker.Check(context.Background())
	if !called {
		t.Error("function was not called")
	}
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
}

package telemetry

import (
	"context"
	"testing"

	"github.com/flemzord/dashgram/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	tel, err := Setup(context.Background(), config.TelemetryConfig{})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if tel.Gatherer() != nil {
		t.Error("Gatherer() != nil with metrics disabled")
	}
	if len(tel.ClientOptions()) != 0 {
		t.Errorf("ClientOptions() = %d, want 0", len(tel.ClientOptions()))
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestSetup_Metrics(t *testing.T) {
	t.Parallel()

	tel, err := Setup(context.Background(), config.TelemetryConfig{Metrics: true})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if tel.Gatherer() == nil {
		t.Fatal("Gatherer() = nil with metrics enabled")
	}
	families, err := tel.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if len(families) == 0 {
		t.Error("no runtime metrics gathered")
	}
	if len(tel.ClientOptions()) != 1 {
		t.Errorf("ClientOptions() = %d, want 1", len(tel.ClientOptions()))
	}
}

func TestSetup_Tracing(t *testing.T) {
	t.Parallel()

	tel, err := Setup(context.Background(), config.TelemetryConfig{
		OTLPEndpoint: "127.0.0.1:4318",
		OTLPInsecure: true,
		ServiceName:  "test",
	})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if len(tel.ClientOptions()) != 1 {
		t.Errorf("ClientOptions() = %d, want 1", len(tel.ClientOptions()))
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

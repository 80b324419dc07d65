package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ecoflow/internal/engine/devices"
	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/engine/signing"
	"ecoflow/internal/platform/config"
	"ecoflow/internal/platform/database"
	"ecoflow/internal/platform/repositories"
)

type stubAPI struct {
	devices []ecoflow.Device
	failing map[string]bool
	calls   atomic.Int32
}

func (s *stubAPI) Devices(ctx context.Context) ([]ecoflow.Device, error) { return s.devices, nil }

func (s *stubAPI) AllQuota(ctx context.Context, sn string) (ecoflow.Quota, error) {
	s.calls.Add(1)
	if s.failing[sn] {
		return nil, errors.New("connection refused")
	}
	return ecoflow.Quota{"pd.soc": 50}, nil
}

func (s *stubAPI) GetQuota(ctx context.Context, sn string, params *signing.Mapping) (ecoflow.Quota, error) {
	return nil, nil
}

func (s *stubAPI) SetQuota(ctx context.Context, sn, cmdCode string, params *signing.Mapping) error {
	return nil
}

func newService(t *testing.T, api devices.API) *devices.Service {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return devices.NewService(api,
		repositories.NewDeviceRepository(db),
		repositories.NewSnapshotRepository(db),
		repositories.NewCommandRepository(db),
	)
}

func TestPoller_TickAllDevices(t *testing.T) {
	api := &stubAPI{
		devices: []ecoflow.Device{{SN: "HW51"}, {SN: "R331"}, {SN: "DOWN"}},
		failing: map[string]bool{"DOWN": true},
	}
	svc := newService(t, api)
	p := NewPoller(svc, config.PollerConfig{Retention: time.Hour})

	res := p.Tick(context.Background())
	if res.Captured != 2 || res.Failed != 1 {
		t.Errorf("Tick() = %+v, want 2 captured and 1 failed", res)
	}

	history, err := svc.History("HW51", 0)
	if err != nil || len(history) != 1 {
		t.Errorf("History() = %v, %v", history, err)
	}
}

func TestPoller_TickConfiguredDevices(t *testing.T) {
	api := &stubAPI{devices: []ecoflow.Device{{SN: "HW51"}, {SN: "R331"}}}
	p := NewPoller(newService(t, api), config.PollerConfig{Devices: []string{"R331"}})

	res := p.Tick(context.Background())
	if res.Captured != 1 || api.calls.Load() != 1 {
		t.Errorf("Tick() = %+v with %d calls, want only the configured device", res, api.calls.Load())
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	api := &stubAPI{devices: []ecoflow.Device{{SN: "HW51"}}}
	p := NewPoller(newService(t, api), config.PollerConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if api.calls.Load() < 2 {
		t.Errorf("Expected several polls, got %d", api.calls.Load())
	}
}

package workers

import (
	"context"
	"time"

	"ecoflow/internal/engine/devices"
	"ecoflow/internal/platform/config"
	"github.com/rs/zerolog/log"
)

// Poller periodically records quota snapshots for the account's devices.
type Poller struct {
	svc *devices.Service
	cfg config.PollerConfig
}

// TickResult summarises one polling round.
type TickResult struct {
	Captured int
	Failed   int
	Pruned   int64
}

func NewPoller(svc *devices.Service, cfg config.PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Poller{svc: svc, cfg: cfg}
}

// Run polls once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	log.Info().Dur("interval", p.cfg.Interval).Strs("devices", p.cfg.Devices).Msg("Poller started")

	p.Tick(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick refreshes the device table, snapshots each device and prunes old
// snapshots. Failures for one device do not stop the others.
func (p *Poller) Tick(ctx context.Context) TickResult {
	var res TickResult

	synced, err := p.svc.Sync(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Device sync failed")
	}

	serials := p.cfg.Devices
	if len(serials) == 0 {
		for _, d := range synced {
			serials = append(serials, d.SN)
		}
	}

	for _, sn := range serials {
		if ctx.Err() != nil {
			return res
		}
		if _, err := p.svc.Capture(ctx, sn); err != nil {
			res.Failed++
			log.Warn().Err(err).Str("sn", sn).Msg("Snapshot failed")
			continue
		}
		res.Captured++
	}

	pruned, err := p.svc.Prune(p.cfg.Retention)
	if err != nil {
		log.Error().Err(err).Msg("Snapshot prune failed")
	}
	res.Pruned = pruned

	log.Debug().Int("captured", res.Captured).Int("failed", res.Failed).Int64("pruned", res.Pruned).Msg("Poll complete")
	return res
}

package devices

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/engine/signing"
	"ecoflow/internal/platform/models"
	"ecoflow/internal/platform/repositories"
	"github.com/rs/zerolog/log"
)

// API is the subset of the vendor client the service needs.
type API interface {
	Devices(ctx context.Context) ([]ecoflow.Device, error)
	AllQuota(ctx context.Context, sn string) (ecoflow.Quota, error)
	GetQuota(ctx context.Context, sn string, params *signing.Mapping) (ecoflow.Quota, error)
	SetQuota(ctx context.Context, sn, cmdCode string, params *signing.Mapping) error
}

var (
	ErrMissingCommand = errors.New("devices: cmdCode is required")
	ErrUnknownDevice  = errors.New("devices: unknown device")
)

type Service struct {
	api       API
	devices   *repositories.DeviceRepository
	snapshots *repositories.SnapshotRepository
	commands  *repositories.CommandRepository
}

func NewService(api API, devices *repositories.DeviceRepository, snapshots *repositories.SnapshotRepository, commands *repositories.CommandRepository) *Service {
	return &Service{
		api:       api,
		devices:   devices,
		snapshots: snapshots,
		commands:  commands,
	}
}

// Sync fetches the account's devices and records them locally.
func (s *Service) Sync(ctx context.Context) ([]*models.Device, error) {
	remote, err := s.api.Devices(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Device, 0, len(remote))
	for _, d := range remote {
		device := &models.Device{
			SN:          d.SN,
			Name:        d.DeviceName,
			ProductName: d.ProductName,
			Online:      bool(d.Online),
		}
		if err := s.devices.Upsert(device); err != nil {
			return nil, err
		}
		out = append(out, device)
	}
	return out, nil
}

// Known lists the devices recorded by earlier syncs without calling the
// vendor.
func (s *Service) Known() ([]*models.Device, error) {
	return s.devices.List()
}

// Latest returns the stored device and its most recent snapshot. The
// snapshot is nil until the device has been captured once.
func (s *Service) Latest(sn string) (*models.Device, *models.QuotaSnapshot, error) {
	device, err := s.devices.GetBySN(sn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrUnknownDevice
	}
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshots.Latest(sn)
	if errors.Is(err, sql.ErrNoRows) {
		return device, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return device, snapshot, nil
}

func (s *Service) Live(ctx context.Context, sn string) (ecoflow.Quota, error) {
	return s.api.AllQuota(ctx, sn)
}

// Capture reads every quota of the device and stores it as a snapshot.
func (s *Service) Capture(ctx context.Context, sn string) (*models.QuotaSnapshot, error) {
	quota, err := s.api.AllQuota(ctx, sn)
	if err != nil {
		return nil, err
	}

	snapshot := &models.QuotaSnapshot{
		DeviceSN:   sn,
		Payload:    map[string]any(quota),
		CapturedAt: time.Now().UnixMilli(),
	}
	if err := s.snapshots.Create(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) History(sn string, limit int) ([]*models.QuotaSnapshot, error) {
	return s.snapshots.ListByDevice(sn, limit)
}

// Prune drops snapshots older than retention.
func (s *Service) Prune(retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.snapshots.Prune(time.Now().Add(-retention))
}

func (s *Service) Query(ctx context.Context, sn string, names []string) (ecoflow.Quota, error) {
	return s.api.GetQuota(ctx, sn, ecoflow.QuotaNames(names...))
}

// Command sends cmdCode to the device and records the outcome. The command
// is logged even when the vendor rejects it; the vendor error is returned
// alongside the record.
func (s *Service) Command(ctx context.Context, sn, cmdCode string, params *signing.Mapping) (*models.Command, error) {
	if cmdCode == "" {
		return nil, ErrMissingCommand
	}
	if params == nil {
		params = signing.NewMapping()
	}

	// Flatten first so malformed parameters never reach the vendor or the log.
	if _, err := signing.Flatten(params); err != nil {
		return nil, err
	}

	sendErr := s.api.SetQuota(ctx, sn, cmdCode, params)

	cmd := &models.Command{
		DeviceSN: sn,
		CmdCode:  cmdCode,
		Params:   signing.Object(params).Interface().(map[string]any),
		Status:   models.CommandStatusOK,
	}
	if sendErr != nil {
		cmd.Status = models.CommandStatusFailed
		cmd.Error = sendErr.Error()
	}

	if err := s.commands.Create(cmd); err != nil {
		log.Error().Err(err).Str("sn", sn).Str("cmd_code", cmdCode).Msg("failed to record command")
	}

	return cmd, sendErr
}

func (s *Service) Commands(sn string, limit int) ([]*models.Command, error) {
	return s.commands.ListByDevice(sn, limit)
}

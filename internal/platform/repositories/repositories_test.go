package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"ecoflow/internal/platform/config"
	"ecoflow/internal/platform/database"
	"ecoflow/internal/platform/models"
	"github.com/DATA-DOG/go-sqlmock"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if _, err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestDeviceRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO devices").
		WithArgs("HW51", "River", "RIVER 2", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewDeviceRepository(db)
	device := &models.Device{SN: "HW51", Name: "River", ProductName: "RIVER 2", Online: true}
	if err := repo.Upsert(device); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if device.LastSeenAt == nil {
		t.Error("Expected LastSeenAt to be set for an online device")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDeviceRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewDeviceRepository(db)
	if err := repo.Upsert(&models.Device{SN: "HW51", Name: "River", Online: true}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(&models.Device{SN: "HW51", Name: "River renamed", Online: false}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	d, err := repo.GetBySN("HW51")
	if err != nil {
		t.Fatalf("GetBySN() error = %v", err)
	}
	if d.Name != "River renamed" || d.Online {
		t.Errorf("Unexpected device %+v", d)
	}
	if d.LastSeenAt == nil {
		t.Error("Going offline must keep the previous last_seen_at")
	}

	if _, err := repo.GetBySN("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	devices, err := repo.List()
	if err != nil || len(devices) != 1 {
		t.Errorf("List() = %v, %v", devices, err)
	}
}

func TestSnapshotRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewSnapshotRepository(db)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		s := &models.QuotaSnapshot{
			DeviceSN:   "HW51",
			Payload:    map[string]any{"pd.soc": float64(80 + i)},
			CapturedAt: base.Add(time.Duration(i) * time.Minute).UnixMilli(),
		}
		if err := repo.Create(s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if s.ID == "" {
			t.Error("Expected generated ID")
		}
	}

	latest, err := repo.Latest("HW51")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.Payload["pd.soc"] != float64(82) {
		t.Errorf("Latest payload = %v", latest.Payload)
	}

	list, err := repo.ListByDevice("HW51", 2)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(list) != 2 || list[0].CapturedAt < list[1].CapturedAt {
		t.Errorf("Expected 2 snapshots newest first, got %d", len(list))
	}

	removed, err := repo.Prune(base.Add(90 * time.Second))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
}

func TestCommandRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO command_log").
		WithArgs(sqlmock.AnyArg(), "HW51", "WN511_SET_SUPPLY_PRIORITY_PACK", `{"supplyPriority":1}`, models.CommandStatusFailed, "signature is wrong", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rows := sqlmock.NewRows([]string{"id", "device_sn", "cmd_code", "params", "status", "error", "created_at"}).
		AddRow("cmd_1", "HW51", "WN511_SET_SUPPLY_PRIORITY_PACK", `{"supplyPriority":1}`, "failed", "signature is wrong", 1700000000).
		AddRow("cmd_0", "HW51", "WN511_SET_SUPPLY_PRIORITY_PACK", `{"supplyPriority":0}`, "ok", nil, 1690000000)
	mock.ExpectQuery("SELECT (.+) FROM command_log WHERE device_sn = ?").
		WithArgs("HW51", 50).
		WillReturnRows(rows)

	repo := NewCommandRepository(db)
	err = repo.Create(&models.Command{
		DeviceSN: "HW51",
		CmdCode:  "WN511_SET_SUPPLY_PRIORITY_PACK",
		Params:   map[string]any{"supplyPriority": 1},
		Status:   models.CommandStatusFailed,
		Error:    "signature is wrong",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	commands, err := repo.ListByDevice("HW51", 0)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(commands))
	}
	if commands[0].Error != "signature is wrong" || commands[1].Error != "" {
		t.Errorf("Unexpected errors %q / %q", commands[0].Error, commands[1].Error)
	}
	if commands[1].Params["supplyPriority"] != float64(0) {
		t.Errorf("Unexpected params %v", commands[1].Params)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

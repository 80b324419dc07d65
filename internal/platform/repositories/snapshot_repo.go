package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"ecoflow/internal/platform/models"
	"github.com/google/uuid"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Create(snapshot *models.QuotaSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = "snap_" + uuid.New().String()
	}
	if snapshot.CapturedAt == 0 {
		snapshot.CapturedAt = time.Now().UnixMilli()
	}

	payload, err := json.Marshal(snapshot.Payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO quota_snapshots (id, device_sn, payload, captured_at) VALUES (?, ?, ?, ?)`
	_, err = r.db.Exec(query, snapshot.ID, snapshot.DeviceSN, string(payload), snapshot.CapturedAt)
	return err
}

// Latest returns the most recent snapshot for the device, or sql.ErrNoRows.
func (r *SnapshotRepository) Latest(sn string) (*models.QuotaSnapshot, error) {
	query := `SELECT id, device_sn, payload, captured_at FROM quota_snapshots WHERE device_sn = ? ORDER BY captured_at DESC LIMIT 1`

	var s models.QuotaSnapshot
	var payload string
	if err := r.db.QueryRow(query, sn).Scan(&s.ID, &s.DeviceSN, &payload, &s.CapturedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(payload, &s.Payload); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SnapshotRepository) ListByDevice(sn string, limit int) ([]*models.QuotaSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, device_sn, payload, captured_at FROM quota_snapshots WHERE device_sn = ? ORDER BY captured_at DESC LIMIT ?`
	rows, err := r.db.Query(query, sn, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.QuotaSnapshot
	for rows.Next() {
		var s models.QuotaSnapshot
		var payload string
		if err := rows.Scan(&s.ID, &s.DeviceSN, &payload, &s.CapturedAt); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(payload, &s.Payload); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

// Prune deletes snapshots captured before the cutoff and reports how many
// were removed.
func (r *SnapshotRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM quota_snapshots WHERE captured_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeJSONColumn(raw string, dst *map[string]any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

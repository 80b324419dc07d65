package repositories

import (
	"database/sql"
	"time"

	"ecoflow/internal/platform/models"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert records the device as last reported by the vendor. last_seen_at only
// moves forward when the device is online.
func (r *DeviceRepository) Upsert(device *models.Device) error {
	now := time.Now().Unix()
	device.UpdatedAt = now
	if device.Online {
		device.LastSeenAt = &now
	}

	query := `
		INSERT INTO devices (sn, name, product_name, online, last_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(sn) DO UPDATE SET
			name = excluded.name,
			product_name = excluded.product_name,
			online = excluded.online,
			last_seen_at = COALESCE(excluded.last_seen_at, devices.last_seen_at),
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, device.SN, device.Name, device.ProductName, device.Online, device.LastSeenAt, device.UpdatedAt)
	return err
}

func (r *DeviceRepository) GetBySN(sn string) (*models.Device, error) {
	query := `SELECT sn, name, product_name, online, last_seen_at, updated_at FROM devices WHERE sn = ?`

	var d models.Device
	var lastSeenAt sql.NullInt64
	err := r.db.QueryRow(query, sn).Scan(&d.SN, &d.Name, &d.ProductName, &d.Online, &lastSeenAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastSeenAt.Valid {
		d.LastSeenAt = &lastSeenAt.Int64
	}
	return &d, nil
}

func (r *DeviceRepository) List() ([]*models.Device, error) {
	query := `SELECT sn, name, product_name, online, last_seen_at, updated_at FROM devices ORDER BY sn`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var d models.Device
		var lastSeenAt sql.NullInt64
		if err := rows.Scan(&d.SN, &d.Name, &d.ProductName, &d.Online, &lastSeenAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if lastSeenAt.Valid {
			v := lastSeenAt.Int64
			d.LastSeenAt = &v
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"ecoflow/internal/platform/models"
	"github.com/google/uuid"
)

// CommandRepository keeps an audit trail of commands sent to devices.
type CommandRepository struct {
	db *sql.DB
}

func NewCommandRepository(db *sql.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Create(cmd *models.Command) error {
	if cmd.ID == "" {
		cmd.ID = "cmd_" + uuid.New().String()
	}
	cmd.CreatedAt = time.Now().Unix()

	params, err := json.Marshal(cmd.Params)
	if err != nil {
		return err
	}

	var cmdErr sql.NullString
	if cmd.Error != "" {
		cmdErr = sql.NullString{String: cmd.Error, Valid: true}
	}

	query := `
		INSERT INTO command_log (id, device_sn, cmd_code, params, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, cmd.ID, cmd.DeviceSN, cmd.CmdCode, string(params), cmd.Status, cmdErr, cmd.CreatedAt)
	return err
}

func (r *CommandRepository) ListByDevice(sn string, limit int) ([]*models.Command, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, device_sn, cmd_code, params, status, error, created_at FROM command_log WHERE device_sn = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.Query(query, sn, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []*models.Command
	for rows.Next() {
		var c models.Command
		var params string
		var cmdErr sql.NullString
		if err := rows.Scan(&c.ID, &c.DeviceSN, &c.CmdCode, &params, &c.Status, &cmdErr, &c.CreatedAt); err != nil {
			return nil, err
		}
		if cmdErr.Valid {
			c.Error = cmdErr.String
		}
		if err := decodeJSONColumn(params, &c.Params); err != nil {
			return nil, err
		}
		commands = append(commands, &c)
	}
	return commands, rows.Err()
}

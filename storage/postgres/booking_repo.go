package postgres

import (
	"context"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type bookingRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewBookingRepo(db *pgxpool.Pool, log logger.ILogger) storage.IBookingStorage {
	return &bookingRepo{db: db, log: log}
}

const bookingColumns = `id, chat_id, patient_name, contact_number, emergency_type, lat, lon, success, plate, driver_name, distance_km, eta_min, error, created_at`

func (r *bookingRepo) Create(ctx context.Context, b *models.BookingReceipt) (*models.BookingReceipt, error) {
	query := `
		INSERT INTO booking_receipts (chat_id, patient_name, contact_number, emergency_type, lat, lon, success, plate, driver_name, distance_km, eta_min, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		b.ChatID,
		b.PatientName,
		b.ContactNumber,
		string(b.EmergencyType),
		b.Lat,
		b.Lon,
		b.Success,
		b.Plate,
		b.DriverName,
		b.DistanceKm,
		b.EtaMin,
		b.Error,
	).Scan(&b.ID, &b.CreatedAt)

	if err != nil {
		r.log.Error("failed to create booking receipt", logger.Error(err))
		return nil, err
	}

	return b, nil
}

func (r *bookingRepo) GetRecent(ctx context.Context, limit int) ([]*models.BookingReceipt, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_receipts ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *bookingRepo) GetByChat(ctx context.Context, chatID int64, limit int) ([]*models.BookingReceipt, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_receipts WHERE chat_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]*models.BookingReceipt, error) {
	defer rows.Close()

	var out []*models.BookingReceipt
	for rows.Next() {
		var b models.BookingReceipt
		var emergencyType string
		if err := rows.Scan(
			&b.ID,
			&b.ChatID,
			&b.PatientName,
			&b.ContactNumber,
			&emergencyType,
			&b.Lat,
			&b.Lon,
			&b.Success,
			&b.Plate,
			&b.DriverName,
			&b.DistanceKm,
			&b.EtaMin,
			&b.Error,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.EmergencyType = models.EmergencyType(emergencyType)
		out = append(out, &b)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// ErrLegacyOverrideNotFound is returned when a ticket has no active rows in
// either legacy table.
var ErrLegacyOverrideNotFound = errors.New("legacy override not found")

// LegacyOverrideRepo reads and retires the flat pre-hierarchy tables. The
// service never writes new rows here; migration scripts populated the
// tables once and admins only retire entries so the hierarchy takes over.
type LegacyOverrideRepo struct {
	db *sql.DB
}

// NewLegacyOverrideRepo constructs a LegacyOverrideRepo with the given DB
// handle.
func NewLegacyOverrideRepo(db *sql.DB) *LegacyOverrideRepo {
	return &LegacyOverrideRepo{db: db}
}

// GetMarkupByTicket returns the ticket's active flat markup, or
// ErrLegacyOverrideNotFound when the ticket has none.
func (r *LegacyOverrideRepo) GetMarkupByTicket(ctx context.Context, ticketID uint64) (*model.LegacyTicketMarkup, error) {
	const q = `SELECT ticket_id, markup_type, markup_amount, is_active, created_at
	           FROM legacy_ticket_markups WHERE ticket_id = ? AND is_active = 1`
	var m model.LegacyTicketMarkup
	err := r.db.QueryRowContext(ctx, q, ticketID).
		Scan(&m.TicketID, &m.MarkupType, &m.MarkupAmount, &m.IsActive, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLegacyOverrideNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListHospitalitiesByTicket returns the ticket's active flat hospitality
// grants. An empty slice means the ticket has none.
func (r *LegacyOverrideRepo) ListHospitalitiesByTicket(ctx context.Context, ticketID uint64) ([]model.LegacyTicketHospitality, error) {
	const q = `SELECT id, ticket_id, hospitality_id, is_active, created_at
	           FROM legacy_ticket_hospitalities WHERE ticket_id = ? AND is_active = 1`
	rows, err := r.db.QueryContext(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LegacyTicketHospitality
	for rows.Next() {
		var h model.LegacyTicketHospitality
		if err := rows.Scan(&h.ID, &h.TicketID, &h.HospitalityID, &h.IsActive, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RetireByTicket deactivates the ticket's rows in both legacy tables in one
// transaction, so a half-retired override can never price a ticket. Returns
// how many markup rows and hospitality rows were retired, or
// ErrLegacyOverrideNotFound when the ticket had no active rows at all.
func (r *LegacyOverrideRepo) RetireByTicket(ctx context.Context, ticketID uint64) (markups int64, hospitalities int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE legacy_ticket_markups SET is_active = 0 WHERE ticket_id = ? AND is_active = 1`, ticketID)
	if err != nil {
		return 0, 0, err
	}
	markups, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `UPDATE legacy_ticket_hospitalities SET is_active = 0 WHERE ticket_id = ? AND is_active = 1`, ticketID)
	if err != nil {
		return 0, 0, err
	}
	hospitalities, _ = res.RowsAffected()

	if markups == 0 && hospitalities == 0 {
		return 0, 0, ErrLegacyOverrideNotFound
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return markups, hospitalities, nil
}

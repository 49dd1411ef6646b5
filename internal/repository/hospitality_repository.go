package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// ErrHospitalityNotFound is returned when a catalog lookup yields no rows.
var ErrHospitalityNotFound = errors.New("hospitality not found")

// HospitalityRepo provides CRUD on the hospitality catalog. The catalog is
// small and read-heavy; assignments reference it by id only.
type HospitalityRepo struct {
	db *sql.DB
}

// NewHospitalityRepo constructs a HospitalityRepo with the given DB handle.
func NewHospitalityRepo(db *sql.DB) *HospitalityRepo {
	return &HospitalityRepo{db: db}
}

const hospitalityColumns = "id, name, description, sort_order, is_active, created_at, updated_at"

func scanHospitality(sc interface{ Scan(dest ...any) error }) (*model.Hospitality, error) {
	var (
		h    model.Hospitality
		desc sql.NullString
	)
	if err := sc.Scan(&h.ID, &h.Name, &desc, &h.SortOrder, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		h.Description = &d
	}
	return &h, nil
}

// Create inserts a new catalog entry. On success the entry's ID and
// timestamps are populated. Duplicate names surface as the driver's 1062
// error for the handler to translate.
func (r *HospitalityRepo) Create(ctx context.Context, h *model.Hospitality) error {
	const q = `INSERT INTO hospitalities (name, description, sort_order) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Description, h.SortOrder)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	const sel = "SELECT " + hospitalityColumns + " FROM hospitalities WHERE id = ?"
	fresh, err := scanHospitality(r.db.QueryRowContext(ctx, sel, h.ID))
	if err != nil {
		return err
	}
	*h = *fresh
	return nil
}

// GetByID retrieves one catalog entry regardless of its active flag.
func (r *HospitalityRepo) GetByID(ctx context.Context, id uint64) (*model.Hospitality, error) {
	const q = "SELECT " + hospitalityColumns + " FROM hospitalities WHERE id = ?"
	h, err := scanHospitality(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHospitalityNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListActive returns the storefront view of the catalog in display order.
func (r *HospitalityRepo) ListActive(ctx context.Context) ([]model.Hospitality, error) {
	const q = "SELECT " + hospitalityColumns + ` FROM hospitalities WHERE is_active = 1 ORDER BY sort_order, name`
	return r.list(ctx, q)
}

// ListAll returns the admin view of the catalog including inactive entries.
func (r *HospitalityRepo) ListAll(ctx context.Context) ([]model.Hospitality, error) {
	const q = "SELECT " + hospitalityColumns + ` FROM hospitalities ORDER BY sort_order, name`
	return r.list(ctx, q)
}

func (r *HospitalityRepo) list(ctx context.Context, q string) ([]model.Hospitality, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Hospitality
	for rows.Next() {
		h, err := scanHospitality(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites a catalog entry. Returns ErrHospitalityNotFound when the
// id does not exist.
func (r *HospitalityRepo) Update(ctx context.Context, id uint64, name string, description *string, sortOrder uint32, isActive bool) (*model.Hospitality, error) {
	const q = `UPDATE hospitalities SET name = ?, description = ?, sort_order = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, sortOrder, isActive, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero for a no-op update, so confirm the row
		// is actually missing before reporting not found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft-deletes a catalog entry. Existing assignments keep
// referencing the row; storefront listings simply stop showing it.
func (r *HospitalityRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE hospitalities SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHospitalityNotFound
	}
	return nil
}

// ExistsActive reports whether an active catalog entry has this id. Used
// to validate assignment writes.
func (r *HospitalityRepo) ExistsActive(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT 1 FROM hospitalities WHERE id = ? AND is_active = 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

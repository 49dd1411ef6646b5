package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// ErrAssignmentNotFound is returned when an assignment lookup yields no rows.
var ErrAssignmentNotFound = errors.New("hospitality assignment not found")

// assignmentColumns is the scan order shared by every SELECT in this file.
const assignmentColumns = "id, level, sport_type, tournament_id, team_id, event_id, ticket_id, hospitality_id, is_active, created_at, updated_at"

// HospitalityAssignmentRepo encapsulates all database queries on
// hospitality_assignments. Unlike markup rules a scope may hold many
// active assignments; uniqueness is per (level, scope, hospitality_id).
type HospitalityAssignmentRepo struct {
	db *sql.DB
}

// NewHospitalityAssignmentRepo constructs a repo with the given DB handle.
func NewHospitalityAssignmentRepo(db *sql.DB) *HospitalityAssignmentRepo {
	return &HospitalityAssignmentRepo{db: db}
}

func scanAssignment(sc interface{ Scan(dest ...any) error }) (*model.HospitalityAssignment, error) {
	var (
		a          model.HospitalityAssignment
		tournament sql.NullInt64
		team       sql.NullInt64
		event      sql.NullInt64
		ticket     sql.NullInt64
	)
	if err := sc.Scan(
		&a.ID, &a.Level, &a.SportType, &tournament, &team, &event, &ticket,
		&a.HospitalityID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.TournamentID = nullableID(tournament)
	a.TeamID = nullableID(team)
	a.EventID = nullableID(event)
	a.TicketID = nullableID(ticket)
	return &a, nil
}

// FindCandidates returns every active assignment stored at a level the
// scope can address. The union and dedup happen in the pricing package.
func (r *HospitalityAssignmentRepo) FindCandidates(ctx context.Context, s model.Scope) ([]model.HospitalityAssignment, error) {
	cond, args := candidateWhere(s)
	if cond == "" {
		return nil, nil
	}
	q := "SELECT " + assignmentColumns + " FROM hospitality_assignments WHERE is_active = 1 AND (" + cond + ")"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.HospitalityAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// List returns assignments matching the filter plus the unpaginated total.
func (r *HospitalityAssignmentRepo) List(ctx context.Context, f RuleFilter) ([]model.HospitalityAssignment, int64, error) {
	where := []string{}
	args := []any{}
	if !f.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if f.Level != "" {
		where = append(where, "level = ?")
		args = append(args, string(f.Level))
	}
	if f.SportType != "" {
		where = append(where, "sport_type = ?")
		args = append(args, f.SportType)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hospitality_assignments WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 || size > 200 {
		size = 50
	}
	q := "SELECT " + assignmentColumns + " FROM hospitality_assignments WHERE " + cond + " ORDER BY id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []model.HospitalityAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// upsertTx inserts the assignment unless an identical active grant already
// exists, in which case the existing row is returned unchanged (the row
// carries no payload beyond the hospitality reference, so the operation is
// idempotent). Locking mirrors the markup upsert.
func (r *HospitalityAssignmentRepo) upsertTx(ctx context.Context, tx *sql.Tx, a *model.HospitalityAssignment) (bool, error) {
	args := append(scopeArgs(a.Level, a.Scope()), a.HospitalityID)

	lockQ := "SELECT id FROM hospitality_assignments WHERE " + scopeWhere + " AND hospitality_id = ? AND is_active = 1 FOR UPDATE"
	var existingID uint64
	err := tx.QueryRowContext(ctx, lockQ, args...).Scan(&existingID)

	created := false
	switch {
	case err == nil:
		a.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		const ins = `INSERT INTO hospitality_assignments (level, sport_type, tournament_id, team_id, event_id, ticket_id, hospitality_id, is_active)
		             VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
		res, err := tx.ExecContext(ctx, ins, args...)
		if err != nil {
			return false, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		a.ID = uint64(id)
		created = true
	default:
		return false, err
	}

	const sel = "SELECT " + assignmentColumns + " FROM hospitality_assignments WHERE id = ?"
	fresh, err := scanAssignment(tx.QueryRowContext(ctx, sel, a.ID))
	if err != nil {
		return false, err
	}
	*a = *fresh
	return created, nil
}

// Upsert applies one create-or-reuse in its own transaction. See upsertTx.
func (r *HospitalityAssignmentRepo) Upsert(ctx context.Context, a *model.HospitalityAssignment) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created, err := r.upsertTx(ctx, tx, a)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return created, nil
}

// UpsertBatch applies a set of grants in one transaction, rolling all of
// them back on the first failure.
func (r *HospitalityAssignmentRepo) UpsertBatch(ctx context.Context, as []model.HospitalityAssignment) (inserted int64, existing int64, err error) {
	if len(as) == 0 {
		return 0, 0, nil
	}
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

	for i := range as {
		created, err := r.upsertTx(ctx, tx, &as[i])
		if err != nil {
			return 0, 0, err
		}
		if created {
			inserted++
		} else {
			existing++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return inserted, existing, nil
}

// UpdateByID re-points a grant at another hospitality and/or flips its
// active flag. Scope keys are immutable. Returns ErrConflict when the
// change would duplicate an existing active grant at the same scope.
func (r *HospitalityAssignmentRepo) UpdateByID(ctx context.Context, id uint64, hospitalityID uint64, isActive bool) (*model.HospitalityAssignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = "SELECT " + assignmentColumns + " FROM hospitality_assignments WHERE id = ? FOR UPDATE"
	cur, err := scanAssignment(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if isActive {
		lockQ := "SELECT id FROM hospitality_assignments WHERE " + scopeWhere + " AND hospitality_id = ? AND is_active = 1 AND id <> ? FOR UPDATE"
		var otherID uint64
		err := tx.QueryRowContext(ctx, lockQ, append(scopeArgs(cur.Level, cur.Scope()), hospitalityID, id)...).Scan(&otherID)
		if err == nil {
			return nil, ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	const upd = `UPDATE hospitality_assignments SET hospitality_id = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, hospitalityID, isActive, id); err != nil {
		return nil, err
	}

	const selBack = "SELECT " + assignmentColumns + " FROM hospitality_assignments WHERE id = ?"
	fresh, err := scanAssignment(tx.QueryRowContext(ctx, selBack, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return fresh, nil
}

// DeactivateByID soft-deletes a grant; the row stays for audit.
func (r *HospitalityAssignmentRepo) DeactivateByID(ctx context.Context, id uint64) error {
	const q = `UPDATE hospitality_assignments SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ReplaceAtScope atomically swaps the active grant set at one exact scope
// for the given hospitality ids. Locking and visibility follow the markup
// variant; duplicate ids in the new set collapse to one row each.
func (r *HospitalityAssignmentRepo) ReplaceAtScope(ctx context.Context, level model.Level, scope model.Scope, hospitalityIDs []uint64) (deleted int64, inserted int64, err error) {
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

	args := scopeArgs(level, scope)
	deactQ := "UPDATE hospitality_assignments SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE " + scopeWhere + " AND is_active = 1"
	res, err := tx.ExecContext(ctx, deactQ, args...)
	if err != nil {
		return 0, 0, err
	}
	deleted, _ = res.RowsAffected()

	seen := make(map[uint64]bool, len(hospitalityIDs))
	unique := make([]uint64, 0, len(hospitalityIDs))
	for _, hid := range hospitalityIDs {
		if !seen[hid] {
			seen[hid] = true
			unique = append(unique, hid)
		}
	}

	if len(unique) > 0 {
		ins := "INSERT INTO hospitality_assignments (level, sport_type, tournament_id, team_id, event_id, ticket_id, hospitality_id, is_active) VALUES "
		insArgs := make([]any, 0, len(unique)*7)
		for i, hid := range unique {
			if i > 0 {
				ins += ","
			}
			ins += "(?, ?, ?, ?, ?, ?, ?, 1)"
			insArgs = append(insArgs, scopeArgs(level, scope)...)
			insArgs = append(insArgs, hid)
		}
		if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
			return 0, 0, err
		}
		inserted = int64(len(unique))
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return deleted, inserted, nil
}

// DeleteAtScope soft-deactivates every active grant at one exact scope.
func (r *HospitalityAssignmentRepo) DeleteAtScope(ctx context.Context, level model.Level, scope model.Scope) (int64, error) {
	q := "UPDATE hospitality_assignments SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE " + scopeWhere + " AND is_active = 1"
	res, err := r.db.ExecContext(ctx, q, scopeArgs(level, scope)...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

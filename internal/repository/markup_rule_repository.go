// Package repository keeps all SQL behind small per-table types.
// This file covers the markup_rules table: candidate lookup for resolution,
// admin CRUD, and the transactional scope operations behind batch edits.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// ErrMarkupRuleNotFound is returned when a markup rule lookup yields no rows.
var ErrMarkupRuleNotFound = errors.New("markup rule not found")

// markupColumns is the scan order shared by every SELECT in this file.
const markupColumns = "id, level, sport_type, tournament_id, team_id, event_id, ticket_id, markup_type, markup_amount, is_active, created_at, updated_at"

// MarkupRuleRepo encapsulates all database queries on markup rules. It
// depends on a sql.DB connection pool configured at startup.
type MarkupRuleRepo struct {
	db *sql.DB
}

// NewMarkupRuleRepo constructs a MarkupRuleRepo with the given DB handle.
func NewMarkupRuleRepo(db *sql.DB) *MarkupRuleRepo {
	return &MarkupRuleRepo{db: db}
}

// scanMarkupRule reads one row in markupColumns order from a row or rows
// handle.
func scanMarkupRule(sc interface{ Scan(dest ...any) error }) (*model.MarkupRule, error) {
	var (
		r          model.MarkupRule
		tournament sql.NullInt64
		team       sql.NullInt64
		event      sql.NullInt64
		ticket     sql.NullInt64
	)
	if err := sc.Scan(
		&r.ID, &r.Level, &r.SportType, &tournament, &team, &event, &ticket,
		&r.MarkupType, &r.MarkupAmount, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.TournamentID = nullableID(tournament)
	r.TeamID = nullableID(team)
	r.EventID = nullableID(event)
	r.TicketID = nullableID(ticket)
	return &r, nil
}

// FindCandidates returns every active rule stored at a level the scope can
// address, in one SELECT. Winner selection happens in the pricing package;
// this method only narrows the table to the rows a resolution may consider.
func (r *MarkupRuleRepo) FindCandidates(ctx context.Context, s model.Scope) ([]model.MarkupRule, error) {
	cond, args := candidateWhere(s)
	if cond == "" {
		return nil, nil
	}
	q := "SELECT " + markupColumns + " FROM markup_rules WHERE is_active = 1 AND (" + cond + ")"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MarkupRule
	for rows.Next() {
		rule, err := scanMarkupRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RuleFilter narrows admin list queries. Zero values mean no filter;
// IncludeInactive keeps superseded rows in the result for audit views.
type RuleFilter struct {
	Level           model.Level
	SportType       string
	IncludeInactive bool
	Page            int
	PageSize        int
}

// List returns rules matching the filter plus the unpaginated total.
func (r *MarkupRuleRepo) List(ctx context.Context, f RuleFilter) ([]model.MarkupRule, int64, error) {
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
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM markup_rules WHERE "+cond, args...).Scan(&total); err != nil {
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
	q := "SELECT " + markupColumns + " FROM markup_rules WHERE " + cond + " ORDER BY id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []model.MarkupRule
	for rows.Next() {
		rule, err := scanMarkupRule(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// upsertTx inserts the rule, or updates the existing active rule when its
// exact (level, scope) is already occupied. The SELECT ... FOR UPDATE
// serializes concurrent upserts of the same scope; a unique index cannot
// enforce this because the optional scope columns are NULLable. The rule is
// re-read inside the transaction so callers get populated timestamps.
// Returns true when a new row was inserted.
func (r *MarkupRuleRepo) upsertTx(ctx context.Context, tx *sql.Tx, rule *model.MarkupRule) (bool, error) {
	args := scopeArgs(rule.Level, rule.Scope())

	lockQ := "SELECT id FROM markup_rules WHERE " + scopeWhere + " AND is_active = 1 FOR UPDATE"
	var existingID uint64
	err := tx.QueryRowContext(ctx, lockQ, args...).Scan(&existingID)

	created := false
	switch {
	case err == nil:
		const upd = `UPDATE markup_rules SET markup_type = ?, markup_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
		if _, err := tx.ExecContext(ctx, upd, string(rule.MarkupType), rule.MarkupAmount, existingID); err != nil {
			return false, err
		}
		rule.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		const ins = `INSERT INTO markup_rules (level, sport_type, tournament_id, team_id, event_id, ticket_id, markup_type, markup_amount, is_active)
		             VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`
		res, err := tx.ExecContext(ctx, ins, append(args, string(rule.MarkupType), rule.MarkupAmount)...)
		if err != nil {
			return false, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		rule.ID = uint64(id)
		created = true
	default:
		return false, err
	}

	const sel = "SELECT " + markupColumns + " FROM markup_rules WHERE id = ?"
	fresh, err := scanMarkupRule(tx.QueryRowContext(ctx, sel, rule.ID))
	if err != nil {
		return false, err
	}
	*rule = *fresh
	return created, nil
}

// Upsert applies one create-or-update in its own transaction. See upsertTx.
func (r *MarkupRuleRepo) Upsert(ctx context.Context, rule *model.MarkupRule) (bool, error) {
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

	created, err := r.upsertTx(ctx, tx, rule)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return created, nil
}

// UpsertBatch applies a set of upserts in one transaction: each entry lands
// at its own scope, updating in place when that scope already holds an
// active rule. On any failure the whole batch rolls back and no scope is
// touched.
func (r *MarkupRuleRepo) UpsertBatch(ctx context.Context, rules []model.MarkupRule) (inserted int64, updated int64, err error) {
	if len(rules) == 0 {
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

	for i := range rules {
		created, err := r.upsertTx(ctx, tx, &rules[i])
		if err != nil {
			return 0, 0, err
		}
		if created {
			inserted++
		} else {
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return inserted, updated, nil
}

// UpdateByID rewrites a rule's payload fields in place. Scope keys are
// immutable once a rule exists; moving a rule is a delete plus a create.
// Reactivating a rule returns ErrConflict when its scope has gained a
// different active rule in the meantime.
func (r *MarkupRuleRepo) UpdateByID(ctx context.Context, id uint64, markupType model.MarkupType, amount decimal.Decimal, isActive bool) (*model.MarkupRule, error) {
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

	const sel = "SELECT " + markupColumns + " FROM markup_rules WHERE id = ? FOR UPDATE"
	cur, err := scanMarkupRule(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMarkupRuleNotFound
		}
		return nil, err
	}

	if isActive && !cur.IsActive {
		lockQ := "SELECT id FROM markup_rules WHERE " + scopeWhere + " AND is_active = 1 AND id <> ? FOR UPDATE"
		var otherID uint64
		err := tx.QueryRowContext(ctx, lockQ, append(scopeArgs(cur.Level, cur.Scope()), id)...).Scan(&otherID)
		if err == nil {
			return nil, ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	const upd = `UPDATE markup_rules SET markup_type = ?, markup_amount = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, string(markupType), amount, isActive, id); err != nil {
		return nil, err
	}

	const selBack = "SELECT " + markupColumns + " FROM markup_rules WHERE id = ?"
	fresh, err := scanMarkupRule(tx.QueryRowContext(ctx, selBack, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return fresh, nil
}

// DeactivateByID soft-deletes a rule; the row stays for audit. Returns
// ErrMarkupRuleNotFound when no active rule has this id.
func (r *MarkupRuleRepo) DeactivateByID(ctx context.Context, id uint64) error {
	const q = `UPDATE markup_rules SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMarkupRuleNotFound
	}
	return nil
}

// ReplaceAtScope atomically swaps the active rule set at one exact scope.
// The deactivating UPDATE takes exclusive locks on the scope's index range
// (gap locks included), so concurrent replaces of the same scope serialize
// and resolve last-committed-wins, never an interleaved merge. Readers on
// the default isolation level see the old set until commit. Incoming rows
// contribute only markup_type and markup_amount; the target scope fixes
// everything else. The single-active-rule invariant caps the new set at one
// entry.
func (r *MarkupRuleRepo) ReplaceAtScope(ctx context.Context, level model.Level, scope model.Scope, rules []model.MarkupRule) (deleted int64, inserted int64, err error) {
	if len(rules) > 1 {
		return 0, 0, ErrConflict
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

	args := scopeArgs(level, scope)
	deactQ := "UPDATE markup_rules SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE " + scopeWhere + " AND is_active = 1"
	res, err := tx.ExecContext(ctx, deactQ, args...)
	if err != nil {
		return 0, 0, err
	}
	deleted, _ = res.RowsAffected()

	if len(rules) > 0 {
		ins := "INSERT INTO markup_rules (level, sport_type, tournament_id, team_id, event_id, ticket_id, markup_type, markup_amount, is_active) VALUES "
		insArgs := make([]any, 0, len(rules)*8)
		for i, rule := range rules {
			if i > 0 {
				ins += ","
			}
			ins += "(?, ?, ?, ?, ?, ?, ?, ?, 1)"
			insArgs = append(insArgs, scopeArgs(level, scope)...)
			insArgs = append(insArgs, string(rule.MarkupType), rule.MarkupAmount)
		}
		if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
			return 0, 0, err
		}
		inserted = int64(len(rules))
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return deleted, inserted, nil
}

// DeleteAtScope soft-deactivates every active rule at one exact scope. A
// single UPDATE keeps the operation atomic without an explicit transaction.
func (r *MarkupRuleRepo) DeleteAtScope(ctx context.Context, level model.Level, scope model.Scope) (int64, error) {
	q := "UPDATE markup_rules SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE " + scopeWhere + " AND is_active = 1"
	res, err := r.db.ExecContext(ctx, q, scopeArgs(level, scope)...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dont-get-fat/internal/mealplan"
)

// HistoryEntry is a plan committed in the past.
type HistoryEntry struct {
	ID        string
	UserID    string
	Plan      *mealplan.MealPlan
	CreatedAt time.Time
}

// PlanRepository keeps a history of committed plans per user.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts plan into the user's history and returns its id.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *mealplan.MealPlan) (string, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meal plan: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plan_history (id, user_id, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, string(data), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to save meal plan for user %s: %w", userID, err)
	}
	return id, nil
}

// Get returns a single history entry, or nil when id is unknown.
func (r *PlanRepository) Get(ctx context.Context, id string) (*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, plan_data, created_at FROM plan_history WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan %s: %w", id, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, plan_data, created_at FROM plan_history
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]HistoryEntry, error) {
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e    HistoryEntry
			data string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meal plan %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"dont-get-fat/internal/app"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/profile"
)

// ProfileStore reads and writes profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Upsert(ctx context.Context, p *profile.Profile) error
}

// PlanHistory lists and loads past plans.
type PlanHistory interface {
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]planner.HistoryEntry, error)
	Get(ctx context.Context, id string) (*planner.HistoryEntry, error)
}

// ImageGenerator renders meal pictures.
type ImageGenerator interface {
	GenerateAll(ctx context.Context, mealNames []string) (map[string]*string, error)
}

// MetricsStore reports and prunes execution metrics.
type MetricsStore interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	Cleanup(olderThanDays int) (int64, error)
}

// TokenIssuer signs API tokens.
type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (string, error)
}

// App holds everything the commands run against. Optional parts may be nil; the
// commands that need them report that they are unavailable.
type App struct {
	UserID   string
	Session  *app.Session
	Profiles ProfileStore
	History  PlanHistory
	Images   ImageGenerator
	Metrics  MetricsStore
	Tokens   TokenIssuer
	DataDir  string

	// Serve runs the HTTP API until ctx is cancelled.
	Serve func(ctx context.Context) error

	// IsInteractive reports whether confirmations can be asked on stdin.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "meal-planner" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "meal-planner",
		Short:         "Meal plans and grocery lists from your food preferences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(a),
		newProfileCmd(a),
		newPlanCmd(a),
		newGroceryCmd(a),
		newImagesCmd(a),
		newTokenCmd(a),
		newMetricsCmd(a),
	)

	return root
}

func parseRefs(args []string) ([]mealplan.MealRef, error) {
	return mealplan.ParseMealRefs(args)
}

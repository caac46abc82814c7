package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dont-get-fat/internal/app"
)

func newServeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Serve == nil {
				return errors.New("the HTTP API is not available")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
}

func newImagesCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "images [meal name]...",
		Short: "Generate pictures for meals; defaults to every meal of the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Images == nil {
				return errors.New("image generation is not available")
			}

			names := args
			if len(names) == 0 {
				names = planMealNames(a)
			}
			if len(names) == 0 {
				return errors.New("no meals to illustrate; generate a plan first")
			}

			images, err := a.Images.GenerateAll(cmd.Context(), names)
			if err != nil {
				return errors.New(app.UserMessage(err))
			}

			keys := make([]string, 0, len(images))
			for k := range images {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, name := range keys {
				if url := images[name]; url != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, *url)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: (failed)\n", name)
				}
			}
			return nil
		},
	}
}

func planMealNames(a *App) []string {
	plan := a.Session.Plan()
	if plan == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			if meal.Name == "" || seen[meal.Name] {
				continue
			}
			seen[meal.Name] = true
			names = append(names, meal.Name)
		}
	}
	return names
}

func newTokenCmd(a *App) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user id]",
		Short: "Issue an API token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Tokens == nil {
				return errors.New("AUTH_JWT_SECRET is not set")
			}
			userID := a.UserID
			if len(args) == 1 {
				userID = args[0]
			}
			token, err := a.Tokens.Issue(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

func newMetricsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect LLM token usage",
	}

	var usageDays int
	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show daily token usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Metrics == nil {
				return errors.New("metrics are not available")
			}
			rows, err := a.Metrics.GetDailyUsage(usageDays)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatUsage(rows))
			return nil
		},
	}
	usage.Flags().IntVar(&usageDays, "days", 7, "Days to report")

	var keepDays int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Metrics == nil {
				return errors.New("metrics are not available")
			}
			n, err := a.Metrics.Cleanup(keepDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d metric rows older than %d days.\n", n, keepDays)
			return nil
		},
	}
	cleanup.Flags().IntVar(&keepDays, "days", 30, "Keep metrics from the last N days")

	cmd.AddCommand(usage, cleanup)
	return cmd
}


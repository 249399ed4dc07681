package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/dmlog/internal/clock"
	"github.com/example/dmlog/internal/config"
	"github.com/example/dmlog/internal/db"
	"github.com/example/dmlog/internal/migrate"
	"github.com/example/dmlog/internal/record"
	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect logged DM records (non-UI)",
	}
	cmd.AddCommand(newRecordListCmd())
	cmd.AddCommand(newRecordCountCmd())
	return cmd
}

func newRecordListCmd() *cobra.Command {
	var worker, date string

	c := &cobra.Command{
		Use:   "list",
		Short: "List a worker's records for a day (default today, JST)",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, d, err := openRepo()
			if err != nil {
				return err
			}
			defer d.Close()

			if date == "" {
				date = clock.DateOf(clock.Now())
			}
			recs, err := repo.ListForDay(context.Background(), worker, date)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(os.Stdout, "id=%d sent_at=%s link=%s type=%q followers=%q champagne=%t tower=%t\n",
					r.ID, r.SentAt.In(clock.JST).Format(time.RFC3339), r.AccountLink,
					r.BusinessType, r.FollowerRange, r.HasChampagne, r.HasChampagneTower)
			}
			return nil
		},
	}

	c.Flags().StringVar(&worker, "worker", "", "worker display name")
	c.Flags().StringVar(&date, "date", "", "day YYYY-MM-DD (JST)")
	_ = c.MarkFlagRequired("worker")
	return c
}

func newRecordCountCmd() *cobra.Command {
	var worker, date string

	c := &cobra.Command{
		Use:   "count",
		Short: "Show a worker's count for a day (default today, JST)",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, d, err := openRepo()
			if err != nil {
				return err
			}
			defer d.Close()

			if date == "" {
				date = clock.DateOf(clock.Now())
			}
			n, err := repo.CountForDay(context.Background(), worker, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s: %d\n", worker, date, n)
			return nil
		},
	}

	c.Flags().StringVar(&worker, "worker", "", "worker display name")
	c.Flags().StringVar(&date, "date", "", "day YYYY-MM-DD (JST)")
	_ = c.MarkFlagRequired("worker")
	return c
}

func openRepo() (*record.Repo, *db.DB, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return record.NewRepo(d), d, nil
}

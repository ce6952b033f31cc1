package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/transit-complaints/backend/internal/app"
	"github.com/transit-complaints/backend/internal/models"
)

func newPrioritizeCmd(opts *options) *cobra.Command {
	var (
		snap     models.ComplaintSnapshot
		occurred string
	)
	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Classify a complaint without storing it",
		Long: `Runs the complaint through the same engine the server uses, honoring the
aiPrioritization flag, and prints the resulting analysis as JSON.`,
		Example: `  complaintctl prioritize --title "Bus skipped stop" --description "Driver did not stop at Main St" --category service`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap.DateTime = time.Now().UTC()
			if occurred != "" {
				t, err := time.Parse(time.RFC3339, occurred)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				snap.DateTime = t
			}

			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			engine := app.NewEngine(cmd.Context(), rt.cfg, rt.gate, nil, rt.logger)
			return printJSON(cmd, engine.Prioritize(cmd.Context(), snap))
		},
	}

	f := cmd.Flags()
	f.StringVar(&snap.Title, "title", "", "complaint title")
	f.StringVar(&snap.Description, "description", "", "complaint description")
	f.StringVar(&snap.Category, "category", "other", "one of service, safety, accessibility, cleanliness, staff, vehicle, schedule, other")
	f.StringVar(&snap.Location, "location", "", "where it happened")
	f.StringVar(&snap.VehicleNumber, "vehicle", "", "vehicle number")
	f.StringVar(&occurred, "at", "", "incident time, RFC3339 (default now)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

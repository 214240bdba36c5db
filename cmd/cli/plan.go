package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/wanderplan/internal/advisor"
	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/calendar"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/notify"
	"github.com/yourorg/wanderplan/internal/routing"
	"github.com/yourorg/wanderplan/internal/session"
	"github.com/yourorg/wanderplan/internal/timeline"
)

// planned is a loaded trip read in a concrete zone.
type planned struct {
	id   session.Identity
	trip models.TripWithItems
	loc  *time.Location
	days []timeline.Day
}

func load(ctx context.Context, tripFlag, tz string) (*planned, error) {
	id, err := state.identity(ctx)
	if err != nil {
		return nil, err
	}
	tripID, err := state.tripID(ctx, id, tripFlag)
	if err != nil {
		return nil, err
	}
	trip, err := state.store.GetTrip(ctx, id.UserID, tripID)
	if err != nil {
		return nil, err
	}
	loc := state.zones.ForItems(trip.Items)
	if tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, apperr.Invalid("tz", "unknown time zone %q", tz)
		}
	}
	return &planned{id: id, trip: trip, loc: loc, days: timeline.ProjectTrip(trip, loc)}, nil
}

// day returns the items of one trip day, in start order.
func (p *planned) day(raw string) (models.Date, []models.TripItem, error) {
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, nil, apperr.Invalid("day", "must be a YYYY-MM-DD date")
	}
	for _, d := range p.days {
		if d.Date == date {
			items := append([]models.TripItem(nil), d.Items...)
			timeline.SortByStart(items)
			return date, items, nil
		}
	}
	return models.Date{}, nil, apperr.Invalid("day", "%s is outside %s..%s", date, p.trip.StartDate, p.trip.EndDate)
}

func timelineCmd() *cobra.Command {
	var trip, tz string
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the trip day by day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := load(cmd.Context(), trip, tz)
			if err != nil {
				return err
			}
			titleColor.Printf("%s  (%s)\n", p.trip.Title, p.loc)
			printDays(p.days, p.loc, timeline.Unscheduled(p.trip.Items))
			return nil
		},
	}
	cmd.Flags().StringVar(&trip, "trip", "", "trip id (defaults to the active trip)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA zone to read the days in")
	return cmd
}

func optimizeCmd() *cobra.Command {
	var trip, tz, day string
	var apply bool
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Ask for a better visiting order for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := load(ctx, trip, tz)
			if err != nil {
				return err
			}
			date, items, err := p.day(day)
			if err != nil {
				return err
			}

			client := advisor.NewClient(state.cfg.OptimizerURL, p.id.Token)
			suggestion, err := client.SuggestOrder(ctx, items, date)
			if err != nil {
				return err
			}
			printNotice(notify.Suggestion(suggestion))
			if suggestion == nil || suggestion.Savings.DistanceKm <= 0 {
				return nil
			}
			titles := make(map[string]string, len(items))
			for _, it := range items {
				titles[it.ID] = it.Title
			}
			for i, itemID := range suggestion.OptimizedOrder {
				fmt.Printf("   %d. %s\n", i+1, titles[itemID])
			}

			if !apply && !confirm("Apply this order?") {
				return nil
			}
			reordered, err := state.store.ApplyOrder(ctx, p.id.UserID, p.trip.ID, suggestion.OptimizedOrder)
			if err != nil {
				return err
			}
			printNotice(notify.Notice{Level: notify.Success, Title: "Order applied", Message: fmt.Sprintf("%d items rescheduled.", len(reordered))})
			return nil
		},
	}
	cmd.Flags().StringVar(&trip, "trip", "", "trip id (defaults to the active trip)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA zone to read the days in")
	cmd.Flags().StringVar(&day, "day", "", "day to optimize, YYYY-MM-DD")
	cmd.Flags().BoolVarP(&apply, "yes", "y", false, "apply without asking")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func routeCmd() *cobra.Command {
	var trip, tz, day string
	var reorder bool
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute directions through one day's places",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := load(ctx, trip, tz)
			if err != nil {
				return err
			}
			_, items, err := p.day(day)
			if err != nil {
				return err
			}

			client := routing.NewClient(state.cfg.DirectionsURL, p.id.Token)
			result, err := client.ComputeRoute(ctx, routing.StopsFromItems(items), reorder)
			if err != nil {
				return err
			}
			printNotice(notify.Route(result))
			for i, leg := range result.Legs {
				fmt.Printf("   %s -> %s  %.1f km, %.0f min\n", result.Stops[i].Title, result.Stops[i+1].Title,
					leg.DistanceMeters/1000, leg.DurationSeconds/60)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&trip, "trip", "", "trip id (defaults to the active trip)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA zone to read the days in")
	cmd.Flags().StringVar(&day, "day", "", "day to route, YYYY-MM-DD")
	cmd.Flags().BoolVar(&reorder, "reorder", false, "let the provider reorder intermediate stops")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func exportCmd() *cobra.Command {
	var trip, tz, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the trip as an iCalendar file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := load(cmd.Context(), trip, tz)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("trip-%s.ics", p.trip.ID)
			}
			if err := os.WriteFile(out, []byte(calendar.Export(p.trip.Trip, p.trip.Items, p.loc)), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			printNotice(notify.Notice{Level: notify.Success, Title: "Exported", Message: out})
			return nil
		},
	}
	cmd.Flags().StringVar(&trip, "trip", "", "trip id (defaults to the active trip)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA zone for day numbering")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

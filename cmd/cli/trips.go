package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/notify"
)

func tripsCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List your trips",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := state.identity(ctx)
			if err != nil {
				return err
			}
			f := models.TripFilter{Search: strings.TrimSpace(search)}
			if status != "" {
				s := models.TripStatus(status)
				f.Status = &s
			}
			trips, err := state.store.ListTrips(ctx, id.UserID, f)
			if err != nil {
				return err
			}
			if f.Status == nil && f.Search == "" {
				if err := state.session.Refresh(ctx, trips); err != nil {
					return err
				}
			}
			if len(trips) == 0 {
				printNotice(notify.Notice{Level: notify.Info, Title: "No trips", Message: "Create one with `wanderplan new-trip`."})
				return nil
			}
			active := state.session.ActiveTripID()
			for _, t := range trips {
				printTrip(t, t.ID == active)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "draft, active, completed or cancelled")
	cmd.Flags().StringVarP(&search, "query", "q", "", "match title or destination")
	return cmd
}

func newTripCmd() *cobra.Command {
	var (
		in                    models.CreateTripInput
		start, end, dest, cur string
		budget                float64
		use                   bool
	)
	cmd := &cobra.Command{
		Use:   "new-trip",
		Short: "Create a draft trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := state.identity(ctx)
			if err != nil {
				return err
			}
			if in.StartDate, err = models.ParseDate(start); err != nil {
				return apperr.Invalid("start", "must be a YYYY-MM-DD date")
			}
			if in.EndDate, err = models.ParseDate(end); err != nil {
				return apperr.Invalid("end", "must be a YYYY-MM-DD date")
			}
			if dest != "" {
				in.Destination = &dest
			}
			if cur != "" {
				in.Currency = &cur
			}
			if cmd.Flags().Changed("budget") {
				in.Budget = &budget
			}
			trip, err := state.store.CreateTrip(ctx, id.UserID, in)
			if err != nil {
				return err
			}
			printTrip(trip, false)
			if use {
				if err := state.session.Sync(ctx, state.store, id.UserID); err != nil {
					return err
				}
				return state.session.SetActiveTrip(ctx, trip.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "trip title")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&dest, "destination", "", "destination")
	cmd.Flags().StringVar(&cur, "currency", "", "ISO 4217 currency code")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().BoolVar(&use, "use", false, "make it the active trip")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func addItemCmd() *cobra.Command {
	var (
		trip, kind, title, start, end, place, address string
		lat, lng                                      float64
	)
	cmd := &cobra.Command{
		Use:   "add-item",
		Short: "Attach an activity, booking or note to a trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := state.identity(ctx)
			if err != nil {
				return err
			}
			tripID, err := state.tripID(ctx, id, trip)
			if err != nil {
				return err
			}
			in := models.CreateItemInput{ItemType: models.ItemType(kind), Title: title}
			if in.StartAt, err = optionalTime("start", start); err != nil {
				return err
			}
			if in.EndAt, err = optionalTime("end", end); err != nil {
				return err
			}
			if place != "" {
				in.LocationName = &place
			}
			if address != "" {
				in.Address = &address
			}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				in.Latitude, in.Longitude = &lat, &lng
			}
			item, err := state.store.AddItem(ctx, id.UserID, tripID, in)
			if err != nil {
				return err
			}
			printNotice(notify.Notice{Level: notify.Success, Title: "Added", Message: fmt.Sprintf("%s %q (%s)", item.ItemType.Info().Label, item.Title, item.ID)})
			return nil
		},
	}
	cmd.Flags().StringVar(&trip, "trip", "", "trip id (defaults to the active trip)")
	cmd.Flags().StringVar(&kind, "type", string(models.ItemActivity), "apartment, car, restaurant, event, activity, transport or note")
	cmd.Flags().StringVarP(&title, "title", "t", "", "title")
	cmd.Flags().StringVar(&start, "start", "", "start time, RFC 3339")
	cmd.Flags().StringVar(&end, "end", "", "end time, RFC 3339")
	cmd.Flags().StringVar(&place, "place", "", "location name")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <trip-id>",
		Short: "Select the active trip; an empty id clears it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := state.identity(ctx)
			if err != nil {
				return err
			}
			if err := state.session.Sync(ctx, state.store, id.UserID); err != nil {
				return err
			}
			tripID := ""
			if len(args) == 1 {
				tripID = args[0]
			}
			if err := state.session.SetActiveTrip(ctx, tripID); err != nil {
				return err
			}
			if trip := state.session.ActiveTrip(); trip != nil {
				printTrip(*trip, true)
			} else {
				printNotice(notify.Notice{Level: notify.Info, Title: "Cleared", Message: "No trip is active."})
			}
			return nil
		},
	}
}

func activeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := state.identity(ctx)
			if err != nil {
				return err
			}
			if err := state.session.Sync(ctx, state.store, id.UserID); err != nil {
				return err
			}
			trip := state.session.ActiveTrip()
			if trip == nil {
				printNotice(notify.Notice{Level: notify.Info, Title: "No active trip", Message: "Pick one with `wanderplan use <id>`."})
				return nil
			}
			printTrip(*trip, true)
			return nil
		},
	}
}

func optionalTime(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Invalid(field, "must be an RFC 3339 time such as 2025-06-10T09:00:00+01:00")
	}
	return &t, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/spf13/cobra"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/cache"
	"github.com/yourorg/wanderplan/internal/config"
	appdb "github.com/yourorg/wanderplan/internal/db"
	"github.com/yourorg/wanderplan/internal/itinerary"
	"github.com/yourorg/wanderplan/internal/notify"
	"github.com/yourorg/wanderplan/internal/session"
	"github.com/yourorg/wanderplan/internal/timeline"
)

// app is what every command works against, opened once per invocation.
type app struct {
	cfg      *config.Config
	db       *dbx.DB
	storage  *session.SQLiteStorage
	session  *session.Session
	store    *itinerary.Store
	accounts *accounts.Service
	zones    *timeline.ZoneResolver
}

var state app

func main() {
	root := &cobra.Command{
		Use:           "wanderplan",
		Short:         "Plan trips, lay them out by day and tidy up each day's route",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			state.close()
		},
	}
	root.AddCommand(
		registerCmd(), loginCmd(), logoutCmd(),
		tripsCmd(), newTripCmd(), addItemCmd(), useCmd(), activeCmd(),
		timelineCmd(), optimizeCmd(), routeCmd(), exportCmd(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		printNotice(notify.FromError(err))
		os.Exit(1)
	}
}

func (a *app) open(ctx context.Context) error {
	a.cfg = config.Load()

	secret, err := accounts.ResolveSecret(a.cfg.JWTSecret, a.cfg.IsProduction())
	if err != nil {
		return err
	}
	a.db, err = appdb.Open(a.cfg.DB)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	if err := appdb.EnsureSchema(a.db, a.cfg.DB.SkipSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	a.storage, err = session.OpenSQLiteStorage(a.cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	a.session = session.New(a.storage)
	if err := a.session.Init(ctx); err != nil {
		return err
	}

	a.store = itinerary.NewStore(a.db, cache.New(a.cfg.CacheTTL, 2*a.cfg.CacheTTL))
	a.accounts = accounts.NewService(a.db, secret, a.cfg.TokenTTL)
	a.zones = timeline.NewZoneResolver()
	return nil
}

func (a *app) close() {
	if a.storage != nil {
		a.storage.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// identity returns the signed-in user or an AuthorizationError.
func (a *app) identity(ctx context.Context) (session.Identity, error) {
	id, ok, err := a.session.Identity(ctx)
	if err != nil {
		return session.Identity{}, err
	}
	if !ok || (!id.ExpiresAt.IsZero() && time.Now().After(id.ExpiresAt)) {
		return session.Identity{}, &apperr.AuthorizationError{Action: "use", Resource: "session"}
	}
	return id, nil
}

// tripID picks the --trip flag, else the active trip after a refresh.
func (a *app) tripID(ctx context.Context, id session.Identity, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if err := a.session.Sync(ctx, a.store, id.UserID); err != nil {
		return "", err
	}
	if trip := a.session.ActiveTrip(); trip != nil {
		return trip.ID, nil
	}
	return "", apperr.Invalid("trip", "no active trip, pass --trip or run `wanderplan use <id>`")
}

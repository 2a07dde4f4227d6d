package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/recipe-box-service/internal/config"
	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
	httpapi "github.com/fairyhunter13/recipe-box-service/internal/http"
	"github.com/fairyhunter13/recipe-box-service/internal/nutrition"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
	"github.com/fairyhunter13/recipe-box-service/internal/queue"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
	"github.com/fairyhunter13/recipe-box-service/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Runs the recipe HTTP server. Configuration comes from the environment,
an optional .env file and the TOML file named by RECIPEBOX_CONFIG.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		obs.InitLogger(cfg.LogLevel)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		lis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", cfg.HTTPAddr, err)
		}
		return Serve(ctx, cfg, lis)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// OpenStore opens the SQLite store at cfg.DBPath, or a memory store when
// no path is set, and seeds it when configured.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	var st store.Store
	if cfg.DBPath == "" {
		st = store.NewMemory()
	} else {
		s, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		st = s
	}
	if cfg.SeedRecipes {
		n, err := store.Seed(ctx, st)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if n > 0 {
			obs.Logger.Info("store_seeded", "recipes", n)
		}
	}
	return st, nil
}

// Serve runs the server on lis until ctx is cancelled, then drains the
// nutrition queue and shuts the server down.
func Serve(ctx context.Context, cfg config.Config, lis net.Listener) error {
	obs.Logger.Info("service_starting", "version", version)

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	guard, err := csrf.New(cfg.CSRFSecret)
	if err != nil {
		return err
	}
	if cfg.CSRFSecret == "" {
		obs.Logger.Warn("csrf_secret_generated", "hint", "set CSRF_SECRET to keep tokens valid across restarts")
	}

	var mgr *queue.Manager
	if cfg.NutritionEnabled() {
		proc := &nutrition.Processor{
			Store: st,
			Analyzer: nutrition.NewEdamamClient(nutrition.EdamamConfig{
				Endpoint:          cfg.EdamamEndpoint,
				AppID:             cfg.EdamamAppID,
				AppKey:            cfg.EdamamAPIKey,
				RequestsPerSecond: cfg.EdamamRPS,
			}),
		}
		mgr = queue.NewManager(cfg, queue.New(128), proc)
		mgr.Start(context.WithoutCancel(ctx))
		defer mgr.Stop()
	} else {
		obs.Logger.Info("nutrition_disabled", "reason", "EDAMAM_APP_ID or EDAMAM_API_KEY not set")
	}

	app := httpapi.NewApp(cfg, st, mgr, guard)
	srv := &http.Server{
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs.Logger.Info("http_listen", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		obs.Logger.Info("shutdown_begin")
		app.StartShutdown()
		if mgr != nil {
			obs.Logger.Info("shutdown_drain_begin", "backlog_size", mgr.BacklogSize(), "worker_count", mgr.WorkerCount())
			ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancelDrain()
			if drained := mgr.DrainUntil(ctxDrain); !drained {
				obs.Logger.Warn("shutdown_drain_timeout")
			} else {
				obs.Logger.Info("shutdown_drain_complete")
			}
		}
		ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSrv()
		if err := srv.Shutdown(ctxSrv); err != nil {
			obs.Logger.Error("http_shutdown_error", "error", err)
			return err
		}
		return nil
	})
	err = g.Wait()
	obs.Logger.Info("service_stopped")
	return err
}

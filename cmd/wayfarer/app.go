package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"wayfarer/pkg/addressbook"
	"wayfarer/pkg/awsutil"
	"wayfarer/pkg/config"
	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/geocoder/fts"
	"wayfarer/pkg/geocoder/ner"
	"wayfarer/pkg/geocoder/prefix"
	"wayfarer/pkg/probe"
	"wayfarer/pkg/queue"
	"wayfarer/pkg/routing"
	"wayfarer/pkg/rpc"
	"wayfarer/pkg/services"
	"wayfarer/pkg/sources"
	"wayfarer/pkg/spatial"
	"wayfarer/pkg/store"
	"wayfarer/pkg/worker"
)

// app owns the process-wide engines, built once at startup and read-only
// afterwards.
type app struct {
	cfg  *config.Config
	role config.Role

	world     *spatial.World
	pool      *routing.Pool
	backend   geocoder.Backend
	scheduler *queue.Scheduler
	trips     *store.Trips
	accounts  *store.Accounts
	locations *store.Locations

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, role config.Role) (*app, error) {
	a := &app{cfg: cfg, role: role}

	clients, err := awsutil.New(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	a.scheduler = queue.NewScheduler(clients.SQS, clients.Queues.PendingRoutes)
	a.trips = store.NewTrips(clients.DynamoDB, clients.Tables.Trips)
	a.accounts = store.NewAccounts(clients.DynamoDB, clients.Tables.Accounts)
	a.locations = store.NewLocations(clients.DynamoDB, clients.Tables.Locations)

	fetcher := sources.NewFetcher(clients.S3, "")
	if err := a.buildRegions(ctx, fetcher); err != nil {
		return nil, err
	}
	return a, nil
}

// buildRegions fetches every enabled region's data and assembles the
// locator, the geocoding backend and the routing pool. A region data
// failure is fatal.
func (a *app) buildRegions(ctx context.Context, fetcher *sources.Fetcher) error {
	mode, err := config.ParseGeocoderMode(a.cfg.Geocoder.Mode)
	if err != nil {
		return err
	}
	algo, err := config.ParseAlgorithm(a.cfg.Routing.Algorithm)
	if err != nil {
		return err
	}

	a.world = spatial.NewWorld()
	a.pool = routing.NewPool()
	books := make(map[string]string)

	for _, region := range a.cfg.EnabledRegions() {
		started := time.Now()

		polyPath, err := fetcher.Fetch(ctx, region.Poly)
		if err != nil {
			return fmt.Errorf("region %s: fetching poly: %w", region.Name, err)
		}
		r, err := spatial.LoadRegion(polyPath, region.Name)
		if err != nil {
			return fmt.Errorf("region %s: %w", region.Name, err)
		}
		if err := a.world.Insert(r); err != nil {
			return fmt.Errorf("region %s: %w", region.Name, err)
		}

		if source := region.AddressBook[mode.String()]; source != "" {
			bookPath, err := fetcher.Fetch(ctx, source)
			if err != nil {
				return fmt.Errorf("region %s: fetching address book: %w", region.Name, err)
			}
			books[region.Name] = bookPath
		}

		if archive := region.Archive(algo); archive != "" {
			archivePath, err := fetcher.Fetch(ctx, archive)
			if err != nil {
				return fmt.Errorf("region %s: fetching engine archive: %w", region.Name, err)
			}
			dest := filepath.Join(os.TempDir(), "wayfarer-osrm", region.Name)
			if err := sources.ExtractTarBz2(archivePath, dest); err != nil {
				return fmt.Errorf("region %s: %w", region.Name, err)
			}
		}
		if region.OSRM.URL != "" {
			a.pool.AddEngine(region.Name, routing.NewOSRMEngine(region.OSRM.URL))
		}

		slog.Info("region ready", "region", region.Name,
			"algorithm", algo.String(), "elapsed", time.Since(started))
	}

	backend, err := a.buildBackend(mode, books)
	if err != nil {
		return err
	}
	a.backend = backend
	return nil
}

func (a *app) buildBackend(mode config.GeocoderMode, books map[string]string) (geocoder.Backend, error) {
	switch mode {
	case config.ModeMemory:
		backend := prefix.New()
		for region, path := range books {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("opening address book for %s: %w", region, err)
			}
			buildings, err := addressbook.ReadCSV(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("reading address book for %s: %w", region, err)
			}
			backend.AddRegion(region)
			for _, b := range buildings {
				if err := backend.Insert(region, b); err != nil {
					return nil, fmt.Errorf("indexing address book for %s: %w", region, err)
				}
			}
			slog.Info("address book indexed", "region", region, "buildings", backend.Size(region))
		}
		backend.Seal()
		return backend, nil
	default:
		backend, err := fts.Open(books)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, backend.Close)
		return backend, nil
	}
}

// Run executes the selected role until the context ends. RoleNone returns
// right away: config and data are already proven loadable.
func (a *app) Run(ctx context.Context) error {
	if a.role == config.RoleNone {
		slog.Info("data fetch complete", "regions", a.world.Len())
		return nil
	}

	if err := probe.Analyze(probe.Run(ctx, a.startupProbes())); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	errc := make(chan error, 2)
	running := 0

	if a.role.Has(config.RoleWorker) {
		running++
		pool := worker.NewPool(a.scheduler, a.pool, a.trips, a.cfg.Routing.WorkerConcurrency)
		go func() {
			pool.Run(ctx)
			errc <- nil
		}()
	}

	if a.role.Has(config.RoleRPC) {
		running++
		server, guard, err := a.buildServer(ctx)
		if err != nil {
			return err
		}
		go guard.Run(ctx)
		go func() {
			slog.Info("front end listening", "addr", server.Addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- err
				return
			}
			errc <- nil
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutting down front end", "error", err)
			}
		}()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		slog.Info("shutting down", "role", a.role.String())
		for i := 0; i < running; i++ {
			<-errc
		}
		return nil
	}
}

// startupProbes verifies the external dependencies the selected role talks
// to. Queue and trip store are load-bearing for both roles; the labeling
// model only degrades geocoding, so its failure is not fatal.
func (a *app) startupProbes() []probe.Probe {
	probes := []probe.Probe{
		{
			Name: "queue",
			Check: func(ctx context.Context) error {
				_, err := a.scheduler.PendingCount(ctx)
				return err
			},
			Critical: true,
		},
		{
			Name: "trip store",
			Check: func(ctx context.Context) error {
				_, err := a.trips.Get(ctx, "00000000-0000-0000-0000-000000000000")
				return err
			},
			Critical: true,
		},
	}
	if a.role.Has(config.RoleRPC) && a.cfg.Geocoder.NER != "" {
		labeler := ner.NewClient(a.cfg.Geocoder.NER)
		probes = append(probes, probe.Probe{
			Name: "labeling model",
			Check: func(ctx context.Context) error {
				_, err := labeler.Label(ctx, "Wiejska 18")
				return err
			},
		})
	}
	return probes
}

func (a *app) buildServer(ctx context.Context) (*http.Server, *rpc.Guard, error) {
	if a.cfg.Geocoder.NER == "" {
		return nil, nil, fmt.Errorf("rpc role needs geocoder.ner configured")
	}
	guard, err := rpc.NewGuard(ctx, a.cfg.RPC.Auth)
	if err != nil {
		return nil, nil, err
	}

	decomposer := geocoder.NewDecomposer(ner.NewClient(a.cfg.Geocoder.NER))
	deps := services.Deps{
		World:        a.world,
		Geocoder:     geocoder.New(a.world, decomposer, a.backend),
		Pool:         a.pool,
		Scheduler:    a.scheduler,
		Trips:        a.trips,
		Accounts:     a.accounts,
		Locations:    a.locations,
		MaxWaypoints: a.cfg.Routing.MaxWaypoints,
		Token:        a.cfg.Auth,
	}
	dispatcher := rpc.NewDispatcher(services.Register(deps))

	addr := net.JoinHostPort(a.cfg.RPC.Address, strconv.Itoa(a.cfg.RPC.Port))
	return rpc.NewServer(addr, guard, dispatcher), guard, nil
}

func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			slog.Error("closing resource", "error", err)
		}
	}
}

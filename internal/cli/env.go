package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/config"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/lock"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
	"github.com/pgEdge/pgedge-boxoffice/internal/ratelimit"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			logging.Info().Msg("Received shutdown signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// startMetrics serves Prometheus metrics in the background when an
// address is configured.
func startMetrics(ctx context.Context, c *config.Config) {
	if c.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, c.Metrics.Addr); err != nil {
			logging.Warn().Err(err).Str("addr", c.Metrics.Addr).Msg("Metrics server stopped")
		}
	}()
}

func settingsFromConfig(c *config.Config) entities.Settings {
	s := entities.DefaultSettings()
	s.Workers = c.Extract.Workers
	s.MovieChunkSize = c.Extract.MovieChunkSize
	s.PeopleChunkSize = c.Extract.PeopleChunkSize
	s.CollectionChunkSize = c.Extract.CollectionChunkSize
	s.VideoChunkSize = c.Extract.VideoChunkSize
	s.MaxDaysDiff = c.Match.MaxDaysDiff
	s.CollectionCutoffYear = c.Clean.CollectionCutoffYear
	s.BoxOfficeStartYear = c.BoxOffice.StartYear
	s.DiscoverFromYear = c.TMDB.DiscoverFromYear
	s.DiscoverToYear = c.TMDB.DiscoverToYear
	return s
}

func retryConfig(c *config.Config) ratelimit.Config {
	rc := ratelimit.DefaultConfig()
	rc.RequestsPerSec = c.Extract.RequestsPerSecond
	rc.MaxRetries = c.Extract.MaxRetries
	rc.InitialBackoff = time.Duration(c.Extract.InitialBackoffMs) * time.Millisecond
	rc.MaxBackoff = time.Duration(c.Extract.MaxBackoffMs) * time.Millisecond
	return rc
}

// openStore connects to object storage and creates both snapshot buckets.
func openStore(ctx context.Context, c *config.Config) (*blobstore.MinioStore, error) {
	store, err := blobstore.NewMinio(blobstore.MinioConfig{
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		Secure:    c.Storage.Secure,
		Region:    c.Storage.Region,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBuckets(ctx, c.Storage.RawBucket, c.Storage.UpdateBucket); err != nil {
		return nil, err
	}
	return store, nil
}

// openWarehouse connects to PostgreSQL. Table writes are serialized
// across processes through file locks in the configured lock directory.
func openWarehouse(ctx context.Context, c *config.Config) (*warehouse.Warehouse, func(), error) {
	pool, err := warehouse.Connect(ctx, c.Connection)
	if err != nil {
		return nil, nil, err
	}
	locker, err := lock.New(c.LockDir)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return warehouse.New(pool, c.Dataset, warehouse.WithLocker(locker)), pool.Close, nil
}

// buildEnv assembles the pipeline environment. API clients are only
// created when withSources is set, so runs over stored snapshots need no
// credentials.
func buildEnv(ctx context.Context, c *config.Config, withSources bool) (*entities.Env, func(), error) {
	wh, closeWarehouse, err := openWarehouse(ctx, c)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(ctx, c)
	if err != nil {
		closeWarehouse()
		return nil, nil, err
	}

	env := &entities.Env{
		Warehouse:    wh,
		Store:        store,
		RawBucket:    c.Storage.RawBucket,
		UpdateBucket: c.Storage.UpdateBucket,
		Settings:     settingsFromConfig(c),
	}

	if withSources {
		if err := attachSources(env, c); err != nil {
			closeWarehouse()
			return nil, nil, err
		}
	}

	return env, closeWarehouse, nil
}

// attachSources creates the API clients. TMDB and BoxOfficeMojo share the
// steady request rate; the video APIs additionally pause every PaceEvery
// requests.
func attachSources(env *entities.Env, c *config.Config) error {
	httpClient := &http.Client{Timeout: time.Duration(c.Extract.TimeoutSeconds) * time.Second}
	retry := retryConfig(c)

	common := func(limiter *ratelimit.Limiter) []sources.RequesterOption {
		return []sources.RequesterOption{
			sources.WithHTTPClient(httpClient),
			sources.WithLimiter(limiter),
			sources.WithRetry(retry),
		}
	}

	paced := retry
	paced.PaceEvery = c.Extract.PaceEvery
	paced.PaceCooldown = time.Duration(c.Extract.PaceCooldownSeconds) * time.Second

	tmdbClient, err := tmdb.New(c.TMDB.Token, c.TMDB.BaseURL, c.TMDB.Language,
		common(ratelimit.New(retry))...)
	if err != nil {
		return fmt.Errorf("failed to create tmdb client: %w", err)
	}
	boxOfficeClient, err := boxoffice.New(c.BoxOffice.BaseURL, common(ratelimit.New(retry))...)
	if err != nil {
		return fmt.Errorf("failed to create boxoffice client: %w", err)
	}
	youtubeClient, err := youtube.New(c.YouTube.APIKey, c.YouTube.BaseURL, common(ratelimit.New(paced))...)
	if err != nil {
		return fmt.Errorf("failed to create youtube client: %w", err)
	}
	vimeoClient, err := vimeo.New(c.Vimeo.Token, c.Vimeo.BaseURL, common(ratelimit.New(paced))...)
	if err != nil {
		return fmt.Errorf("failed to create vimeo client: %w", err)
	}

	env.TMDB = tmdbClient
	env.BoxOffice = boxOfficeClient
	env.YouTube = youtubeClient
	env.Vimeo = vimeoClient
	return nil
}

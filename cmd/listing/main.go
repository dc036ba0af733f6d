package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/matst80/slask-gallery/pkg/cache"
	"github.com/matst80/slask-gallery/pkg/catalog"
	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/listing"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/server"
	"github.com/matst80/slask-gallery/pkg/tracking"
	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
)

type app struct {
	cfg      config
	resolver *resolver.Resolver
	catalog  catalog.CatalogFetcher
	curated  catalog.CuratedFetcher
	cache    *cache.Cache
	tracker  types.Tracking
	conn     *amqp.Connection
}

func (a *app) loadResolver() error {
	a.resolver = resolver.NewDefaultResolver()
	if a.cfg.resolverConfig == "" {
		return nil
	}
	c, err := resolver.LoadConfig(a.cfg.resolverConfig)
	if err != nil {
		return err
	}
	a.resolver = resolver.NewResolver(c)
	return nil
}

func (a *app) connectSources() error {
	switch a.cfg.catalogSource {
	case "memory":
		m, err := catalog.LoadMemoryCatalog(a.cfg.catalogFile, a.resolver)
		if err != nil {
			return err
		}
		log.Printf("Serving catalog from %s", a.cfg.catalogFile)
		a.catalog = m
		a.curated = m
	case "storefront":
		client := &http.Client{Timeout: 10 * time.Second}
		a.catalog = catalog.NewStorefrontClient(a.cfg.storefrontUrl, a.cfg.storefrontToken, client)
		if a.cfg.contentUrl != "" {
			a.curated = catalog.NewContentClient(a.cfg.contentUrl, client)
		} else {
			log.Println("No CONTENT_URL set, the curated stage will be empty")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", a.cfg.catalogSource)
	}
	return nil
}

func (a *app) connectCache() {
	if a.cfg.redisUrl == "" {
		return
	}
	c := cache.NewCache(a.cfg.redisUrl, a.cfg.redisPassword, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		log.Printf("Redis not reachable, pages will be cached once it is: %v", err)
	}
	a.cache = c
	cached := cache.NewFetcher(c, a.catalog, a.curated, a.cfg.cacheTtl)
	a.catalog = cached
	if a.curated != nil {
		a.curated = cached
	}
	log.Printf("Caching catalog pages in redis for %v", a.cfg.cacheTtl)
}

func (a *app) connectAmqp() {
	if a.cfg.rabbitHost == "" {
		return
	}
	trk, err := tracking.NewRabbitTracking(a.cfg.rabbitHost, a.cfg.prefix)
	if err != nil {
		log.Printf("Failed to connect to rabbitmq for tracking: %v", err)
	} else {
		a.tracker = trk
	}

	conn, err := amqp.DialConfig(a.cfg.rabbitHost, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		log.Printf("Failed to connect to RabbitMQ: %v", err)
		return
	}
	a.conn = conn
	ch, err := conn.Channel()
	if err != nil {
		log.Printf("Failed to open a channel: %v", err)
		return
	}
	if err = messaging.DefineTopic(ch, a.cfg.prefix, messaging.CatalogChanged); err != nil {
		log.Printf("Failed to declare catalog topic: %v", err)
		return
	}
	err = messaging.ListenForCatalogChanges(ch, a.cfg.prefix, a.onCatalogChange)
	if err != nil {
		log.Printf("Failed to listen for catalog changes: %v", err)
		return
	}
	log.Printf("Listening for catalog changes")
}

func (a *app) onCatalogChange(change messaging.CatalogChange) error {
	log.Printf("Catalog changed (%s), %d handles", change.Reason, len(change.Handles))
	if a.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	version, err := a.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	log.Printf("Cache moved to version %d", version)
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			log.Printf("Failed to close tracking: %v", err)
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			log.Printf("Failed to close rabbitmq connection: %v", err)
		}
	}
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

func evictSessions(ctx context.Context, store *server.SessionStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Evict(); n > 0 {
				log.Printf("Evicted %d idle sessions", n)
			}
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	a := &app{cfg: loadConfig()}
	if err := a.loadResolver(); err != nil {
		log.Fatalf("Failed to load resolver config: %v", err)
	}
	if err := a.connectSources(); err != nil {
		log.Fatalf("Failed to set up catalog source: %v", err)
	}
	a.connectCache()
	a.connectAmqp()

	loader := listing.NewLoader(a.curated, a.catalog, a.resolver)
	loader.CuratedLimit = a.cfg.curatedLimit
	ws := server.NewListingServer(loader, a.tracker)
	ws.PageSize = a.cfg.pageSize

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go evictSessions(ctx, ws.Sessions)

	debug := http.NewServeMux()
	debug.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	debug.Handle("/metrics", promhttp.Handler())

	timeouts := common.LoadTimeoutConfig(common.DefaultTimeoutConfig())
	common.RunServicesWithShutdown([]common.Service{
		{Name: "listing api", Server: common.NewServerWithTimeouts(a.cfg.listenAddress, ws.Handle(), timeouts)},
		{Name: "debug", Server: common.NewServerWithTimeouts(a.cfg.debugAddress, debug, timeouts)},
	}, timeouts.Shutdown, timeouts.Hook, func(ctx context.Context) error {
		cancel()
		return nil
	}, a.close)
}

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/matst80/slask-gallery/pkg/cache"
	"github.com/matst80/slask-gallery/pkg/listing"
	"github.com/matst80/slask-gallery/pkg/types"
)

type config struct {
	listenAddress   string
	debugAddress    string
	catalogSource   string
	catalogFile     string
	storefrontUrl   string
	storefrontToken string
	contentUrl      string
	resolverConfig  string
	redisUrl        string
	redisPassword   string
	rabbitHost      string
	prefix          string
	pageSize        int
	curatedLimit    int
	cacheTtl        time.Duration
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func loadConfig() config {
	cfg := config{
		listenAddress:   getEnv("LISTEN_ADDRESS", ":8080"),
		debugAddress:    getEnv("DEBUG_ADDRESS", ":8081"),
		catalogSource:   getEnv("CATALOG_SOURCE", "storefront"),
		catalogFile:     getEnv("CATALOG_FILE", "data/catalog.json"),
		storefrontUrl:   os.Getenv("STOREFRONT_URL"),
		storefrontToken: os.Getenv("STOREFRONT_TOKEN"),
		contentUrl:      os.Getenv("CONTENT_URL"),
		resolverConfig:  os.Getenv("RESOLVER_CONFIG"),
		redisUrl:        os.Getenv("REDIS_URL"),
		redisPassword:   os.Getenv("REDIS_PASSWORD"),
		rabbitHost:      os.Getenv("RABBIT_HOST"),
		prefix:          getEnv("TOPIC_PREFIX", "gallery"),
		pageSize:        min(getEnvInt("PAGE_SIZE", types.DefaultPageSize), types.MaxPageSize),
		curatedLimit:    getEnvInt("CURATED_LIMIT", listing.DefaultCuratedLimit),
		cacheTtl:        time.Duration(getEnvInt("CACHE_TTL", int(cache.DefaultTTL/time.Second))) * time.Second,
	}
	if cfg.storefrontUrl == "" && cfg.catalogSource == "storefront" {
		cfg.catalogSource = "memory"
	}
	return cfg
}

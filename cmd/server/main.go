package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"turbodriver/internal/auth"
	"turbodriver/internal/control"
	"turbodriver/internal/storage"
)

const snapshotRingCapacity = 500

func main() {
	addr := envOrDefault("HTTP_ADDR", ":8080")
	env := envOrDefault("ENV", "dev")

	store, idemDB, authStore, identityDB, authTTL := initStore(env)
	sweepQueues := initSweepQueues()

	reg := control.NewRegistry()
	hub := control.NewRunHub()
	go hub.Run()

	r := chi.NewRouter()
	control.AttachRoutes(r, reg, hub, authStore, identityDB, authTTL, store, idemDB, sweepQueues, snapshotRingCapacity)

	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("turbosim control plane listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func initStore(env string) (*storage.Postgres, *storage.IdempotencyStore, *auth.InMemoryStore, *storage.IdentityStore, time.Duration) {
	dbURL := os.Getenv("DATABASE_URL")
	authEnabled := envOrDefault("AUTH_MODE", "memory")
	authTTL := parseDuration(envOrDefault("AUTH_TTL", "720h"))
	idemTTL := parseDuration(envOrDefault("IDEMPOTENCY_TTL", "30m"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		pg      *storage.Postgres
		idemDB  *storage.IdempotencyStore
		authMem *auth.InMemoryStore
		idDB    *storage.IdentityStore
	)

	if dbURL != "" {
		pool, err := storage.DefaultPool(ctx, dbURL)
		if err != nil {
			log.Printf("database connection failed, falling back to in-memory: %v", err)
			if env == "prod" {
				log.Fatal("DATABASE_URL required in prod")
			}
		} else if err := storage.EnsureSchema(ctx, pool); err != nil {
			log.Printf("schema init failed, falling back to in-memory: %v", err)
			if env == "prod" {
				log.Fatal("schema init required in prod")
			}
		} else {
			log.Printf("using PostgreSQL persistence")
			pg = storage.NewPostgres(pool)
			idemDB = storage.NewIdempotencyStore(pool, idemTTL)
			idDB = storage.NewIdentityStore(pool)
			if err := idDB.EnsureSchema(ctx); err != nil {
				log.Printf("identity schema init failed: %v", err)
				idDB = nil
			}
		}
	}

	if authEnabled == "memory" {
		authMem = auth.NewInMemoryStore()
		log.Printf("auth: in-memory token issuance enabled")
		if idDB != nil {
			seedIdentities(ctx, idDB, authMem)
		}
	}

	return pg, idemDB, authMem, idDB, authTTL
}

func initSweepQueues() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable, sweep endpoints disabled: %v", err)
		return nil
	}
	log.Printf("sweep queue backed by redis at %s", addr)
	return client
}

func parseDuration(val string) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}

func seedIdentities(ctx context.Context, db *storage.IdentityStore, mem *auth.InMemoryStore) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	all, err := db.All(ctx)
	if err != nil {
		log.Printf("failed to preload identities: %v", err)
		return
	}
	for _, ident := range all {
		mem.Seed(ident)
	}
}

package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

// --- Variables Globales ---
var (
	Scylla *gocql.Session
	Redis  *redis.Client
)

// ConnectDatabases initialise ScyllaDB et Redis au démarrage.
// Redis est optionnel (cache/rate-limit), ScyllaDB est obligatoire :
// le registre des checkouts y vit.
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := connectScylla(); err != nil {
		log.Fatalf("❌ Échec initialisation ScyllaDB: %v", err)
	}

	connectRedis(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

func connectScylla() error {
	hosts := strings.Split(os.Getenv("SCYLLA_HOSTS"), ",")
	keyspace := os.Getenv("SCYLLA_KEYSPACE")
	if keyspace == "" {
		keyspace = "ks_checkout"
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.Consistency = gocql.Quorum
	// Les CAS du registre utilisent le consensus par défaut (SERIAL)

	if username := os.Getenv("SCYLLA_USERNAME"); username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: username,
			Password: os.Getenv("SCYLLA_PASSWORD"),
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("session keyspace %s: %v", keyspace, err)
	}

	// Note: les tables sont créées via scripts/scylladb_init.cql
	Scylla = session
	log.Printf("✅ ScyllaDB connecté (keyspace %s)", keyspace)
	return nil
}

func connectRedis(ctx context.Context) {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		log.Println("⚠️  REDIS_HOST non configuré — cache prix et rate-limit désactivés")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:         redisHost,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis injoignable (%v) — on continue sans cache", err)
		Redis = nil
		return
	}
	log.Println("✅ Redis connecté avec succès")
}

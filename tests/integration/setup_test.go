// Package integration contains integration tests for the liquidation
// risk terminal.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle
// - WebSocket tests: connection, broadcast messaging
// - Database tests: schema, repositories, transactions
//
// Tests skip automatically when no PostgreSQL instance is reachable, so
// the unit suite stays runnable without external dependencies.
// Configure the target database via TEST_DB_* environment variables.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"liqcalc/internal/api"
	"liqcalc/internal/engine"
	"liqcalc/internal/models"
	"liqcalc/internal/repository"
	"liqcalc/internal/service"
	"liqcalc/internal/websocket"
	"liqcalc/pkg/utils"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB       *sql.DB
	Router   *mux.Router
	Server   *httptest.Server
	Hub      *websocket.Hub
	Quotes   *engine.QuoteBook
	Repos    *TestRepositories
	Services *TestServices
	Cleanup  func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	Position     *repository.PositionRepository
	Settings     *repository.SettingsRepository
	Notification *repository.NotificationRepository
}

// TestServices contains all service instances for testing
type TestServices struct {
	Risk         *service.RiskService
	Position     *service.PositionService
	Settings     *service.SettingsService
	Notification *service.NotificationService
}

// fixtureParams implements service.ParamsProvider with a static snapshot.
// The real marketdata.ParamsCache needs a live upstream; integration tests
// only need a deterministic record per pair index.
type fixtureParams struct {
	params map[int]models.MarketLiquidityParams
}

func (f *fixtureParams) Get(_ context.Context, pairIndex int) (models.MarketLiquidityParams, bool) {
	p, ok := f.params[pairIndex]
	return p, ok
}

// newFixtureParams returns liquidity parameters for the test markets.
// Pair 0 is a deep liquid book, pair 1 a thinner one, pair 2 carries no
// depth or open-interest data at all (degraded-source scenario).
func newFixtureParams() *fixtureParams {
	return &fixtureParams{
		params: map[int]models.MarketLiquidityParams{
			0: {
				PairIndex:            0,
				BaseSpread:           0.0002,
				OnePercentDepthAbove: 5_000_000,
				OnePercentDepthBelow: 4_500_000,
				OpenInterestLong:     40_000_000,
				OpenInterestShort:    35_000_000,
			},
			1: {
				PairIndex:            1,
				BaseSpread:           0.0005,
				OnePercentDepthAbove: 800_000,
				OnePercentDepthBelow: 700_000,
				OpenInterestLong:     6_000_000,
				OpenInterestShort:    7_500_000,
			},
			2: {
				PairIndex:  2,
				BaseSpread: 0.0004,
			},
		},
	}
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "liqcalc_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	config := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName, config.DBSSLMode,
	)

	db, err := sql.Open(config.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// SetupTestServer creates a complete test server with all components
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		dbCleanup()
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}

	logger := utils.GetGlobalLogger()

	hub := websocket.NewHub(logger)
	go hub.Run()

	repos := &TestRepositories{
		Position:     repository.NewPositionRepository(db),
		Settings:     repository.NewSettingsRepository(db),
		Notification: repository.NewNotificationRepository(db),
	}

	// In-memory market data: seeded quote book plus fixture liquidity
	// parameters; no live upstream is involved
	quotes := engine.NewQuoteBook(0)
	quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 51000, Timestamp: time.Now()})
	quotes.Update(models.Quote{Symbol: "ETHUSDT", Price: 3200, Timestamp: time.Now()})

	riskSvc := service.NewRiskService(repos.Settings, newFixtureParams(), quotes, logger)
	services := &TestServices{
		Risk:         riskSvc,
		Position:     service.NewPositionService(repos.Position, logger),
		Settings:     service.NewSettingsService(repos.Settings, riskSvc, logger),
		Notification: service.NewNotificationService(repos.Notification, repos.Settings, logger),
	}

	deps := &api.Dependencies{
		RiskService:         services.Risk,
		PositionService:     services.Position,
		SettingsService:     services.Settings,
		NotificationService: services.Notification,
		Quotes:              quotes,
		StreamHandler:       websocket.NewHandler(hub, nil, logger),
		HealthChecks: map[string]func() error{
			"database": db.Ping,
		},
		Logger: logger,
	}
	router := api.SetupRoutes(deps)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:       db,
		Router:   router,
		Server:   server,
		Hub:      hub,
		Quotes:   quotes,
		Repos:    repos,
		Services: services,
		Cleanup:  cleanup,
	}
}

// initTestTables creates the schema used by the repositories.
// Kept inline so the test database can be any empty PostgreSQL instance.
func initTestTables(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS watched_positions (
			id SERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			collateral DOUBLE PRECISION NOT NULL,
			leverage DOUBLE PRECISION NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watched_positions_status ON watched_positions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_watched_positions_symbol ON watched_positions(symbol)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY,
			liquidation_threshold DOUBLE PRECISION NOT NULL,
			apply_spread BOOLEAN NOT NULL,
			notification_prefs JSONB,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			position_id INTEGER,
			message TEXT NOT NULL,
			meta JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications(timestamp DESC)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// cleanupTestTables drops all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{"notifications", "watched_positions", "settings"}
	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
			log.Printf("Error dropping table %s: %v", table, err)
		}
	}
}

// truncateTables clears data between test cases that share a server
func truncateTables(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range []string{"notifications", "watched_positions"} {
		if _, err := db.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE"); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

package api

import (
	"context"
	"log"
	"os"
	"testing"

	"drzewo-plikow/internal/auth"
	"drzewo-plikow/internal/config"
	"drzewo-plikow/internal/database"
	"drzewo-plikow/internal/models"
	"drzewo-plikow/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testServer *Server
var testUserToken string
var testUserClaims *auth.AppClaims
var testOtherClaims *auth.AppClaims
var testAdminClaims *auth.AppClaims

func createUserForTests(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, username string, isAdmin bool) (*auth.AppClaims, string, error) {
	hashedPassword, err := auth.HashPassword("password")
	if err != nil {
		return nil, "", err
	}

	var userID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, is_admin) VALUES ($1, $2, $3) RETURNING id`,
		username, hashedPassword, isAdmin).Scan(&userID)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{ID: userID, Username: username, IsAdmin: isAdmin}
	token, err := auth.GenerateJWT(user, cfg.JWT.Secret)
	if err != nil {
		return nil, "", err
	}

	claims, err := auth.VerifyJWT(token, cfg.JWT.Secret)
	if err != nil {
		return nil, "", err
	}

	return claims, token, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("test_api_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	schema, err := os.ReadFile("../../db/init.sql")
	if err != nil {
		log.Fatalf("Could not read schema file: %s", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Could not apply schema: %s", err)
	}

	tempDir, err := os.MkdirTemp("", "api-storage-test")
	if err != nil {
		log.Fatalf("Could not create temp dir: %s", err)
	}
	defer os.RemoveAll(tempDir)

	localStorage, err := storage.NewLocalStorage(tempDir)
	if err != nil {
		log.Fatalf("Could not create local storage: %s", err)
	}

	store := database.NewStore(pool)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "api_test_secret"}}
	testServer = NewServer(cfg, store, localStorage)

	testUserClaims, testUserToken, err = createUserForTests(ctx, pool, cfg, "api_test_user", false)
	if err != nil {
		log.Fatalf("Could not create test user: %s", err)
	}

	testOtherClaims, _, err = createUserForTests(ctx, pool, cfg, "api_other_user", false)
	if err != nil {
		log.Fatalf("Could not create second test user: %s", err)
	}

	testAdminClaims, _, err = createUserForTests(ctx, pool, cfg, "api_admin_user", true)
	if err != nil {
		log.Fatalf("Could not create admin user: %s", err)
	}

	os.Exit(m.Run())
}

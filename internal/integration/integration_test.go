package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	pgstore "livequiz-service/internal/infra/postgres"
	pgmigrations "livequiz-service/internal/infra/postgres/migrations"
	infraredis "livequiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	sets := infraredis.NewSetCache(redisClient, pgstore.NewQuestionSetStore(pool), 5*time.Minute)
	allow := infraredis.NewAllowList(redisClient)

	hub := app.NewHub()
	session := app.NewSession(clockwork.NewRealClock(), hub)
	defer session.Close()
	service := app.NewService(session, hub, sets, allow)

	if err := service.SaveSet(ctx, "launch", sampleQuestions()); err != nil {
		t.Fatalf("save set: %v", err)
	}
	infos, err := service.ListSets(ctx)
	if err != nil || len(infos) != 1 || infos[0].Count != 2 {
		t.Fatalf("list sets: %+v err=%v", infos, err)
	}
	count, err := service.ApplySet(ctx, "launch")
	if err != nil || count != 2 {
		t.Fatalf("apply set: count=%d err=%v", count, err)
	}

	if _, err := service.UpdateAllowedEmails(ctx, []string{"alice@example.com"}, "replace"); err != nil {
		t.Fatalf("replace allow-list: %v", err)
	}
	if _, err := service.Register(ctx, "bob@example.com", "Bob"); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("expected bob to be rejected, got %v", err)
	}
	alice, err := service.Register(ctx, "Alice@Example.com", "Alice")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}

	if err := service.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.SubmitAnswer(alice.ID, "q1", "b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if already, err := service.Reveal(); err != nil || already {
		t.Fatalf("reveal: already=%v err=%v", already, err)
	}

	lb := service.Leaderboard()
	if len(lb.Entries) != 1 || lb.Entries[0].Score <= 0 {
		t.Fatalf("expected alice on the leaderboard with points, got %+v", lb.Entries)
	}

	// The cached loader and the store stay consistent across a delete.
	if err := service.DeleteSet(ctx, "launch"); err != nil {
		t.Fatalf("delete set: %v", err)
	}
	if _, err := service.LoadSet(ctx, "launch"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound after delete, got %v", err)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "What is 2 + 2?",
			Choices: []domain.Choice{
				{ID: "a", Text: "3"},
				{ID: "b", Text: "4"},
				{ID: "c", Text: "5"},
			},
			Answer:   "b",
			Duration: 30,
		},
		{
			ID:       "q2",
			Prompt:   "Spell out the result of 2 + 2",
			Answer:   "four",
			Duration: 30,
		},
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

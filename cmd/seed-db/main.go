// Command seed-db prepares a fresh database for local development: it runs
// the migrations, inserts the standard subcategories, and creates an admin
// account.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/findbooks/api/internal/repository"
)

var subcategories = []string{
	"Fiction",
	"Non-Fiction",
	"Science",
	"Engineering",
	"Competitive Exams",
	"School",
	"Comics",
	"Biography",
	"Self-Help",
}

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or FINDBOOKS_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or FINDBOOKS_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("FINDBOOKS_SEED_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("FINDBOOKS_SEED_ADMIN_PASSWORD")
	}
	if adminEmail == "" || adminPassword == "" {
		slog.Error("admin credentials are required: set --admin-email and --admin-password")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedSubcategories(ctx, pool); err != nil {
		return errors.Wrap(err, "seed subcategories")
	}

	if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func seedSubcategories(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding subcategories", slog.Int("count", len(subcategories)))

	for _, name := range subcategories {
		_, err := pool.Exec(ctx,
			`INSERT INTO subcategories (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name,
		)
		if err != nil {
			return errors.Wrapf(err, "insert subcategory %s", name)
		}
		slog.Info("seeded subcategory", slog.String("name", name))
	}
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	slog.Info("seeding admin user", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		 VALUES ($1, 'Store', 'Admin', $2, $3, 'Admin')
		 ON CONFLICT (email) DO UPDATE SET password_hash = $3, role = 'Admin'`,
		uuid.NewString(), email, hash,
	)
	if err != nil {
		return errors.Wrap(err, "upsert admin")
	}
	return nil
}

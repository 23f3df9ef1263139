// Command catalog-ingest bulk-imports book catalogue dumps into the store.
//
// Input is a directory of gzip-compressed CSV files with the columns
//
//	name,author,edition,publication_date,publisher,description,price,isbn,condition,subcategory
//
// Files are scanned in parallel. ISBNs already in the database are skipped
// using a bloom filter as a cheap prefilter with an exact lookup on probable
// hits, so a false positive can never drop a new book. Surviving rows are
// written with a single COPY.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/findbooks/api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	csvColumns    = 10
)

type bookRow struct {
	name        string
	author      string
	edition     string
	pubDate     string
	publisher   string
	description string
	price       decimal.Decimal
	isbn        string
	condition   string
	subcategory string
}

func main() {
	var (
		dataDir     string
		databaseURL string
		ownerEmail  string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz catalogue dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ownerEmail, "owner-email", "", "email of the admin user to own imported books")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if ownerEmail == "" {
		slog.Error("owner email is required: set --owner-email")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, ownerEmail); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, ownerEmail string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list catalogue files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz files in %s", dataDir)
	}

	slog.Info("scanning catalogue files", slog.Int("files", len(files)))

	rows, err := scanFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "scan catalogue files")
	}

	slog.Info("rows parsed", slog.Int("count", len(rows)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	ownerID, err := lookupOwner(ctx, pool, ownerEmail)
	if err != nil {
		return errors.Wrap(err, "look up owner")
	}

	subcategoryIDs, err := loadSubcategories(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "load subcategories")
	}

	seen, err := loadExistingISBNs(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "load existing ISBNs")
	}

	fresh, err := filterRows(ctx, pool, rows, subcategoryIDs, seen)
	if err != nil {
		return errors.Wrap(err, "filter rows")
	}
	if len(fresh) == 0 {
		slog.Info("nothing new to import")
		return nil
	}

	if err := copyBooks(ctx, pool, fresh, subcategoryIDs, ownerID); err != nil {
		return errors.Wrap(err, "copy books")
	}
	return nil
}

// scanFiles parses every file concurrently and merges the results.
func scanFiles(ctx context.Context, files []string) ([]bookRow, error) {
	var (
		mu  sync.Mutex
		all []bookRow
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			rows, err := scanFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			mu.Lock()
			all = append(all, rows...)
			mu.Unlock()

			slog.Info("file scanned", slog.String("path", path), slog.Int("rows", len(rows)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

func scanFile(ctx context.Context, path string) ([]bookRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = csvColumns

	var rows []bookRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}

		price, err := decimal.NewFromString(record[6])
		if err != nil || record[0] == "" || record[7] == "" {
			// Header line or malformed row.
			continue
		}

		rows = append(rows, bookRow{
			name:        record[0],
			author:      record[1],
			edition:     record[2],
			pubDate:     record[3],
			publisher:   record[4],
			description: record[5],
			price:       price,
			isbn:        record[7],
			condition:   record[8],
			subcategory: record[9],
		})
	}
	return rows, nil
}

func lookupOwner(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err != nil {
		return "", errors.Wrapf(err, "no user with email %s", email)
	}
	return id, nil
}

func loadSubcategories(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT name, id FROM subcategories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// loadExistingISBNs streams the catalogued ISBNs into a bloom filter.
func loadExistingISBNs(ctx context.Context, pool *pgxpool.Pool) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	rows, err := pool.Query(ctx, `SELECT isbn FROM books`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var isbn string
		if err := rows.Scan(&isbn); err != nil {
			return nil, err
		}
		filter.AddString(isbn)
	}
	return filter, rows.Err()
}

// filterRows drops rows whose ISBN is already catalogued or whose subcategory
// is unknown. The bloom filter answers the common "definitely new" case
// without touching the database; probable hits get an exact lookup.
func filterRows(
	ctx context.Context,
	pool *pgxpool.Pool,
	rows []bookRow,
	subcategoryIDs map[string]string,
	seen *bloom.BloomFilter,
) ([]bookRow, error) {
	var (
		fresh   []bookRow
		skipped int
	)
	for _, row := range rows {
		if _, ok := subcategoryIDs[row.subcategory]; !ok {
			slog.Warn("unknown subcategory, skipping",
				slog.String("isbn", row.isbn),
				slog.String("subcategory", row.subcategory),
			)
			skipped++
			continue
		}

		if seen.TestString(row.isbn) {
			var exists bool
			err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`, row.isbn).Scan(&exists)
			if err != nil {
				return nil, errors.Wrapf(err, "check isbn %s", row.isbn)
			}
			if exists {
				skipped++
				continue
			}
		}

		seen.AddString(row.isbn)
		fresh = append(fresh, row)
	}

	slog.Info("rows filtered", slog.Int("fresh", len(fresh)), slog.Int("skipped", skipped))
	return fresh, nil
}

func copyBooks(
	ctx context.Context,
	pool *pgxpool.Pool,
	rows []bookRow,
	subcategoryIDs map[string]string,
	ownerID string,
) error {
	slog.Info("writing books", slog.Int("count", len(rows)))

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{
			uuid.NewString(),
			row.name,
			row.author,
			row.edition,
			row.pubDate,
			row.publisher,
			row.description,
			row.price,
			row.isbn,
			row.condition,
			subcategoryIDs[row.subcategory],
			ownerID,
			false,
		}
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{"books"},
		[]string{
			"id", "name", "author", "edition", "publication_date", "publisher",
			"description", "price", "isbn", "condition", "subcategory_id",
			"user_id", "is_used",
		},
		pgx.CopyFromRows(values),
	)
	if err != nil {
		return errors.Wrap(err, "copy into books")
	}

	slog.Info("books written", slog.Int64("count", n))
	return nil
}

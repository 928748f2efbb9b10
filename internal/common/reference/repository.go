// Package reference resolves sellers, contractors, employees and complaint
// statuses from PostgreSQL, reading through a Redis cache.
package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"complaint-workers/internal/common/database"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("reference: not found")

const (
	keySeller   = "ref:seller:"
	keyClient   = "ref:client:"
	keyEmployee = "ref:employee:"
	keyStatus   = "ref:status:"
)

const (
	querySeller = `SELECT id, name, COALESCE(locale, ''), COALESCE(email_from, '') FROM sellers WHERE id = $1`

	queryContractor = `SELECT id, type, name, COALESCE(full_name, ''), seller_id, COALESCE(email, ''), COALESCE(mobile, '') FROM contractors WHERE id = $1`

	queryEmployee = `SELECT id, name, COALESCE(full_name, ''), COALESCE(email, '') FROM employees WHERE id = $1`

	queryStatus = `SELECT name FROM complaint_statuses WHERE code = $1`

	queryPermittedEmails = `SELECT DISTINCT e.email FROM employees e JOIN employee_permits p ON p.employee_id = e.id WHERE p.seller_id = $1 AND p.permit = $2 AND COALESCE(e.email, '') <> '' ORDER BY e.email`
)

// Repository implements reference lookups. The cache is optional.
type Repository struct {
	db     *database.PostgresClient
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRepository(db *database.PostgresClient, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *Repository {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Repository{db: db, cache: cache, ttl: ttl, logger: log}
}

func (r *Repository) ResolveReseller(ctx context.Context, id int64) (*models.Reseller, error) {
	return readThrough(ctx, r, "seller", keySeller+strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Reseller, error) {
		var s models.Reseller
		err := r.db.QueryRow(ctx, querySeller, id).Scan(&s.ID, &s.Name, &s.Locale, &s.EmailFrom)
		if err != nil {
			return nil, rowError("seller", id, err)
		}
		return &s, nil
	})
}

// ResolveClient returns the contractor with the given id, whatever its type or owner.
func (r *Repository) ResolveClient(ctx context.Context, id int64) (*models.Client, error) {
	return readThrough(ctx, r, "contractor", keyClient+strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Client, error) {
		var c models.Client
		err := r.db.QueryRow(ctx, queryContractor, id).
			Scan(&c.ID, &c.Type, &c.Name, &c.FullName, &c.SellerID, &c.Email, &c.Mobile)
		if err != nil {
			return nil, rowError("contractor", id, err)
		}
		return &c, nil
	})
}

func (r *Repository) ResolveEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return readThrough(ctx, r, "employee", keyEmployee+strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Employee, error) {
		var e models.Employee
		err := r.db.QueryRow(ctx, queryEmployee, id).Scan(&e.ID, &e.Name, &e.FullName, &e.Email)
		if err != nil {
			return nil, rowError("employee", id, err)
		}
		return &e, nil
	})
}

// StatusName returns the display name of a complaint status code.
func (r *Repository) StatusName(ctx context.Context, code int) (string, error) {
	name, err := readThrough(ctx, r, "status", keyStatus+strconv.Itoa(code), func(ctx context.Context) (*string, error) {
		var name string
		if err := r.db.QueryRow(ctx, queryStatus, code).Scan(&name); err != nil {
			return nil, rowError("status", int64(code), err)
		}
		return &name, nil
	})
	if err != nil {
		return "", err
	}
	return *name, nil
}

// EmailFrom returns the reseller's sender address, empty when none is configured.
func (r *Repository) EmailFrom(ctx context.Context, resellerID int64) (string, error) {
	s, err := r.ResolveReseller(ctx, resellerID)
	if err != nil {
		return "", err
	}
	return s.EmailFrom, nil
}

// PermittedEmails returns the addresses of the reseller's employees holding permit.
// The list is read from the database on every call.
func (r *Repository) PermittedEmails(ctx context.Context, resellerID int64, permit string) ([]string, error) {
	rows, err := r.db.Query(ctx, queryPermittedEmails, resellerID, permit)
	if err != nil {
		return nil, fmt.Errorf("query permitted emails for seller %d: %w", resellerID, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan permitted email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permitted emails: %w", err)
	}
	return emails, nil
}

func rowError(entity string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
	}
	return fmt.Errorf("query %s %d: %w", entity, id, err)
}

// readThrough serves key from Redis, falling back to load and populating the
// cache on success. Cache failures are logged and never fail the lookup.
func readThrough[T any](ctx context.Context, r *Repository, entity, key string, load func(context.Context) (*T, error)) (*T, error) {
	if r.cache != nil {
		var cached T
		err := r.cache.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			metrics.ReferenceCacheLookups.WithLabelValues(entity, "hit").Inc()
			return &cached, nil
		case errors.Is(err, redis.Nil):
			metrics.ReferenceCacheLookups.WithLabelValues(entity, "miss").Inc()
		default:
			metrics.ReferenceCacheLookups.WithLabelValues(entity, "error").Inc()
			r.logger.Warn("Reference cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.SetJSON(ctx, key, value, r.ttl); err != nil {
			r.logger.Warn("Reference cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return value, nil
}

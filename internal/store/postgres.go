package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/migrations"
)

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens cfg.DSN with the pgx driver, pings the database and
// applies pending migrations.
func NewPostgresStore(ctx context.Context, cfg config.Postgres, log *logger.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := migrations.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Msg("connected to postgres")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PostgresStore) Insert(ctx context.Context, user models.User) (models.User, error) {
	query, args, err := buildInsertUserQuery(user)
	if err != nil {
		return models.User{}, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("postgres insert: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.User, error) {
	if !s.ValidID(id) {
		return models.User{}, ErrNotFound
	}
	return s.findOne(ctx, sq.Eq{"id": id})
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, sq.Eq{"username": username})
}

func (s *PostgresStore) findOne(ctx context.Context, where sq.Eq) (models.User, error) {
	query, args, err := buildSelectUserQuery(where)
	if err != nil {
		return models.User{}, fmt.Errorf("build select: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("postgres select: %w", err)
	}
	return u, nil
}

// FindAll returns every user in creation order. The result is never nil.
func (s *PostgresStore) FindAll(ctx context.Context) ([]models.User, error) {
	query, args, err := buildSelectAllUsersQuery()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres select: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, user models.User) (models.User, error) {
	if !s.ValidID(id) {
		return models.User{}, ErrNotFound
	}

	query, args, err := buildUpdateUserQuery(id, user)
	if err != nil {
		return models.User{}, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.User{}, ErrNotFound
		case postgresError(err) == pgerrcode.UniqueViolation:
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("postgres update: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	if !s.ValidID(id) {
		return false, nil
	}

	query, args, err := buildDeleteUserQuery(id)
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("postgres delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres delete: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u        models.User
		disabled sql.NullBool
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &disabled, &u.HashedPassword); err != nil {
		return models.User{}, err
	}
	if disabled.Valid {
		u.Disabled = &disabled.Bool
	}
	return u, nil
}

func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

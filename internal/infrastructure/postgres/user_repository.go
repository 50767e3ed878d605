package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

var userCols = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "role", "status",
	"created_at", "updated_at",
}

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        *string   `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) entity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        derefString(r.Email),
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         r.Role,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := execSQL(ctx, r.q, "insert user", psql.Insert("users").
		Columns(userCols...).
		Values(u.ID, u.Username, nullString(u.Email), u.PasswordHash, u.FirstName, u.LastName,
			u.Role, u.Status, u.CreatedAt, u.UpdatedAt))
	return err
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.find(ctx, "get user by id", squirrel.Eq{"id": id})
}

// GetByUsername búsqueda sin distinguir mayúsculas.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(ctx, "get user by username", squirrel.Expr("lower(username) = lower(?)", username))
}

// GetByEmail búsqueda sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.find(ctx, "get user by email", squirrel.Expr("lower(email) = lower(?)", email))
}

func (r *UserRepo) find(ctx context.Context, op string, where squirrel.Sqlizer) (*entity.User, error) {
	var row userRow
	found, err := getOne(ctx, r.q, op, &row, psql.Select(userCols...).From("users").Where(where).Limit(1))
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	err := execOne(ctx, r.q, "update user", psql.Update("users").
		Set("username", u.Username).
		Set("email", nullString(u.Email)).
		Set("password_hash", u.PasswordHash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("role", u.Role).
		Set("status", u.Status).
		Set("updated_at", u.UpdatedAt).
		Where(squirrel.Eq{"id": u.ID}))
	if err == domain.ErrNotFound {
		return domain.ErrUserNotFound
	}
	return err
}

package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/ayush/user-service/internal/models"
)

const usersTable = "users"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	userColumns = []string{"id", "username", "name", "email", "disabled", "hashed_password"}
)

func buildInsertUserQuery(user models.User) (string, []any, error) {
	return psql.Insert(usersTable).
		Columns("username", "name", "email", "disabled", "hashed_password").
		Values(user.Username, user.Name, user.Email, user.Disabled, user.HashedPassword).
		Suffix("RETURNING id, username, name, email, disabled, hashed_password").
		ToSql()
}

func buildSelectUserQuery(where sq.Eq) (string, []any, error) {
	return psql.Select(userColumns...).
		From(usersTable).
		Where(where).
		Limit(1).
		ToSql()
}

func buildSelectAllUsersQuery() (string, []any, error) {
	return psql.Select(userColumns...).
		From(usersTable).
		OrderBy("created_at", "id").
		ToSql()
}

func buildUpdateUserQuery(id string, user models.User) (string, []any, error) {
	return psql.Update(usersTable).
		SetMap(map[string]any{
			"username":        user.Username,
			"name":            user.Name,
			"email":           user.Email,
			"hashed_password": user.HashedPassword,
		}).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, username, name, email, disabled, hashed_password").
		ToSql()
}

func buildDeleteUserQuery(id string) (string, []any, error) {
	return psql.Delete(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

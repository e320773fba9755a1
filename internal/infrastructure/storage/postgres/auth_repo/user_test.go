package auth_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studentrecords/internal/domain/auth"
)

func TestUserCols_MatchSchema(t *testing.T) {
	assert.Equal(t, []string{
		"id", "username", "email", "password_hash", "first_name", "last_name", "is_active",
		"last_login_at", "failed_login_attempts", "locked_until", "created_at", "updated_at",
	}, userCols)
}

func TestUserUpdate_SkipsImmutableColumns(t *testing.T) {
	u := auth.NewUser("msgarcia", "hash", time.Now())

	sql, _, err := builder().Update(usersTable).SetMap(updateMap(u)).Where("id = ?", u.ID).ToSql()

	assert.NoError(t, err)
	assert.NotContains(t, sql, "username =")
	assert.NotContains(t, sql, "created_at =")
	assert.Contains(t, sql, "failed_login_attempts = ")
}

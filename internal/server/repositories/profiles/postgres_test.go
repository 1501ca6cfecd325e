package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qCreate     = `(?s)^INSERT\s+INTO\s+profiles\s*\(user_id,\s*first_name,\s*last_name,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	qByUser     = `(?s)^SELECT\s+id,\s*user_id,\s*first_name,\s*last_name,\s*role,\s*created_at\s+FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	qList       = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+profiles\s+ORDER\s+BY\s+created_at\s+DESC\s*$`
	qUpdateRole = `(?s)^UPDATE\s+profiles\s+SET\s+role\s*=\s*\$2\s+WHERE\s+user_id\s*=\s*\$1\s*$`
)

var profileColumns = []string{"id", "user_id", "first_name", "last_name", "role", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate_DefaultsRoleToUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(qCreate).
		WithArgs("u-1", "Jane", "Doe", "user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1", created))

	got, err := repo.Create(context.Background(), &models.Profile{UserID: "u-1", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	assert.Equal(t, models.RoleUser, got.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qCreate).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Profile{UserID: "u-1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*fk violation`, err.Error())
}

func TestGetByUserID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(qByUser).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(profileColumns).AddRow("p-1", "u-1", "Ada", "Lovelace", "admin", time.Now()))

		got, err := repo.GetByUserID(context.Background(), "u-1")
		require.NoError(t, err)
		assert.True(t, got.IsAdmin())
		assert.Equal(t, "Ada", got.FirstName)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(qByUser).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUserID(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(qByUser).WithArgs("u-1").WillReturnError(errors.New("conn reset"))

		_, err := repo.GetByUserID(context.Background(), "u-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qList).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("p-2", "u-2", "Bob", "", "user", now).
			AddRow("p-1", "u-1", "Ada", "Lovelace", "admin", now.Add(-time.Hour)))

	got, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-2", got[0].ID)
	assert.Equal(t, models.RoleAdmin, got[1].Role)
}

func TestListAll_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("p-1", "u-1", "Ada", "Lovelace", "admin", time.Now()).
			RowError(0, errors.New("broken row")))

	_, err := repo.ListAll(context.Background())
	assert.Error(t, err)
}

func TestUpdateRole(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(qUpdateRole).WithArgs("u-1", "admin").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateRole(context.Background(), "u-1", models.RoleAdmin))
	})

	t.Run("missing profile", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(qUpdateRole).WithArgs("u-9", "admin").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateRole(context.Background(), "u-9", models.RoleAdmin), common.ErrorNotFound)
	})

	t.Run("unknown role never reaches db", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		assert.Error(t, repo.UpdateRole(context.Background(), "u-1", models.Role("root")))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

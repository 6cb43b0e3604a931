package contacts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+contact_messages\s*\(name,\s*email,\s*subject,\s*message\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("Ann", "ann@example.com", "Hi", "Hello there").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("m-1", now))
	mock.ExpectQuery(q).
		WillReturnError(errors.New("db down"))

	msg, err := repo.Create(context.Background(), &models.ContactMessage{Name: "Ann", Email: "ann@example.com", Subject: "Hi", Message: "Hello there"})
	if err != nil || msg.ID != "m-1" {
		t.Fatalf("Create = %+v, %v", msg, err)
	}

	_, err = repo.Create(context.Background(), &models.ContactMessage{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListAndCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,.*FROM\s+contact_messages\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "subject", "message", "created_at"}).
			AddRow("m-1", "Ann", "ann@example.com", "Hi", "Hello", now))
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+contact_messages$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	list, err := repo.List(context.Background(), models.DefaultPage())
	if err != nil || len(list) != 1 || list[0].Name != "Ann" {
		t.Fatalf("List = %+v, %v", list, err)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

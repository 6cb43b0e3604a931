package posts

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

var postCols = []string{
	"id", "title", "slug", "content", "excerpt", "tags", "published", "featured", "author_id", "created_at", "updated_at",
	"author_id", "username", "first_name", "last_name", "avatar", "bio",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func welcomeRow(rows *sqlmock.Rows) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow("p-1", "Welcome", "welcome", "body", nil, "introduction,portfolio", true, true, "u-1", now, now,
		"u-1", "admin", "Makara", "Chhuon", nil, "Full Stack Developer")
}

func TestListPublished(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+p\.id,.*array_to_string\(p\.tags,\s*','\).*FROM\s+posts\s+p\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*p\.author_id\s+WHERE\s+p\.published\s*=\s*TRUE\s+ORDER\s+BY\s+p\.created_at\s+DESC\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`
	mock.ExpectQuery(q).WithArgs(10, 0).WillReturnRows(welcomeRow(sqlmock.NewRows(postCols)))

	got, err := repo.ListPublished(context.Background(), models.DefaultPage())
	if err != nil {
		t.Fatalf("ListPublished error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected posts: %+v", got)
	}
	p := got[0]
	if !reflect.DeepEqual(p.Tags, []string{"introduction", "portfolio"}) {
		t.Fatalf("tags = %v", p.Tags)
	}
	if p.Author == nil || p.Author.Username != "admin" || p.Author.Bio != nil {
		t.Fatalf("unexpected author: %+v", p.Author)
	}
}

func TestListFeatured(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)WHERE\s+p\.published\s*=\s*TRUE\s+AND\s+p\.featured\s*=\s*TRUE\s+ORDER\s+BY\s+p\.created_at\s+DESC\s+LIMIT\s+\$1$`
	mock.ExpectQuery(q).WithArgs(5).WillReturnRows(sqlmock.NewRows(postCols))

	got, err := repo.ListFeatured(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListFeatured error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestGetBySlug(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)WHERE\s+p\.slug\s*=\s*\$1\s+AND\s+p\.published\s*=\s*TRUE$`
	mock.ExpectQuery(q).WithArgs("welcome").WillReturnRows(welcomeRow(sqlmock.NewRows(postCols)))
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	p, err := repo.GetBySlug(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("GetBySlug error: %v", err)
	}
	if p.Author.Bio == nil || *p.Author.Bio != "Full Stack Developer" {
		t.Fatalf("detail view should carry bio: %+v", p.Author)
	}

	if _, err := repo.GetBySlug(context.Background(), "missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestCounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+posts\s+WHERE\s+published\s*=\s*TRUE$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+posts\s+WHERE\s+author_id\s*=\s*\$1$`).
		WithArgs("u-1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+posts\s+WHERE\s+author_id`).
		WithArgs("u-2").WillReturnError(errors.New("db down"))

	ctx := context.Background()
	if n, err := repo.CountPublished(ctx); err != nil || n != 3 {
		t.Fatalf("CountPublished = %d, %v", n, err)
	}
	if n, err := repo.CountByAuthor(ctx, "u-1"); err != nil || n != 2 {
		t.Fatalf("CountByAuthor = %d, %v", n, err)
	}
	if _, err := repo.CountByAuthor(ctx, "u-2"); err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreateIfAbsent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+posts\s*\(.*\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*string_to_array\(\$5,\s*','\),\s*\$6,\s*\$7,\s*\$8\)\s*ON\s+CONFLICT\s*\(slug\)\s*DO\s+NOTHING\s+RETURNING\s+id,\s*created_at,\s*updated_at$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("Welcome", "welcome", "body", nil, "a,b", true, false, "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p-1", now, now))
	mock.ExpectQuery(q).
		WithArgs("Welcome", "welcome", "body", nil, "a,b", true, false, "u-1").
		WillReturnError(sql.ErrNoRows)

	post := &models.Post{Title: "Welcome", Slug: "welcome", Content: "body", Tags: []string{"a", "b"}, Published: true, AuthorID: "u-1"}
	created, err := repo.CreateIfAbsent(context.Background(), post)
	if err != nil || !created || post.ID != "p-1" {
		t.Fatalf("first insert: created=%v id=%q err=%v", created, post.ID, err)
	}

	created, err = repo.CreateIfAbsent(context.Background(), &models.Post{Title: "Welcome", Slug: "welcome", Content: "body", Tags: []string{"a", "b"}, Published: true, AuthorID: "u-1"})
	if err != nil || created {
		t.Fatalf("duplicate slug: created=%v err=%v", created, err)
	}
}

func TestSplitTags(t *testing.T) {
	if got := splitTags(""); got == nil || len(got) != 0 {
		t.Fatalf("splitTags(\"\") = %#v", got)
	}
	if got := splitTags("x,y"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("splitTags = %v", got)
	}
}

package migrate

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"sql/0001_records.up.sql":   {Data: []byte("-- records\ncreate table a(x text);\ncreate table b(y text);\n")},
		"sql/0001_records.down.sql": {Data: []byte("drop table b;\ndrop table a;\n")},
		"sql/0002_index.up.sql":     {Data: []byte("create index a_x on a(x);\n")},
	}
}

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("create table if not exists wordcheck_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists wordcheck_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from wordcheck_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_records.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("create index a_x on a(x)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("insert into wordcheck_migrations(name, applied_at)")).
		WithArgs("0002_index.up.sql", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mgr := NewManagerFS(db, testFS(), "sql", "", WithClock(func() time.Time { return fixedNow }))
	applied, err := mgr.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_index.up.sql" {
		t.Fatalf("applied = %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpRunsEveryStatementInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from wordcheck_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0002_index.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("create table a(x text)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("create table b(y text)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("insert into wordcheck_migrations(name, applied_at)")).
		WithArgs("0001_records.up.sql", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mgr := NewManagerFS(db, testFS(), "./sql/", "", WithClock(func() time.Time { return fixedNow }))
	if _, err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from wordcheck_migrations order by applied_at asc").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_records.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("drop table b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("drop table a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("delete from wordcheck_migrations where name").
		WithArgs("0001_records.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManagerFS(db, testFS(), "sql", "")
	if err := mgr.Down(context.Background()); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSeedWithoutDirIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from wordcheck_seeds").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mgr := NewManagerFS(db, testFS(), "sql", "")
	if err := mgr.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	in := "-- header\ninsert into t values ('a;b');\n  -- note\nselect 1;\n"
	got := splitStatements(in)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[0] != "insert into t values ('a;b');" {
		t.Fatalf("first = %q", got[0])
	}
}

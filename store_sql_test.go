package staticdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goforj/staticdata/staticcore"
)

func newSQLiteTestStore(t *testing.T, base staticcore.BaseConfig) (Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := newSQLStore(StoreConfig{
		BaseConfig: base,
		SQLDB:      db,
		SQLDialect: DialectSQLite,
		SQLTable:   "static_entries",
	})
	if err != nil {
		t.Fatalf("sqlite store create failed: %v", err)
	}
	return store, db
}

func TestSQLStoreBasics(t *testing.T) {
	store, db := newSQLiteTestStore(t, staticcore.BaseConfig{Prefix: "p"})
	ctx := context.Background()
	if store.Driver() != DriverSQL {
		t.Fatalf("driver = %s", store.Driver())
	}

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM static_entries WHERE k = 'p:k'").Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected prefixed row, count=%d err=%v", count, err)
	}
	body, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "v" {
		t.Fatalf("get failed: ok=%v err=%v val=%s", ok, err, string(body))
	}
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss: ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "k", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if body, _, _ := store.Get(ctx, "k"); string(body) != "v2" {
		t.Fatalf("upsert did not replace value: %s", string(body))
	}

	if created, err := store.Add(ctx, "k", []byte("x"), time.Minute); err != nil || created {
		t.Fatalf("add duplicate unexpected: created=%v err=%v", created, err)
	}
	if created, err := store.Add(ctx, "fresh", []byte("v"), time.Minute); err != nil || !created {
		t.Fatalf("add fresh failed: created=%v err=%v", created, err)
	}

	if err := store.Delete(ctx, "fresh"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteMany(ctx, "k", "absent"); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if err := store.DeleteMany(ctx); err != nil {
		t.Fatalf("delete many empty should be nil: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM static_entries").Scan(&count); err != nil || count != 0 {
		t.Fatalf("flush left %d rows, err=%v", count, err)
	}
}

func TestSQLStoreTTLExpiry(t *testing.T) {
	store, db := newSQLiteTestStore(t, staticcore.BaseConfig{})
	ctx := context.Background()
	if err := store.Set(ctx, "ttl", []byte("x"), 30*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, err := store.Get(ctx, "ttl"); err != nil || ok {
		t.Fatalf("expected ttl expiry: ok=%v err=%v", ok, err)
	}
	// The expired row is purged on read.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM static_entries WHERE k = 'ttl'").Scan(&count); err != nil || count != 0 {
		t.Fatalf("expired row still present, count=%d err=%v", count, err)
	}
}

func TestSQLStoreZeroTTLNeverExpires(t *testing.T) {
	store, db := newSQLiteTestStore(t, staticcore.BaseConfig{})
	ctx := context.Background()
	if err := store.Set(ctx, "ever", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	var ea int64
	if err := db.QueryRow("SELECT ea FROM static_entries WHERE k = 'ever'").Scan(&ea); err != nil || ea != 0 {
		t.Fatalf("expected ea=0 for never-expiring row, ea=%d err=%v", ea, err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok, err := store.Get(ctx, "ever"); err != nil || !ok {
		t.Fatalf("never-expiring entry missing: ok=%v err=%v", ok, err)
	}
}

func TestSQLStoreDefaultTTLFallback(t *testing.T) {
	store, _ := newSQLiteTestStore(t, staticcore.BaseConfig{DefaultTTL: 30 * time.Millisecond})
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("zero ttl should inherit the store default")
	}
}

func TestSQLStoreAddReusesExpiredRow(t *testing.T) {
	store, db := newSQLiteTestStore(t, staticcore.BaseConfig{})
	ctx := context.Background()

	expired := time.Now().Add(-time.Hour).UnixMilli()
	if _, err := db.ExecContext(ctx, "INSERT INTO static_entries (k, v, ea) VALUES (?, ?, ?)", "old", []byte("stale"), expired); err != nil {
		t.Fatalf("insert expired: %v", err)
	}
	created, err := store.Add(ctx, "old", []byte("fresh"), time.Minute)
	if err != nil || !created {
		t.Fatalf("add should reclaim expired row: created=%v err=%v", created, err)
	}
	if body, ok, _ := store.Get(ctx, "old"); !ok || string(body) != "fresh" {
		t.Fatalf("reclaimed row not updated: ok=%v val=%s", ok, string(body))
	}

	// Live and never-expiring rows are not reclaimable.
	if created, err := store.Add(ctx, "old", []byte("later"), time.Minute); err != nil || created {
		t.Fatalf("live row reclaimed: created=%v err=%v", created, err)
	}
	if err := store.Set(ctx, "pinned", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if created, err := store.Add(ctx, "pinned", []byte("x"), time.Minute); err != nil || created {
		t.Fatalf("never-expiring row reclaimed: created=%v err=%v", created, err)
	}
}

func TestSQLStoreDialectSQL(t *testing.T) {
	pg := &sqlStore{dialect: DialectPostgres, table: "t"}
	if !strings.Contains(pg.upsertSQL(), "ON CONFLICT") || !strings.Contains(pg.upsertSQL(), "$5") {
		t.Fatalf("postgres upsert = %s", pg.upsertSQL())
	}
	if pg.ph(3) != "$3" {
		t.Fatalf("postgres placeholder = %s", pg.ph(3))
	}
	mysql := &sqlStore{dialect: DialectMySQL, table: "t"}
	if !strings.Contains(mysql.upsertSQL(), "ON DUPLICATE") || strings.Contains(mysql.upsertSQL(), "$") {
		t.Fatalf("mysql upsert = %s", mysql.upsertSQL())
	}
	sqlite := &sqlStore{dialect: DialectSQLite, table: "t"}
	if !strings.Contains(sqlite.upsertSQL(), "ON CONFLICT(k)") {
		t.Fatalf("sqlite upsert = %s", sqlite.upsertSQL())
	}

	if !isDuplicateErr(errors.New("duplicate key value violates unique constraint"), DialectPostgres) {
		t.Fatalf("expected duplicate detection for postgres")
	}
	if !isDuplicateErr(errors.New("Error 1062: Duplicate entry 'k'"), DialectMySQL) {
		t.Fatalf("expected duplicate detection for mysql")
	}
	if !isDuplicateErr(errors.New("UNIQUE constraint failed: static_entries.k"), DialectSQLite) {
		t.Fatalf("expected duplicate detection for sqlite")
	}
	if isDuplicateErr(errors.New("other"), DialectSQLite) {
		t.Fatalf("unexpected duplicate detection")
	}
}

func TestSQLStoreDialectConstruction(t *testing.T) {
	// The fake driver accepts the DDL and prepared statements of every
	// dialect, which is enough to exercise statement generation.
	for _, dialect := range []SQLDialect{DialectPostgres, DialectMySQL, DialectSQLite} {
		db, err := sql.Open("staticfake", "irrelevant")
		if err != nil {
			t.Fatalf("open fake: %v", err)
		}
		store, err := newSQLStore(StoreConfig{SQLDB: db, SQLDialect: dialect, SQLTable: "tbl"})
		if err != nil {
			t.Fatalf("%s construction failed: %v", dialect, err)
		}
		ctx := context.Background()
		if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
			t.Fatalf("%s fake get: ok=%v err=%v", dialect, ok, err)
		}
		if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("%s fake set: %v", dialect, err)
		}
		if err := store.DeleteMany(ctx, "a", "b"); err != nil {
			t.Fatalf("%s fake delete many: %v", dialect, err)
		}
		db.Close()
	}
}

func TestSQLStoreConstructionErrors(t *testing.T) {
	if _, err := newSQLStore(StoreConfig{}); err == nil {
		t.Fatalf("expected error without database handle")
	}

	execFail, _ := sql.Open("staticfake_exec", "x")
	defer execFail.Close()
	if _, err := newSQLStore(StoreConfig{SQLDB: execFail, SQLTable: "tbl"}); err == nil {
		t.Fatalf("expected schema error")
	}

	prepFail, _ := sql.Open("staticfake_prepare", "x")
	defer prepFail.Close()
	if _, err := newSQLStore(StoreConfig{SQLDB: prepFail, SQLTable: "tbl"}); err == nil {
		t.Fatalf("expected prepare error")
	}

	good, _ := sql.Open("staticfake", "x")
	defer good.Close()
	if _, err := newSQLStore(StoreConfig{SQLDB: good, SQLTable: "bad; DROP TABLE users"}); err == nil {
		t.Fatalf("expected invalid table name error")
	}

	store, err := newSQLStore(StoreConfig{SQLDB: good})
	if err != nil {
		t.Fatalf("defaults failed: %v", err)
	}
	ss := store.(*sqlStore)
	if ss.table != defaultSQLTable || ss.dialect != DialectSQLite {
		t.Fatalf("defaults: table=%s dialect=%s", ss.table, ss.dialect)
	}
}

func TestSQLTableNameValidation(t *testing.T) {
	if err := validateSQLTableName("static_entries; DROP TABLE users"); err == nil {
		t.Fatalf("expected invalid table name error")
	}
	if err := validateSQLTableName(""); err == nil {
		t.Fatalf("expected empty table name error")
	}
	if err := validateSQLTableName("public.static_entries"); err != nil {
		t.Fatalf("expected dotted table name to be allowed: %v", err)
	}
}

func TestSQLStoreKey(t *testing.T) {
	ss := &sqlStore{prefix: ""}
	if got := ss.storeKey("k"); got != "k" {
		t.Fatalf("expected raw key, got %s", got)
	}
	ss.prefix = "p"
	if got := ss.storeKey("k"); got != "p:k" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestSQLStoreErrorsWhenDBClosed(t *testing.T) {
	store, db := newSQLiteTestStore(t, staticcore.BaseConfig{})
	_ = db.Close()

	ctx := context.Background()
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatalf("expected get error on closed db")
	}
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Fatalf("expected set error on closed db")
	}
	if _, err := store.Add(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Fatalf("expected add error on closed db")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete error on closed db")
	}
	if err := store.DeleteMany(ctx, "a"); err == nil {
		t.Fatalf("expected delete many error on closed db")
	}
	if err := store.Flush(ctx); err == nil {
		t.Fatalf("expected flush error on closed db")
	}
}

package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	log := newGormLogger(zerolog.New(&buf))
	query := func() (string, int64) { return "SELECT 1", 1 }

	log.Trace(context.Background(), time.Now(), query, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not be logged at warn level: %s", buf.String())
	}

	log.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}

	buf.Reset()
	log.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found should not be logged: %s", buf.String())
	}

	log.Trace(context.Background(), time.Now(), query, errors.New("boom"))
	if !strings.Contains(buf.String(), "query failed") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected error log, got %s", buf.String())
	}

	buf.Reset()
	log.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), query, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent logger wrote %s", buf.String())
	}
}

func TestMigrationStatementsCoverSchema(t *testing.T) {
	joined := strings.Join(migrationStatements, "\n")
	for _, fragment := range []string{
		"offer_status",
		"offer_number_seq",
		"CREATE TABLE IF NOT EXISTS offers",
		"CREATE TABLE IF NOT EXISTS offer_parts",
		"CREATE TABLE IF NOT EXISTS offer_labor",
		"CREATE TABLE IF NOT EXISTS offer_prepayments",
		"ON DELETE CASCADE",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("migrations missing %q", fragment)
		}
	}
}

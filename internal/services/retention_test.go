package services_test

import (
	"testing"
	"time"

	"rideaxis/internal/services"
	"rideaxis/internal/testutil"

	"go.uber.org/zap"
)

func TestStartLocationRetention(t *testing.T) {
	db := testutil.NewDB(t)
	log := zap.NewNop()

	c, err := services.StartLocationRetention(db, "0 3 * * *", 0, time.UTC, log)
	if err != nil || c != nil {
		t.Fatalf("disabled retention: c=%v err=%v", c, err)
	}

	if _, err := services.StartLocationRetention(db, "not a cron line", 30, time.UTC, log); err == nil {
		t.Fatal("expected error for a bad schedule")
	}

	c, err = services.StartLocationRetention(db, "0 3 * * *", 30, nil, log)
	if err != nil || c == nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()
	if len(c.Entries()) != 1 {
		t.Fatalf("entries = %d", len(c.Entries()))
	}
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUsageRepository_IncrementUsage(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewUsageRepository(db)
	day := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `promotion_user_activity_usages` .* ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.IncrementUsage(context.Background(), 42, 1, 25.5, day)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestUsageRepository_DailyCount(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewUsageRepository(db)
	day := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "activity_id", "usage_date", "use_count", "discount_amount"}).
		AddRow(1, 42, 1, "2026-03-15", 3, 75.0)

	mock.ExpectQuery("SELECT \\* FROM `promotion_user_activity_usages` WHERE user_id = \\? AND activity_id = \\? AND usage_date = \\?").
		WithArgs(uint64(42), uint64(1), "2026-03-15", 1).
		WillReturnRows(rows)

	count, err := repo.DailyCount(context.Background(), 42, 1, day)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestUsageRepository_DailyCountAbsent(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewUsageRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `promotion_user_activity_usages`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// Absent row reads as zero usage, not an error
	count, err := repo.DailyCount(context.Background(), 42, 1, time.Now())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestUsageRepository_DailyDiscountTotal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewUsageRepository(db)
	day := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"total"}).AddRow(120.5)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(discount_amount\\), 0\\) FROM `promotion_user_activity_usages` WHERE user_id = \\? AND usage_date = \\?").
		WithArgs(uint64(42), "2026-03-15").
		WillReturnRows(rows)

	total, err := repo.DailyDiscountTotal(context.Background(), 42, day)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if total != 120.5 {
		t.Errorf("Expected total 120.5, got %f", total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

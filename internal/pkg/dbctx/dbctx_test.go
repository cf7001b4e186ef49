package dbctx

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   int
	Name string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openDB(t)
	dbc := Context{Ctx: context.Background()}

	err := dbc.InTx(db, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "a"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatalf("want error from fn")
	}
	var n int64
	dbc.Conn(db).Model(&widget{}).Count(&n)
	if n != 0 {
		t.Fatalf("want rollback, found %d rows", n)
	}
}

func TestInTxJoinsOuterTransaction(t *testing.T) {
	db := openDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		inner := Context{Ctx: context.Background(), Tx: tx}
		if err := inner.InTx(db, func(tx *gorm.DB) error {
			return tx.Create(&widget{Name: "b"}).Error
		}); err != nil {
			return err
		}
		var n int64
		inner.Conn(db).Model(&widget{}).Count(&n)
		if n != 1 {
			t.Fatalf("row should be visible inside the outer transaction, got %d", n)
		}
		return errors.New("rollback outer")
	})
	if err == nil {
		t.Fatalf("want outer error")
	}
	var n int64
	Context{}.Conn(db).Model(&widget{}).Count(&n)
	if n != 0 {
		t.Fatalf("outer rollback should discard the joined write, got %d", n)
	}
}

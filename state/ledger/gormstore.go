package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"bountyboard/engine/library"
)

// accountRow is one account in the accounts table.
type accountRow struct {
	Address   string `gorm:"primaryKey;type:char(64)"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountRow) TableName() string {
	return "accounts"
}

// GormStore keeps accounts in a SQL database. Each Update runs in a database transaction, reads
// take row locks, and new accounts are inserted so two writers racing to create the same address
// cannot both succeed.
type GormStore struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn), TranslateError: true})
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

// NewGormStore migrates the accounts table on db. Driver errors are translated so that a unique
// violation surfaces as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	db.Config.TranslateError = true
	if err := db.AutoMigrate(&accountRow{}); err != nil {
		return nil, fmt.Errorf("could not migrate accounts table: %s", err.Error())
	}
	return &GormStore{db: db}, nil
}

type gormReader struct {
	tx   *gorm.DB
	lock bool
}

func (r gormReader) Get(address library.Account) ([]byte, bool, error) {
	var row accountRow
	q := r.tx
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("address = ?", address).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Data, true, nil
}

func (s *GormStore) View(fn func(r Reader) error) error {
	return fn(gormReader{tx: s.db})
}

func (s *GormStore) Update(fn func(txn *Txn) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txn := newTxn(gormReader{tx: tx, lock: true})
		if err := fn(txn); err != nil {
			return err
		}
		for _, w := range txn.staged() {
			row := accountRow{Address: w.address, Data: w.data}
			if w.created {
				if err := tx.Create(&row).Error; err != nil {
					return createError(w.address, err)
				}
				continue
			}
			res := tx.Model(&accountRow{}).Where("address = ?", w.address).Update("data", w.data)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("%w: %s", library.ErrAccountNotFound, w.address)
			}
		}
		return nil
	})
}

// createError reports a colliding insert as ErrAlreadyInitialized and passes anything else through.
func createError(address library.Account, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", library.ErrAlreadyInitialized, address)
	}
	return err
}

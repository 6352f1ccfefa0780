package sqldb

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Beginner represents the value needed to start a transaction.
type Beginner interface {
	Begin() (CommitRollbacker, error)
}

// CommitRollbacker represents the value needed to commit or rollback a
// transaction.
type CommitRollbacker interface {
	Commit() error
	Rollback() error
}

// DBBeginner implements the Beginner interface for the sqlx DB value.
type DBBeginner struct {
	sqlxDB *sqlx.DB
}

// NewBeginner constructs a value that implements the beginner interface.
func NewBeginner(sqlxDB *sqlx.DB) *DBBeginner {
	return &DBBeginner{
		sqlxDB: sqlxDB,
	}
}

// Begin implements the Beginner interface.
func (db *DBBeginner) Begin() (CommitRollbacker, error) {
	tx, err := db.sqlxDB.Beginx()
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// GetExtContext is a helper function that extracts the sqlx value from the
// domain transactor interface for transactional use.
func GetExtContext(tx CommitRollbacker) (sqlx.ExtContext, error) {
	ec, ok := tx.(sqlx.ExtContext)
	if !ok {
		return nil, fmt.Errorf("Transactor(%T) not of a type *sql.Tx", tx)
	}

	return ec, nil
}

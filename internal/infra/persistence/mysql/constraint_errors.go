package mysql

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MySQL server error numbers the repositories care about.
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrBadNullColumn  = 1048
	mysqlErrNoDefault      = 1364
)

// Helper functions for MySQL error checking
func isUniqueConstraintViolation(err error) bool {
	// Check for GORM's translated duplicate key error first
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}

	return false
}

func isNotNullConstraintViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrBadNullColumn || mysqlErr.Number == mysqlErrNoDefault
	}

	// The SQLite test driver reports constraint failures by message only.
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "not null") || strings.Contains(errMsg, "cannot be null")
}

package dbx

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// server error numbers worth another attempt
var retryableCodes = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR
	1205: true, // ER_LOCK_WAIT_TIMEOUT
	1213: true, // ER_LOCK_DEADLOCK
	1317: true, // ER_QUERY_INTERRUPTED
	1969: true, // ER_STATEMENT_TIMEOUT (MariaDB)
	2006: true, // CR_SERVER_GONE_ERROR
	2013: true, // CR_SERVER_LOST
	3024: true, // ER_QUERY_TIMEOUT (MAX_EXECUTION_TIME)
}

// IsRetryable reports whether err is a transient connection or server error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return retryableCodes[me.Number]
	}

	return false
}

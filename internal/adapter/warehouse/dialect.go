package warehouse

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DialectorFactory builds a GORM dialector from a DSN.
type DialectorFactory func(dsn string) (gorm.Dialector, error)

var (
	dialectors   = make(map[string]DialectorFactory)
	dialectorsMu sync.RWMutex
)

func init() {
	RegisterDialector("sqlite", func(dsn string) (gorm.Dialector, error) {
		return sqlite.Open(sqliteDSN(dsn)), nil
	})
	RegisterDialector("postgres", func(dsn string) (gorm.Dialector, error) {
		return postgres.Open(dsn), nil
	})
	RegisterDialector("mysql", func(dsn string) (gorm.Dialector, error) {
		return mysql.Open(mysqlDSN(dsn)), nil
	})
}

// RegisterDialector makes a database driver available to Open.
func RegisterDialector(driver string, f DialectorFactory) {
	dialectorsMu.Lock()
	defer dialectorsMu.Unlock()
	dialectors[driver] = f
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	dialectorsMu.RLock()
	f, ok := dialectors[driver]
	dialectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no dialector registered for %q (have %s)", driver, strings.Join(Drivers(), ", "))
	}
	return f(dsn)
}

// Drivers lists the registered driver names.
func Drivers() []string {
	dialectorsMu.RLock()
	defer dialectorsMu.RUnlock()
	names := make([]string, 0, len(dialectors))
	for k := range dialectors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// sqliteDSN turns a bare path into a DSN with foreign keys enforced.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// mysqlDSN enables the options the migrations and time columns need.
func mysqlDSN(dsn string) string {
	for _, opt := range []string{"multiStatements=true", "parseTime=true"} {
		key := opt[:strings.Index(opt, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + opt
		} else {
			dsn += "?" + opt
		}
	}
	return dsn
}

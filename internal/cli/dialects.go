package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoobzio/eventql"
	"github.com/zoobzio/eventql/clickhouse"
	"github.com/zoobzio/eventql/mssql"
	"github.com/zoobzio/eventql/mysql"
	"github.com/zoobzio/eventql/native"
	"github.com/zoobzio/eventql/postgres"
	"github.com/zoobzio/eventql/sqlite"
)

var dialects = map[string]func() eventql.Dialect{
	"clickhouse": func() eventql.Dialect { return clickhouse.New() },
	"postgres":   func() eventql.Dialect { return postgres.New() },
	"sqlite":     func() eventql.Dialect { return sqlite.New() },
	"mysql":      func() eventql.Dialect { return mysql.New() },
	"mariadb":    func() eventql.Dialect { return mysql.New() },
	"mssql":      func() eventql.Dialect { return mssql.New() },
	"sqlserver":  func() eventql.Dialect { return mssql.New() },
	"eventql":    func() eventql.Dialect { return native.New() },
}

// DialectNames returns the names accepted by --dialect, sorted.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDialect returns a new renderer for a dialect name.
func GetDialect(name string) (eventql.Dialect, error) {
	newDialect, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q: must be one of %s", name, strings.Join(DialectNames(), ", "))
	}
	return newDialect(), nil
}

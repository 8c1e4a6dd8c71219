package eventql

import "github.com/zoobzio/eventql/internal/render"

// Print renders an already resolved, and for SQL dialects expanded, tree.
// Most callers use Compile.
func Print(n Node, d Dialect, db *Database) (string, error) {
	return render.Print(n, d, render.Context{Database: db})
}

package eventql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/eventql/internal/lazy"
	"github.com/zoobzio/eventql/internal/parser"
	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/resolver"
	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// DefaultMaxDepth bounds parse and resolution recursion.
const DefaultMaxDepth = parser.DefaultMaxDepth

// Compiler compiles queries against one schema. It holds no per-query
// state and is safe for concurrent use.
type Compiler struct {
	db       *schema.Database
	logger   *slog.Logger
	maxDepth int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for compile and expansion records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDepth sets the nesting limit of queries.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// New creates a compiler over db. An unfrozen database is frozen, which
// validates it.
func New(db *Database, opts ...Option) (*Compiler, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if !db.Frozen() {
		if err := db.Freeze(); err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
	}
	c := &Compiler{db: db, logger: slog.Default(), maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromDBML creates a compiler over the tables of a DBML project. Every
// column becomes a field; a team_id column becomes the team column.
func NewFromDBML(project *dbml.Project, opts ...Option) (*Compiler, error) {
	db, err := schema.FromDBML(project)
	if err != nil {
		return nil, err
	}
	return New(db, opts...)
}

// Database returns the compiler's schema.
func (c *Compiler) Database() *Database {
	return c.db
}

type compileConfig struct {
	placeholders   map[string]Expr
	teamID         *int64
	logComment     string
	propertyGroups bool
}

// CompileOption configures one compilation.
type CompileOption func(*compileConfig)

// WithPlaceholders fills {name} placeholders before resolution.
func WithPlaceholders(values map[string]Expr) CompileOption {
	return func(cfg *compileConfig) {
		cfg.placeholders = values
	}
}

// WithTeamID filters every physical table with a team column by team.
func WithTeamID(id int64) CompileOption {
	return func(cfg *compileConfig) {
		cfg.teamID = &id
	}
}

// WithLogComment replaces the log comment attached by dialects with
// SETTINGS. The default is a JSON object holding the query id.
func WithLogComment(comment string) CompileOption {
	return func(cfg *compileConfig) {
		cfg.logComment = comment
	}
}

// WithPropertyGroups reads properties from property group columns where
// the dialect supports them.
func WithPropertyGroups(enabled bool) CompileOption {
	return func(cfg *compileConfig) {
		cfg.propertyGroups = enabled
	}
}

// Compile parses, resolves, expands and prints query.
func (c *Compiler) Compile(ctx context.Context, query string, d Dialect, opts ...CompileOption) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := parser.ParseSelect(query, parser.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}
	return c.CompileTree(ctx, n, d, opts...)
}

// CompileTree compiles a parsed tree. The tree is typed and expanded in
// place and returned as QueryResult.Query.
func (c *Compiler) CompileTree(ctx context.Context, n Expr, d Dialect, opts ...CompileOption) (*QueryResult, error) {
	if d == nil {
		return nil, fmt.Errorf("dialect cannot be nil")
	}
	start := time.Now()
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	id := uuid.New()
	logger := c.logger.With(slog.String("query_id", id.String()), slog.String("dialect", d.Name()))

	if len(cfg.placeholders) > 0 {
		replaced, err := types.ReplacePlaceholders(n, cfg.placeholders)
		if err != nil {
			return nil, err
		}
		n = replaced
	}
	if err := types.Validate(n); err != nil {
		return nil, err
	}
	resolverOpts := []resolver.Option{resolver.WithMaxDepth(c.maxDepth)}
	if err := resolver.New(c.db, resolverOpts...).Resolve(n); err != nil {
		logger.Debug("resolution failed", slog.Any("error", err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Capabilities().LazyExpansion() {
		if err := lazy.New(c.db, logger, resolverOpts...).Expand(n); err != nil {
			logger.Warn("lazy expansion failed", slog.Any("error", err))
			return nil, err
		}
	}

	comment := cfg.logComment
	if comment == "" {
		raw, err := json.Marshal(map[string]string{"query_id": id.String()})
		if err != nil {
			return nil, err
		}
		comment = string(raw)
	}
	sql, err := render.Print(n, d, render.Context{
		Database:       c.db,
		TeamID:         cfg.teamID,
		LogComment:     comment,
		PropertyGroups: cfg.propertyGroups,
	})
	if err != nil {
		logger.Debug("print failed", slog.Any("error", err))
		return nil, err
	}

	logger.Debug("compiled query", slog.Duration("duration", time.Since(start)))
	return &QueryResult{SQL: sql, Query: n, QueryID: id, Dialect: d.Name()}, nil
}

// CompileString is Compile without a context or options, for tests and
// tools.
func (c *Compiler) CompileString(query string, d Dialect) (string, error) {
	result, err := c.Compile(context.Background(), query, d)
	if err != nil {
		return "", err
	}
	return result.SQL, nil
}

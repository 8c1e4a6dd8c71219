package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoobzio/eventql/internal/types"
)

// DefaultMaxDepth bounds how deeply expressions and selects may nest.
const DefaultMaxDepth = 256

// reserved words cannot be used as bare identifiers or implicit aliases.
var reserved = map[string]bool{
	"ALL": true, "AND": true, "ANTI": true, "ANY": true, "ARRAY": true, "AS": true,
	"ASC": true, "ASOF": true, "BETWEEN": true, "BY": true, "CROSS": true, "DESC": true,
	"DISTINCT": true, "FALSE": true, "FINAL": true, "FROM": true, "FULL": true,
	"GLOBAL": true, "GROUP": true, "HAVING": true, "ILIKE": true, "IN": true,
	"INNER": true, "INTERVAL": true, "IS": true, "JOIN": true, "LEFT": true,
	"LIKE": true, "LIMIT": true, "NOT": true, "NULL": true, "OFFSET": true, "ON": true,
	"OR": true, "ORDER": true, "OUTER": true, "PREWHERE": true, "RIGHT": true,
	"SAMPLE": true, "SELECT": true, "SEMI": true, "TRUE": true, "UNION": true,
	"WHERE": true, "WITH": true,
}

// IsReserved reports whether word must be quoted to be used as an
// identifier.
func IsReserved(word string) bool {
	return reserved[strings.ToUpper(word)]
}

var joinWords = map[string]bool{
	"GLOBAL": true, "ANY": true, "ALL": true, "ASOF": true, "SEMI": true, "ANTI": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true,
}

var intervalUnits = map[string]string{
	"SECOND": "Second", "MINUTE": "Minute", "HOUR": "Hour", "DAY": "Day",
	"WEEK": "Week", "MONTH": "Month", "YEAR": "Year",
}

// Option configures parsing.
type Option func(*Parser)

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
}

func newParser(src string, opts []Option) (*Parser, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ParseSelect parses a SELECT statement or a UNION ALL of them.
func ParseSelect(src string, opts ...Option) (types.Expr, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	q, err := p.parseSelectUnion()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseExpr parses a single expression.
func ParseExpr(src string, opts ...Option) (types.Expr, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return e, nil
}

// ===== Token helpers =====

func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) peekIs(typ TokenType) bool {
	return p.peek().Typ == typ
}

func isKeyword(tok Token, kw string) bool {
	return tok.Typ == IDENT && strings.EqualFold(tok.Lit, kw)
}

func (p *Parser) keyword(kw string) bool {
	return isKeyword(p.peek(), kw)
}

// acceptKeyword consumes the keyword sequence kws if it comes next.
func (p *Parser) acceptKeyword(kws ...string) bool {
	for i, kw := range kws {
		if !isKeyword(p.peekAt(i), kw) {
			return false
		}
	}
	p.pos += len(kws)
	return true
}

func (p *Parser) expectKeyword(kws ...string) error {
	if !p.acceptKeyword(kws...) {
		return p.fail(p.peek(), "expected %s, got %s", strings.Join(kws, " "), describe(p.peek()))
	}
	return nil
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	if !p.peekIs(typ) {
		return Token{}, p.fail(p.peek(), "expected %s, got %s", typ, describe(p.peek()))
	}
	return p.next(), nil
}

func (p *Parser) expectEOF() error {
	if !p.peekIs(EOF) {
		return p.fail(p.peek(), "unexpected %s", describe(p.peek()))
	}
	return nil
}

func (p *Parser) fail(tok Token, format string, args ...any) error {
	return types.SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func describe(tok Token) string {
	switch tok.Typ {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string '%s'", tok.Lit)
	}
	return fmt.Sprintf("%q", tok.Lit)
}

// enter guards recursion.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return types.RecursionLimitError{Limit: p.maxDepth}
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// identifier consumes a bare or quoted identifier.
func (p *Parser) identifier() (string, error) {
	tok := p.peek()
	switch {
	case tok.Typ == QIDENT:
		p.next()
		return tok.Lit, nil
	case tok.Typ == IDENT && !reserved[strings.ToUpper(tok.Lit)]:
		p.next()
		return tok.Lit, nil
	}
	return "", p.fail(tok, "expected identifier, got %s", describe(tok))
}

// aliasAhead reports whether the next token can be an implicit alias.
func (p *Parser) aliasAhead() bool {
	tok := p.peek()
	return tok.Typ == QIDENT || (tok.Typ == IDENT && !reserved[strings.ToUpper(tok.Lit)])
}

// ===== Statements =====

func (p *Parser) parseSelectUnion() (types.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var queries []*types.SelectQuery
	add := func(e types.Expr) {
		switch e := e.(type) {
		case *types.SelectQuery:
			queries = append(queries, e)
		case *types.SelectUnionQuery:
			queries = append(queries, e.SelectQueries...)
		}
	}
	first, err := p.parseSelectOrParens()
	if err != nil {
		return nil, err
	}
	add(first)
	for p.keyword("UNION") {
		p.next()
		if !p.acceptKeyword("ALL") {
			return nil, p.fail(p.peek(), "only UNION ALL is supported")
		}
		next, err := p.parseSelectOrParens()
		if err != nil {
			return nil, err
		}
		add(next)
	}
	if len(queries) == 1 {
		return queries[0], nil
	}
	return &types.SelectUnionQuery{SelectQueries: queries}, nil
}

func (p *Parser) parseSelectOrParens() (types.Expr, error) {
	if p.peekIs(LPAREN) {
		p.next()
		q, err := p.parseSelectUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return q, nil
	}
	return p.parseSelect()
}

func (p *Parser) parseSelect() (*types.SelectQuery, error) {
	q := &types.SelectQuery{}
	var err error

	if p.acceptKeyword("WITH") {
		if q.With, err = p.parseWith(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q.Distinct = p.acceptKeyword("DISTINCT")
	if q.Select, err = p.parseSelectList(); err != nil {
		return nil, err
	}
	if p.acceptKeyword("FROM") {
		if q.SelectFrom, err = p.parseJoinChain(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("PREWHERE") {
		if q.Prewhere, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("WHERE") {
		if q.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("GROUP", "BY") {
		if q.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("HAVING") {
		if q.Having, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("ORDER", "BY") {
		if q.OrderBy, err = p.parseOrderList(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("LIMIT") {
		if q.Limit, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if p.peekIs(COMMA) {
			p.next()
			q.Offset = q.Limit
			if q.Limit, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
	}
	if p.acceptKeyword("OFFSET") {
		if q.Offset, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// parseWith reads WITH entries: name AS (select) or expr AS name.
func (p *Parser) parseWith() ([]*types.Macro, error) {
	var macros []*types.Macro
	for {
		var m *types.Macro
		if (p.peekIs(IDENT) || p.peekIs(QIDENT)) && isKeyword(p.peekAt(1), "AS") && p.peekAt(2).Typ == LPAREN &&
			(isKeyword(p.peekAt(3), "SELECT") || isKeyword(p.peekAt(3), "WITH") || p.peekAt(3).Typ == LPAREN) {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			p.next() // AS
			q, err := p.parseSelectOrParens()
			if err != nil {
				return nil, err
			}
			m = &types.Macro{Name: name, Expr: q, Kind: types.SubqueryMacro}
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return nil, err
			}
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			m = &types.Macro{Name: name, Expr: e, Kind: types.ColumnMacro}
		}
		macros = append(macros, m)
		if !p.peekIs(COMMA) {
			return macros, nil
		}
		p.next()
	}
}

func (p *Parser) parseSelectList() ([]types.Expr, error) {
	var out []types.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.acceptKeyword("AS") || p.aliasAhead() {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			e = &types.Alias{Alias: name, Expr: e}
		}
		out = append(out, e)
		if !p.peekIs(COMMA) {
			return out, nil
		}
		p.next()
	}
}

func (p *Parser) parseOrderList() ([]*types.OrderExpr, error) {
	var out []*types.OrderExpr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		order := types.ASC
		if p.acceptKeyword("DESC") {
			order = types.DESC
		} else {
			p.acceptKeyword("ASC")
		}
		out = append(out, &types.OrderExpr{Expr: e, Order: order})
		if !p.peekIs(COMMA) {
			return out, nil
		}
		p.next()
	}
}

func (p *Parser) parseJoinChain() (*types.JoinExpr, error) {
	first, err := p.parseTableItem("")
	if err != nil {
		return nil, err
	}
	last := first
	for {
		var joinType string
		switch {
		case p.peekIs(COMMA):
			p.next()
			joinType = "CROSS JOIN"
		default:
			jt, ok := p.parseJoinType()
			if !ok {
				return first, nil
			}
			joinType = jt
		}
		item, err := p.parseTableItem(joinType)
		if err != nil {
			return nil, err
		}
		if p.acceptKeyword("ON") {
			if item.Constraint, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		last.Next = item
		last = item
	}
}

// parseJoinType reads [GLOBAL] [ANY|ALL|...] [INNER|LEFT|...] [OUTER] JOIN.
func (p *Parser) parseJoinType() (string, bool) {
	start := p.pos
	var words []string
	for p.peekIs(IDENT) && joinWords[strings.ToUpper(p.peek().Lit)] {
		words = append(words, strings.ToUpper(p.next().Lit))
	}
	if !p.acceptKeyword("JOIN") {
		p.pos = start
		return "", false
	}
	return strings.Join(append(words, "JOIN"), " "), true
}

func (p *Parser) parseTableItem(joinType string) (*types.JoinExpr, error) {
	j := &types.JoinExpr{JoinType: joinType}
	switch {
	case p.peekIs(LPAREN):
		p.next()
		q, err := p.parseSelectUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		j.Table = q
	case p.peekIs(LBRACE):
		ph, err := p.parsePlaceholder()
		if err != nil {
			return nil, err
		}
		j.Table = ph
	default:
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		chain := []string{name}
		for p.peekIs(DOT) {
			p.next()
			part, err := p.identifier()
			if err != nil {
				return nil, err
			}
			chain = append(chain, part)
		}
		j.Table = &types.Field{Chain: chain}
	}

	if p.acceptKeyword("AS") || p.aliasAhead() {
		alias, err := p.identifier()
		if err != nil {
			return nil, err
		}
		j.Alias = alias
	}
	j.Final = p.acceptKeyword("FINAL")
	if p.acceptKeyword("SAMPLE") {
		ratio, err := p.parseRatio()
		if err != nil {
			return nil, err
		}
		j.Sample = &types.SampleExpr{Ratio: ratio}
		if p.acceptKeyword("OFFSET") {
			if j.Sample.Offset, err = p.parseRatio(); err != nil {
				return nil, err
			}
		}
	}
	return j, nil
}

func (p *Parser) parseRatio() (*types.RatioExpr, error) {
	left, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	r := &types.RatioExpr{Left: left}
	if p.peekIs(SLASH) {
		p.next()
		if r.Right, err = p.parseNumber(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (p *Parser) parseNumber() (*types.Constant, error) {
	tok, err := p.expect(NUMBER)
	if err != nil {
		return nil, err
	}
	return numberConstant(tok), nil
}

func numberConstant(tok Token) *types.Constant {
	if i, err := strconv.ParseInt(tok.Lit, 10, 64); err == nil {
		return &types.Constant{Value: i}
	}
	f, _ := strconv.ParseFloat(tok.Lit, 64)
	return &types.Constant{Value: f}
}

func (p *Parser) parsePlaceholder() (*types.Placeholder, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return &types.Placeholder{Name: name}, nil
}

// ===== Expressions =====

func (p *Parser) parseExprList() ([]types.Expr, error) {
	var out []types.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if !p.peekIs(COMMA) {
			return out, nil
		}
		p.next()
	}
}

// parseExpr is the entry point for expressions. Lambdas bind loosest.
func (p *Parser) parseExpr() (types.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if args, ok := p.lambdaArgs(); ok {
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &types.Lambda{Args: args, Expr: body}, nil
	}
	return p.parseOr()
}

// lambdaArgs consumes "x ->" or "(x, y) ->" when it comes next.
func (p *Parser) lambdaArgs() ([]string, bool) {
	tok := p.peek()
	if (tok.Typ == IDENT || tok.Typ == QIDENT) && p.peekAt(1).Typ == ARROW {
		p.pos += 2
		return []string{tok.Lit}, true
	}
	if tok.Typ != LPAREN {
		return nil, false
	}
	var args []string
	for i := 1; ; i += 2 {
		name := p.peekAt(i)
		if name.Typ != IDENT && name.Typ != QIDENT {
			return nil, false
		}
		args = append(args, name.Lit)
		switch p.peekAt(i + 1).Typ {
		case COMMA:
			continue
		case RPAREN:
			if p.peekAt(i+2).Typ != ARROW {
				return nil, false
			}
			p.pos += i + 3
			return args, true
		default:
			return nil, false
		}
	}
}

func (p *Parser) parseOr() (types.Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	exprs := []types.Expr{first}
	for p.acceptKeyword("OR") {
		e, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return first, nil
	}
	return &types.Or{Exprs: exprs}, nil
}

func (p *Parser) parseAnd() (types.Expr, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	exprs := []types.Expr{first}
	for p.acceptKeyword("AND") {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return first, nil
	}
	return &types.And{Exprs: exprs}, nil
}

func (p *Parser) parseNot() (types.Expr, error) {
	if p.acceptKeyword("NOT") {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &types.Not{Expr: e}, nil
	}
	return p.parseComparison()
}

var compareTokens = map[TokenType]types.CompareOperationOp{
	EQ:   types.Eq,
	EQ2:  types.Eq,
	NEQ:  types.NotEq,
	LTGT: types.NotEq,
	LT:   types.Lt,
	GT:   types.Gt,
	LTE:  types.LtE,
	GTE:  types.GtE,
}

var compareKeywords = []struct {
	words []string
	op    types.CompareOperationOp
}{
	{[]string{"NOT", "LIKE"}, types.NotLike},
	{[]string{"NOT", "ILIKE"}, types.NotILike},
	{[]string{"NOT", "IN"}, types.NotIn},
	{[]string{"LIKE"}, types.Like},
	{[]string{"ILIKE"}, types.ILike},
	{[]string{"IN"}, types.In},
}

// parseComparison handles one non-associative comparison.
func (p *Parser) parseComparison() (types.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if op, ok := compareTokens[p.peek().Typ]; ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &types.CompareOperation{Left: left, Right: right, Op: op}, nil
	}
	for _, kw := range compareKeywords {
		if p.acceptKeyword(kw.words...) {
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &types.CompareOperation{Left: left, Right: right, Op: kw.op}, nil
		}
	}
	switch {
	case p.acceptKeyword("IS", "NOT", "NULL"):
		return &types.CompareOperation{Left: left, Right: &types.Constant{}, Op: types.NotEq}, nil
	case p.acceptKeyword("IS", "NULL"):
		return &types.CompareOperation{Left: left, Right: &types.Constant{}, Op: types.Eq}, nil
	case p.acceptKeyword("BETWEEN"):
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &types.And{Exprs: []types.Expr{
			&types.CompareOperation{Left: left, Right: low, Op: types.GtE},
			&types.CompareOperation{Left: types.Clone(left), Right: high, Op: types.LtE},
		}}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (types.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op types.BinaryOperationOp
		switch tok.Typ {
		case PLUS:
			op = types.Add
		case MINUS:
			op = types.Sub
		case CONCAT:
			p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			if c, ok := left.(*types.Call); ok && c.Name == "concat" {
				c.Args = append(c.Args, right)
			} else {
				left = &types.Call{Name: "concat", Args: []types.Expr{left, right}}
			}
			continue
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &types.BinaryOperation{Left: left, Right: right, Op: op}
	}
}

func (p *Parser) parseMultiplicative() (types.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op types.BinaryOperationOp
		switch p.peek().Typ {
		case STAR:
			op = types.Mult
		case SLASH:
			op = types.Div
		case PERCENT:
			op = types.Mod
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &types.BinaryOperation{Left: left, Right: right, Op: op}
	}
}

func (p *Parser) parseUnary() (types.Expr, error) {
	switch p.peek().Typ {
	case MINUS:
		p.next()
		if p.peekIs(NUMBER) {
			c := numberConstant(p.next())
			switch v := c.Value.(type) {
			case int64:
				c.Value = -v
			case float64:
				c.Value = -v
			}
			return p.parsePostfix(c)
		}
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &types.BinaryOperation{Left: &types.Constant{Value: int64(0)}, Right: e, Op: types.Sub}, nil
	case PLUS:
		p.next()
		return p.parseUnary()
	}
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(e)
}

// parsePostfix applies [index], .N tuple access and .name chain steps.
func (p *Parser) parsePostfix(e types.Expr) (types.Expr, error) {
	for {
		switch p.peek().Typ {
		case LBRACKET:
			p.next()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			e = &types.ArrayAccess{Array: e, Index: idx}
		case DOT:
			dot := p.next()
			tok := p.peek()
			switch {
			case tok.Typ == NUMBER:
				p.next()
				n, err := strconv.Atoi(tok.Lit)
				if err != nil {
					return nil, p.fail(tok, "invalid tuple index %s", tok.Lit)
				}
				e = &types.TupleAccess{Tuple: e, Index: n}
			case tok.Typ == IDENT || tok.Typ == QIDENT || tok.Typ == STAR:
				f, ok := e.(*types.Field)
				if !ok || f.Chain[len(f.Chain)-1] == "*" {
					return nil, p.fail(dot, "unexpected %s", describe(dot))
				}
				p.next()
				f.Chain = append(f.Chain, tok.Lit)
			default:
				return nil, p.fail(tok, "expected field name after '.', got %s", describe(tok))
			}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (types.Expr, error) {
	tok := p.peek()
	switch tok.Typ {
	case NUMBER:
		p.next()
		return numberConstant(tok), nil
	case STRING:
		p.next()
		return &types.Constant{Value: tok.Lit}, nil
	case LBRACE:
		return p.parsePlaceholder()
	case STAR:
		p.next()
		return &types.Field{Chain: []string{"*"}}, nil
	case LBRACKET:
		p.next()
		arr := &types.Array{}
		if !p.peekIs(RBRACKET) {
			exprs, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			arr.Exprs = exprs
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return arr, nil
	case LPAREN:
		return p.parseParens()
	case QIDENT:
		p.next()
		return &types.Field{Chain: []string{tok.Lit}}, nil
	case IDENT:
		return p.parseIdent()
	}
	return nil, p.fail(tok, "unexpected %s", describe(tok))
}

// parseParens reads a scalar subquery, a parenthesized expression or a tuple.
func (p *Parser) parseParens() (types.Expr, error) {
	if isKeyword(p.peekAt(1), "SELECT") || isKeyword(p.peekAt(1), "WITH") {
		p.next()
		q, err := p.parseSelectUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return q, nil
	}
	p.next()
	exprs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &types.Tuple{Exprs: exprs}, nil
}

func (p *Parser) parseIdent() (types.Expr, error) {
	tok := p.peek()
	switch strings.ToUpper(tok.Lit) {
	case "TRUE":
		p.next()
		return &types.Constant{Value: true}, nil
	case "FALSE":
		p.next()
		return &types.Constant{Value: false}, nil
	case "NULL":
		p.next()
		return &types.Constant{}, nil
	case "INTERVAL":
		p.next()
		return p.parseInterval()
	}
	if p.peekAt(1).Typ == LPAREN {
		return p.parseCall()
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	return &types.Field{Chain: []string{name}}, nil
}

// parseInterval reads the tail of INTERVAL n UNIT as toInterval<Unit>(n).
func (p *Parser) parseInterval() (types.Expr, error) {
	value, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	unit := strings.TrimSuffix(strings.ToUpper(tok.Lit), "S")
	suffix, ok := intervalUnits[unit]
	if tok.Typ != IDENT || !ok {
		return nil, p.fail(tok, "expected interval unit, got %s", describe(tok))
	}
	p.next()
	return &types.Call{Name: "toInterval" + suffix, Args: []types.Expr{value}}, nil
}

func (p *Parser) parseCall() (types.Expr, error) {
	name := p.next().Lit
	p.next() // (
	call := &types.Call{Name: name}
	call.Distinct = p.acceptKeyword("DISTINCT")
	if !p.peekIs(RPAREN) {
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		call.Args = args
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

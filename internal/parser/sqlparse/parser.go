package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dwoolworth/mgosh/internal/lexer"
)

// partialErr signals that the parser ran out of input mid-production; it is
// converted into a StatusPartial Outcome by Parse.
type partialErr struct {
	clause   Clause
	expected []Expected
}

func (e *partialErr) Error() string { return "partial parse" }

// hardErr signals an unrecoverable syntax error.
type hardErr struct {
	pe *ParseError
}

func (e *hardErr) Error() string { return e.pe.Error() }

type parser struct {
	toks   []lexer.SQLToken
	pos    int
	clause Clause
}

// Parse tokenizes and parses a SQL (optionally EXPLAIN-wrapped) SELECT
// statement, returning the three-state Outcome described in spec.md §4.2.
func Parse(input string) *Outcome {
	toks, err := lexer.NewSQLLexer(input).Tokenize()
	if err != nil {
		return &Outcome{Status: StatusError, Err: &ParseError{Message: err.Error()}}
	}
	p := &parser{toks: toks}
	stmt, err := p.parseTop()
	if err == nil {
		if p.cur().Kind != lexer.SQLEOF {
			return &Outcome{Status: StatusError, Stmt: stmt, CurrentClause: p.clause,
				Err: &ParseError{Message: fmt.Sprintf("unexpected trailing token %q", p.cur().Text)}}
		}
		return &Outcome{Status: StatusOK, Stmt: stmt, CurrentClause: p.clause}
	}
	switch e := err.(type) {
	case *partialErr:
		return &Outcome{Status: StatusPartial, Stmt: stmt, CurrentClause: e.clause, Expected: e.expected}
	case *hardErr:
		return &Outcome{Status: StatusError, Stmt: stmt, CurrentClause: p.clause, Err: e.pe}
	default:
		return &Outcome{Status: StatusError, Stmt: stmt, Err: &ParseError{Message: err.Error()}}
	}
}

func (p *parser) cur() lexer.SQLToken { return p.toks[p.pos] }

func (p *parser) atEOF() bool { return p.cur().Kind == lexer.SQLEOF }

func (p *parser) advance() lexer.SQLToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur().Kind == lexer.SQLKeyword && p.cur().Text == kw
}

// expectOrPartial consumes the expected keyword, or fails as Partial (EOF)
// or hard Error (wrong token present).
func (p *parser) expectOrPartial(kw string, expected []Expected) error {
	if p.isKeyword(kw) {
		p.advance()
		return nil
	}
	if p.atEOF() {
		return &partialErr{clause: p.clause, expected: expected}
	}
	return &hardErr{pe: &ParseError{
		Message: fmt.Sprintf("expected %s, found %q", kw, p.cur().Text),
	}}
}

func (p *parser) failHere(expected []Expected, hardMsg string, hint string) error {
	if p.atEOF() {
		return &partialErr{clause: p.clause, expected: expected}
	}
	return &hardErr{pe: &ParseError{Message: fmt.Sprintf(hardMsg, p.cur().Text), Hint: hint}}
}

func (p *parser) parseTop() (*SelectStmt, error) {
	stmt := &SelectStmt{Verbosity: VerbosityQueryPlanner}

	if p.isKeyword("EXPLAIN") {
		p.advance()
		stmt.Explain = true
		if p.cur().Kind == lexer.SQLIdent {
			v, err := parseVerbosityIdent(p.advance().Text)
			if err != nil {
				return stmt, &hardErr{pe: &ParseError{Message: err.Error()}}
			}
			stmt.Verbosity = v
		} else if p.isKeyword("TRUE") {
			p.advance()
			stmt.Verbosity = VerbosityAllPlansExecution
		} else if p.isKeyword("FALSE") {
			p.advance()
			stmt.Verbosity = VerbosityQueryPlanner
		}
	}

	p.clause = ClauseSelect
	if err := p.expectOrPartial("SELECT", []Expected{{Kind: ExpectedKeyword, Keyword: "SELECT"}}); err != nil {
		return stmt, err
	}

	items, err := p.parseSelectList()
	if err != nil {
		return stmt, err
	}
	stmt.Items = items

	p.clause = ClauseFrom
	if err := p.expectOrPartial("FROM", []Expected{{Kind: ExpectedKeyword, Keyword: "FROM"}}); err != nil {
		return stmt, err
	}
	if p.atEOF() {
		return stmt, &partialErr{clause: ClauseFrom, expected: []Expected{{Kind: ExpectedTableName}}}
	}
	if p.cur().Kind != lexer.SQLIdent {
		return stmt, &hardErr{pe: &ParseError{Message: fmt.Sprintf("expected table name, found %q", p.cur().Text)}}
	}
	stmt.From = p.advance().Text

	if err := p.parseOptionalClauses(stmt); err != nil {
		return stmt, err
	}
	return stmt, nil
}

func parseVerbosityIdent(s string) (ExplainVerbosity, error) {
	switch strings.ToLower(s) {
	case "queryplanner":
		return VerbosityQueryPlanner, nil
	case "executionstats":
		return VerbosityExecutionStats, nil
	case "allplansexecution":
		return VerbosityAllPlansExecution, nil
	default:
		return "", fmt.Errorf("invalid explain verbosity %q", s)
	}
}

var clauseOrder = map[string]Clause{
	"WHERE":    ClauseWhere,
	"GROUP BY": ClauseGroupBy,
	"ORDER BY": ClauseOrderBy,
	"LIMIT":    ClauseLimit,
	"OFFSET":   ClauseOffset,
}

func (p *parser) parseOptionalClauses(stmt *SelectStmt) error {
	stage := ClauseWhere
	for {
		if p.atEOF() {
			return nil
		}
		if p.cur().Kind != lexer.SQLKeyword {
			return nil
		}
		idx, recognized := clauseOrder[p.cur().Text]
		if !recognized {
			return nil
		}
		if idx < stage {
			return &hardErr{pe: &ParseError{
				Message: fmt.Sprintf("%s cannot follow a later clause", p.cur().Text),
				Hint:    "clauses must appear in the order WHERE, GROUP BY, ORDER BY, LIMIT, OFFSET",
			}}
		}
		stage = idx + 1

		switch idx {
		case ClauseWhere:
			p.advance()
			p.clause = ClauseWhere
			expr, err := p.parseOrExpr()
			if err != nil {
				return err
			}
			stmt.Where = expr
		case ClauseGroupBy:
			p.advance()
			p.clause = ClauseGroupBy
			fields, err := p.parseFieldList()
			if err != nil {
				return err
			}
			stmt.GroupBy = fields
		case ClauseOrderBy:
			p.advance()
			p.clause = ClauseOrderBy
			items, err := p.parseOrderByList()
			if err != nil {
				return err
			}
			stmt.OrderBy = items
		case ClauseLimit:
			p.advance()
			p.clause = ClauseLimit
			n, err := p.parseIntLiteral([]Expected{{Kind: ExpectedNumber}})
			if err != nil {
				return err
			}
			stmt.Limit = &n
		case ClauseOffset:
			p.advance()
			p.clause = ClauseOffset
			n, err := p.parseIntLiteral([]Expected{{Kind: ExpectedNumber}})
			if err != nil {
				return err
			}
			stmt.Offset = &n
		}
	}
}

func (p *parser) parseIntLiteral(expected []Expected) (int64, error) {
	if p.atEOF() {
		return 0, &partialErr{clause: p.clause, expected: expected}
	}
	if p.cur().Kind != lexer.SQLInt {
		return 0, &hardErr{pe: &ParseError{Message: fmt.Sprintf("expected number, found %q", p.cur().Text)}}
	}
	n, err := strconv.ParseInt(p.advance().Text, 10, 64)
	if err != nil {
		return 0, &hardErr{pe: &ParseError{Message: "invalid integer literal"}}
	}
	return n, nil
}

// --- select list ---

func (p *parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return items, err
		}
		items = append(items, item)
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		return items, nil
	}
}

var aggFuncs = map[string]AggFunc{
	"COUNT": AggCount, "SUM": AggSum, "AVG": AggAvg, "MIN": AggMin, "MAX": AggMax,
}

func selectItemExpected() []Expected {
	return []Expected{{Kind: ExpectedStar}, {Kind: ExpectedColumnName}, {Kind: ExpectedAggregateFunction}}
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	if p.atEOF() {
		return SelectItem{}, &partialErr{clause: ClauseSelect, expected: selectItemExpected()}
	}
	if p.cur().Kind == lexer.SQLOperator && p.cur().Text == "*" {
		p.advance()
		return SelectItem{Kind: ItemStar}, nil
	}
	if p.cur().Kind == lexer.SQLKeyword {
		if fn, ok := aggFuncs[p.cur().Text]; ok {
			return p.parseAggregateItem(fn)
		}
	}
	if p.cur().Kind != lexer.SQLIdent {
		return SelectItem{}, &hardErr{pe: &ParseError{Message: fmt.Sprintf("expected column, *, or aggregate, found %q", p.cur().Text)}}
	}
	path, err := p.parsePathString()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Kind: ItemField, Path: path}
	if p.isKeyword("AS") {
		p.advance()
		alias, err := p.parseIdentLiteral([]Expected{{Kind: ExpectedColumnName}})
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

func (p *parser) parseAggregateItem(fn AggFunc) (SelectItem, error) {
	p.advance() // consume function keyword
	if err := p.expectPunct("(", []Expected{{Kind: ExpectedOperator}}); err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Kind: ItemAggregate, Func: fn}
	if p.isKeyword("DISTINCT") {
		p.advance()
		item.Distinct = true
	}
	if p.cur().Kind == lexer.SQLOperator && p.cur().Text == "*" {
		p.advance()
		item.ArgStar = true
	} else {
		path, err := p.parsePathString()
		if err != nil {
			return SelectItem{}, err
		}
		item.ArgPath = path
	}
	if err := p.expectPunct(")", []Expected{{Kind: ExpectedOperator}}); err != nil {
		return SelectItem{}, err
	}
	if p.isKeyword("AS") {
		p.advance()
		alias, err := p.parseIdentLiteral([]Expected{{Kind: ExpectedColumnName}})
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

func (p *parser) expectPunct(s string, expected []Expected) error {
	if p.cur().Kind == lexer.SQLPunct && p.cur().Text == s {
		p.advance()
		return nil
	}
	return p.failHere(expected, "expected "+s+", found %q", "")
}

func (p *parser) parseIdentLiteral(expected []Expected) (string, error) {
	if p.atEOF() {
		return "", &partialErr{clause: p.clause, expected: expected}
	}
	if p.cur().Kind != lexer.SQLIdent {
		return "", &hardErr{pe: &ParseError{Message: fmt.Sprintf("expected identifier, found %q", p.cur().Text)}}
	}
	return p.advance().Text, nil
}

// parsePathString collects a dotted/bracketed field path (a.b.c,
// items[0].price, tags[*]) into its source-syntax string form.
func (p *parser) parsePathString() (string, error) {
	if p.atEOF() {
		return "", &partialErr{clause: p.clause, expected: []Expected{{Kind: ExpectedColumnName}}}
	}
	if p.cur().Kind != lexer.SQLIdent {
		return "", &hardErr{pe: &ParseError{Message: fmt.Sprintf("expected column name, found %q", p.cur().Text)}}
	}
	var b strings.Builder
	b.WriteString(p.advance().Text)
	for {
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "." {
			p.advance()
			name, err := p.parseIdentLiteral([]Expected{{Kind: ExpectedColumnName}})
			if err != nil {
				return "", err
			}
			b.WriteByte('.')
			b.WriteString(name)
			continue
		}
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "[" {
			p.advance()
			if p.cur().Kind == lexer.SQLOperator && p.cur().Text == "*" {
				p.advance()
				b.WriteString("[*]")
			} else if p.cur().Kind == lexer.SQLInt {
				b.WriteByte('[')
				b.WriteString(p.advance().Text)
				b.WriteByte(']')
			} else {
				return "", &hardErr{pe: &ParseError{Message: "expected array index or '*' inside '['"}}
			}
			if err := p.expectPunct("]", nil); err != nil {
				return "", err
			}
			continue
		}
		break
	}
	return b.String(), nil
}

func (p *parser) parseFieldList() ([]string, error) {
	var fields []string
	for {
		f, err := p.parsePathString()
		if err != nil {
			return fields, err
		}
		fields = append(fields, f)
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		return fields, nil
	}
}

func (p *parser) parseOrderByList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		path, err := p.parsePathString()
		if err != nil {
			return items, err
		}
		item := OrderItem{Path: path}
		if p.isKeyword("ASC") {
			p.advance()
		} else if p.isKeyword("DESC") {
			p.advance()
			item.Desc = true
		}
		items = append(items, item)
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		return items, nil
	}
}

// --- WHERE / value expressions: Pratt parser ---
// Precedence (spec.md §4.2): OR(1) < AND(3) < comparisons < +/-(9) < * / %(11)

func (p *parser) parseOrExpr() (*Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (*Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNotExpr() (*Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"=": true, "!=": true, "<>": true, ">": true, "<": true, ">=": true, "<=": true}

func (p *parser) parseComparison() (*Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.cur().Kind == lexer.SQLOperator && comparisonOps[p.cur().Text] {
		op := p.advance().Text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprBinary, Op: op, Left: left, Right: right}, nil
	}

	negated := false
	if p.isKeyword("NOT") {
		// lookahead: NOT IN; NOT followed by anything else is left unconsumed
		save := p.pos
		p.advance()
		if p.isKeyword("IN") {
			negated = true
		} else {
			p.pos = save
			return left, nil
		}
	}

	if p.isKeyword("IN") {
		p.advance()
		list, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprIn, Negated: negated, Left: left, List: list}, nil
	}
	if p.isKeyword("LIKE") {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprBinary, Op: "LIKE", Left: left, Right: right}, nil
	}
	if p.isKeyword("IS") {
		p.advance()
		notNull := false
		if p.isKeyword("NOT") {
			p.advance()
			notNull = true
		}
		if err := p.expectKeywordOrFail("NULL"); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprIsNull, Left: left, IsNotNull: notNull}, nil
	}
	return left, nil
}

func (p *parser) expectKeywordOrFail(kw string) error {
	if p.isKeyword(kw) {
		p.advance()
		return nil
	}
	return p.failHere([]Expected{{Kind: ExpectedKeyword, Keyword: kw}}, "expected "+kw+", found %q", "")
}

func (p *parser) parseValueList() ([]*Expr, error) {
	if err := p.expectPunct("(", []Expected{{Kind: ExpectedOperator}}); err != nil {
		return nil, err
	}
	var list []*Expr
	for {
		v, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		if p.cur().Kind == lexer.SQLPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")", []Expected{{Kind: ExpectedOperator}}); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parseAdditive() (*Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.SQLOperator && (p.cur().Text == "+" || p.cur().Text == "-") {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.SQLOperator && (p.cur().Text == "*" || p.cur().Text == "/" || p.cur().Text == "%") {
		op := p.advance().Text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Expr, error) {
	if p.cur().Kind == lexer.SQLOperator && p.cur().Text == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Expr, error) {
	if p.atEOF() {
		return nil, &partialErr{clause: p.clause, expected: []Expected{{Kind: ExpectedColumnName}, {Kind: ExpectedExpression}}}
	}
	tok := p.cur()
	switch tok.Kind {
	case lexer.SQLPunct:
		if tok.Text == "(" {
			p.advance()
			inner, err := p.parseOrExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")", []Expected{{Kind: ExpectedOperator}}); err != nil {
				return nil, err
			}
			return inner, nil
		}
	case lexer.SQLString:
		p.advance()
		return &Expr{Kind: ExprString, Str: tok.Text}, nil
	case lexer.SQLInt:
		p.advance()
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return &Expr{Kind: ExprInt, Int: n}, nil
	case lexer.SQLFloat:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Text, 64)
		return &Expr{Kind: ExprFloat, Float: f}, nil
	case lexer.SQLKeyword:
		switch tok.Text {
		case "TRUE":
			p.advance()
			return &Expr{Kind: ExprBool, Bool: true}, nil
		case "FALSE":
			p.advance()
			return &Expr{Kind: ExprBool, Bool: false}, nil
		case "NULL":
			p.advance()
			return &Expr{Kind: ExprNull}, nil
		case "DATE", "TIMESTAMP", "TIME":
			p.advance()
			if p.cur().Kind != lexer.SQLString {
				return nil, p.failHere([]Expected{{Kind: ExpectedString}}, "expected string literal after "+tok.Text+", found %q", "")
			}
			lit := p.advance().Text
			return &Expr{Kind: ExprTypedLiteral, TypeName: tok.Text, Str: lit}, nil
		case "NOW":
			p.advance()
			if err := p.expectPunct("(", []Expected{{Kind: ExpectedOperator}}); err != nil {
				return nil, err
			}
			if err := p.expectPunct(")", []Expected{{Kind: ExpectedOperator}}); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprTimeFunc, FuncName: "NOW"}, nil
		case "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME":
			p.advance()
			return &Expr{Kind: ExprTimeFunc, FuncName: tok.Text}, nil
		}
	case lexer.SQLIdent:
		path, err := p.parsePathString()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprColumn, Path: path}, nil
	}
	return nil, &hardErr{pe: &ParseError{Message: fmt.Sprintf("unexpected token %q", tok.Text)}}
}

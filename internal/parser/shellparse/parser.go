package shellparse

import (
	"fmt"
	"strconv"

	"github.com/dwoolworth/mgosh/internal/lexer"
)

// Parser is a recursive-descent expression parser over a shell-dialect
// token stream.
type Parser struct {
	toks []lexer.ShellToken
	pos  int
}

// New creates a Parser over an already-tokenized input.
func New(toks []lexer.ShellToken) *Parser {
	return &Parser{toks: toks}
}

// ParseExpression parses a single expression statement and requires the
// entire token stream (sans EOF) to be consumed.
func ParseExpression(input string) (*Expr, error) {
	toks, err := lexer.NewShellLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := New(toks)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != lexer.ShellEOF {
		return nil, fmt.Errorf("unexpected trailing token %q", p.cur().Text)
	}
	return expr, nil
}

func (p *Parser) cur() lexer.ShellToken { return p.toks[p.pos] }

func (p *Parser) advance() lexer.ShellToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expectPunct(s string) error {
	if p.cur().Kind != lexer.ShellPunct || p.cur().Text != s {
		return fmt.Errorf("expected %q, found %q", s, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) isPunct(s string) bool {
	return p.cur().Kind == lexer.ShellPunct && p.cur().Text == s
}

// parseExpr parses a unary expression followed by postfix member/call/index
// chaining.
func (p *Parser) parseExpr() (*Expr, error) {
	if p.isPunct("-") || p.isPunct("+") || p.isPunct("!") {
		op := p.advance().Text
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, Op: op, Operand: operand}, nil
	}

	if p.cur().Kind == lexer.ShellIdent && p.cur().Text == "new" {
		p.advance()
		callee, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		args, err := p.parseCallArgsIfPresent()
		if err != nil {
			return nil, err
		}
		expr := &Expr{Kind: ExprNew, Target: callee, Args: args}
		return p.parsePostfix(expr)
	}

	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(primary)
}

func (p *Parser) parseCallArgsIfPresent() ([]*Expr, error) {
	if !p.isPunct("(") {
		return nil, nil
	}
	return p.parseArgs()
}

func (p *Parser) parsePostfix(expr *Expr) (*Expr, error) {
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			if p.cur().Kind != lexer.ShellIdent && p.cur().Kind != lexer.ShellDB {
				return nil, fmt.Errorf("expected identifier after '.', found %q", p.cur().Text)
			}
			name := p.advance().Text
			expr = &Expr{Kind: ExprMember, Target: expr, Name: name}
		case p.isPunct("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = &Expr{Kind: ExprIndex, Target: expr, Index: idx}
		case p.isPunct("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &Expr{Kind: ExprCall, Target: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]*Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []*Expr
	if !p.isPunct(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (*Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.ShellDB:
		p.advance()
		return &Expr{Kind: ExprDB}, nil
	case lexer.ShellIdent:
		p.advance()
		switch tok.Text {
		case "true":
			return &Expr{Kind: ExprBool, Bool: true}, nil
		case "false":
			return &Expr{Kind: ExprBool, Bool: false}, nil
		case "null", "undefined":
			return &Expr{Kind: ExprNull}, nil
		default:
			return &Expr{Kind: ExprIdent, Name: tok.Text}, nil
		}
	case lexer.ShellString:
		p.advance()
		return &Expr{Kind: ExprString, Str: tok.Text}, nil
	case lexer.ShellInt:
		p.advance()
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q", tok.Text)
		}
		return &Expr{Kind: ExprNumber, Int: n}, nil
	case lexer.ShellFloat:
		p.advance()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q", tok.Text)
		}
		return &Expr{Kind: ExprNumber, IsFloat: true, Float: f}, nil
	case lexer.ShellPunct:
		switch tok.Text {
		case "{":
			return p.parseObject()
		case "[":
			return p.parseArray()
		case "(":
			p.advance()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", tok.Text)
}

func (p *Parser) parseObject() (*Expr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var props []Property
	for !p.isPunct("}") {
		var key string
		switch p.cur().Kind {
		case lexer.ShellIdent, lexer.ShellDB:
			key = p.advance().Text
		case lexer.ShellString:
			key = p.advance().Text
		default:
			return nil, fmt.Errorf("expected object key, found %q", p.cur().Text)
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Value: val})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprObject, Properties: props}, nil
}

func (p *Parser) parseArray() (*Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var elems []*Expr
	for !p.isPunct("]") {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprArray, Elements: elems}, nil
}

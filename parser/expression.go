package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/hasm16/expr"
)

// ParseExpr parses one constant expression starting at the current
// token, using precedence-climbing recursive descent:
// or -> xor -> and -> add/sub -> mul/div -> unary -> primary.
func (p *Parser) ParseExpr() (expr.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (expr.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.isWordOp("or") {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Left: left, Op: expr.OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isWordOp("xor") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Left: left, Op: expr.OpXor, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (expr.Expr, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for p.isWordOp("and") {
		p.advance()
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Left: left, Op: expr.OpAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAddSub() (expr.Expr, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenPlus || p.cur.Type == TokenMinus {
		op := expr.OpAdd
		if p.cur.Type == TokenMinus {
			op = expr.OpSub
		}
		p.advance()
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenStar || p.cur.Type == TokenSlash {
		op := expr.OpMul
		if p.cur.Type == TokenSlash {
			op = expr.OpDiv
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (expr.Expr, error) {
	switch p.cur.Type {
	case TokenMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Neg{X: x}, nil
	case TokenTilde:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Not{X: x}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (expr.Expr, error) {
	tok := p.cur
	switch tok.Type {
	case TokenNumber:
		v, err := parseNumberLiteral(tok.Literal)
		if err != nil {
			return nil, p.errorf(ErrorSyntax, "invalid number literal %q: %v", tok.Literal, err)
		}
		p.advance()
		return expr.Constant{Value: v}, nil

	case TokenString:
		text := ProcessEscapeSequences(tok.Literal)
		p.advance()
		var v int64
		if runes := []rune(text); len(runes) > 0 {
			v = int64(runes[0])
		}
		return expr.Constant{Value: v, Text: text, Runes: []rune(text)}, nil

	case TokenChar:
		text := ProcessEscapeSequences(tok.Literal)
		runes := []rune(text)
		if len(runes) != 1 {
			return nil, p.errorf(ErrorSyntax, "character literal must contain exactly one character: %q", tok.Literal)
		}
		p.advance()
		return expr.Constant{Value: int64(runes[0])}, nil

	case TokenIdentifier:
		p.advance()
		return expr.Identifier{Name: tok.Literal}, nil

	case TokenLParen:
		p.advance()
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			return nil, p.errorf(ErrorSyntax, "expected ')'")
		}
		p.advance()
		return e, nil

	default:
		return nil, p.errorf(ErrorSyntax, "expected expression, found %s", p.cur.Type)
	}
}

// isWordOp reports whether the current token is an identifier spelling
// one of the bitwise keyword operators, case-insensitively.
func (p *Parser) isWordOp(word string) bool {
	return p.cur.Type == TokenIdentifier && strings.EqualFold(p.cur.Literal, word)
}

func parseNumberLiteral(lit string) (int64, error) {
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		return strconv.ParseInt(lit[2:], 16, 64)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		return strconv.ParseInt(lit[2:], 2, 64)
	default:
		return strconv.ParseInt(lit, 10, 64)
	}
}

func (p *Parser) errorf(kind ErrorKind, format string, args ...interface{}) error {
	return NewError(p.cur.Pos, kind, fmt.Sprintf(format, args...))
}

package parser

import (
	"testing"

	"github.com/lookbusy1344/hasm16/expr"
)

func evalExpr(t *testing.T, source string) int64 {
	t.Helper()
	p := NewParser(source, "test.asm", ".")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatalf("ParseExpr(%q): %v", source, err)
	}
	v, err := e.Eval(expr.NewContext())
	if err != nil {
		t.Fatalf("Eval(%q): %v", source, err)
	}
	return v
}

func TestExprPrecedenceMulBeforeAdd(t *testing.T) {
	if got := evalExpr(t, "2+3*4"); got != 14 {
		t.Errorf("got %d, want 14", got)
	}
}

func TestExprParenOverridesPrecedence(t *testing.T) {
	if got := evalExpr(t, "(2+3)*4"); got != 20 {
		t.Errorf("got %d, want 20", got)
	}
}

func TestExprBitwiseWordOperators(t *testing.T) {
	if got := evalExpr(t, "6 and 3"); got != 2 {
		t.Errorf("and: got %d, want 2", got)
	}
	if got := evalExpr(t, "4 or 1"); got != 5 {
		t.Errorf("or: got %d, want 5", got)
	}
	if got := evalExpr(t, "5 xor 1"); got != 4 {
		t.Errorf("xor: got %d, want 4", got)
	}
}

func TestExprWordOperatorsLowestPrecedence(t *testing.T) {
	// or binds looser than add/sub: 3 or 1+1 == 3 or 2 == 3, not (3 or 1)+1 == 4.
	if got := evalExpr(t, "3 or 1+1"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestExprUnaryMinusAndNot(t *testing.T) {
	if got := evalExpr(t, "-5+3"); got != -2 {
		t.Errorf("got %d, want -2", got)
	}
	if got := evalExpr(t, "~0"); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestExprHexAndBinaryLiterals(t *testing.T) {
	if got := evalExpr(t, "0x10"); got != 16 {
		t.Errorf("got %d, want 16", got)
	}
	if got := evalExpr(t, "0b1010"); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestExprCharLiteral(t *testing.T) {
	if got := evalExpr(t, "'A'"); got != 65 {
		t.Errorf("got %d, want 65", got)
	}
}

func TestExprMultiCharLiteralErrors(t *testing.T) {
	p := NewParser("'AB'", "test.asm", ".")
	if _, err := p.ParseExpr(); err == nil {
		t.Error("expected error for multi-character literal")
	}
}

func TestExprUnterminatedParenErrors(t *testing.T) {
	p := NewParser("(1+2", "test.asm", ".")
	if _, err := p.ParseExpr(); err == nil {
		t.Error("expected error for unterminated parenthesis")
	}
}

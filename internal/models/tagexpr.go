package models

import (
	"fmt"
	"strings"
)

// TagExpr is a boolean expression over a header's tags, e.g.
// "go AND (review OR testing) AND NOT draft"
type TagExpr struct {
	Op       ExprOp
	Tag      string     // set when Op is OpTag
	Operands []*TagExpr // set for every other Op
}

// ExprOp is the operator of a TagExpr node
type ExprOp string

const (
	OpTag ExprOp = "tag"
	OpAnd ExprOp = "and"
	OpOr  ExprOp = "or"
	OpXor ExprOp = "xor"
	OpNot ExprOp = "not"
)

// Match evaluates the expression against tags. Tag comparison ignores case.
// A nil expression matches everything.
func (e *TagExpr) Match(tags []string) bool {
	if e == nil {
		return true
	}

	switch e.Op {
	case OpTag:
		return containsTag(tags, e.Tag)
	case OpAnd:
		for _, operand := range e.Operands {
			if !operand.Match(tags) {
				return false
			}
		}
		return true
	case OpOr:
		for _, operand := range e.Operands {
			if operand.Match(tags) {
				return true
			}
		}
		return false
	case OpXor:
		if len(e.Operands) != 2 {
			return false
		}
		return e.Operands[0].Match(tags) != e.Operands[1].Match(tags)
	case OpNot:
		if len(e.Operands) != 1 {
			return false
		}
		return !e.Operands[0].Match(tags)
	default:
		return false
	}
}

// String renders the expression with explicit grouping
func (e *TagExpr) String() string {
	if e == nil {
		return ""
	}

	switch e.Op {
	case OpTag:
		return e.Tag
	case OpNot:
		if len(e.Operands) == 1 {
			return "NOT " + e.Operands[0].String()
		}
	}

	parts := make([]string, 0, len(e.Operands))
	for _, operand := range e.Operands {
		parts = append(parts, operand.String())
	}
	return "(" + strings.Join(parts, " "+strings.ToUpper(string(e.Op))+" ") + ")"
}

func containsTag(tags []string, target string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, target) {
			return true
		}
	}
	return false
}

// ParseTagExpr parses a tag query. Precedence from loosest to tightest is
// OR, XOR, AND, NOT; parentheses group. A bare list of tags is an AND.
func ParseTagExpr(query string) (*TagExpr, error) {
	p := &exprParser{tokens: tokenize(query)}
	if len(p.tokens) == 0 {
		return nil, nil
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q in tag expression", p.tokens[p.pos])
	}
	return expr, nil
}

type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) accept(keyword string) bool {
	if strings.EqualFold(p.peek(), keyword) {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) parseOr() (*TagExpr, error) {
	return p.parseBinary(OpOr, p.parseXor)
}

func (p *exprParser) parseXor() (*TagExpr, error) {
	return p.parseBinary(OpXor, p.parseAnd)
}

func (p *exprParser) parseBinary(op ExprOp, next func() (*TagExpr, error)) (*TagExpr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.accept(string(op)) {
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &TagExpr{Op: op, Operands: []*TagExpr{left, right}}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (*TagExpr, error) {
	operands := []*TagExpr{}
	for {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)

		// explicit AND, or juxtaposed tags
		if p.accept("and") {
			continue
		}
		next := p.peek()
		if next == "" || next == ")" || isKeyword(next, "or", "xor") {
			break
		}
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &TagExpr{Op: OpAnd, Operands: operands}, nil
}

func (p *exprParser) parseUnary() (*TagExpr, error) {
	if p.accept("not") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &TagExpr{Op: OpNot, Operands: []*TagExpr{operand}}, nil
	}

	tok := p.peek()
	switch {
	case tok == "":
		return nil, fmt.Errorf("tag expression ends unexpectedly")
	case tok == "(":
		p.pos++
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("missing closing parenthesis in tag expression")
		}
		return expr, nil
	case tok == ")" || isKeyword(tok, "and", "or", "xor"):
		return nil, fmt.Errorf("unexpected %q in tag expression", tok)
	}

	p.pos++
	return &TagExpr{Op: OpTag, Tag: tok}, nil
}

func isKeyword(tok string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.EqualFold(tok, k) {
			return true
		}
	}
	return false
}

func tokenize(query string) []string {
	query = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(query)
	return strings.Fields(query)
}

// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errExprParse    = errors.New("expression syntax error")
	errDivideByZero = errors.New("divide by zero")
)

type tokenType byte

const (
	tokenNil tokenType = iota
	tokenNumber
	tokenIdentifier
	tokenOp
	tokenLParen
	tokenRParen
)

type token struct {
	Type  tokenType
	Num   int64  // tokenNumber
	Ident string // tokenIdentifier
	Op    *op    // tokenOp
}

// An op is an arithmetic operator. Binary operators associate to the left;
// unary operators bind to the operand that follows them.
type op struct {
	Symbol     string
	Precedence byte
	Unary      bool
	Eval       func(a, b int64) (int64, error)
}

var (
	opMultiply   = &op{"*", 6, false, func(a, b int64) (int64, error) { return a * b, nil }}
	opDivide     = &op{"/", 6, false, divide}
	opModulo     = &op{"%", 6, false, modulo}
	opAdd        = &op{"+", 5, false, func(a, b int64) (int64, error) { return a + b, nil }}
	opSubtract   = &op{"-", 5, false, func(a, b int64) (int64, error) { return a - b, nil }}
	opShiftLeft  = &op{"<<", 4, false, func(a, b int64) (int64, error) { return a << uint32(b), nil }}
	opShiftRight = &op{">>", 4, false, func(a, b int64) (int64, error) { return a >> uint32(b), nil }}
	opBitwiseAnd = &op{"&", 3, false, func(a, b int64) (int64, error) { return a & b, nil }}
	opBitwiseXor = &op{"^", 2, false, func(a, b int64) (int64, error) { return a ^ b, nil }}
	opBitwiseOr  = &op{"|", 1, false, func(a, b int64) (int64, error) { return a | b, nil }}
	opBitwiseNot = &op{"~", 7, true, func(a, _ int64) (int64, error) { return ^a, nil }}
	opUnaryMinus = &op{"-", 7, true, func(a, _ int64) (int64, error) { return -a, nil }}
	opUnaryPlus  = &op{"+", 7, true, func(a, _ int64) (int64, error) { return a, nil }}
)

// Operators spelled with a single character. The percent sign and the
// shift operators need context and are scanned separately.
var singleCharOps = map[byte]*op{
	'*': opMultiply,
	'/': opDivide,
	'+': opAdd,
	'-': opSubtract,
	'&': opBitwiseAnd,
	'^': opBitwiseXor,
	'|': opBitwiseOr,
	'~': opBitwiseNot,
}

// Binary operators that turn unary when no operand precedes them.
var unaryForm = map[*op]*op{
	opAdd:      opUnaryPlus,
	opSubtract: opUnaryMinus,
}

func divide(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}

func modulo(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a % b, nil
}

type resolver interface {
	resolveIdentifier(s string) (int64, error)
}

// An exprParser evaluates infix expressions by converting them to postfix
// order with the shunting-yard algorithm.
type exprParser struct {
	hexMode   bool
	output    []token
	operators []token
	prevType  tokenType
}

func newExprParser() *exprParser {
	return &exprParser{}
}

// Parse evaluates the expression, resolving identifiers through r.
func (p *exprParser) Parse(expr string, r resolver) (int64, error) {
	p.output, p.operators, p.prevType = p.output[:0], p.operators[:0], tokenNil

	for s := expr; ; {
		tok, remain, err := p.scan(s)
		if err != nil {
			return 0, err
		}
		if tok.Type == tokenNil {
			break
		}
		s = remain

		switch tok.Type {
		case tokenIdentifier:
			v, err := r.resolveIdentifier(tok.Ident)
			if err != nil {
				return 0, err
			}
			tok = token{Type: tokenNumber, Num: v}
			p.output = append(p.output, tok)

		case tokenNumber:
			p.output = append(p.output, tok)

		case tokenLParen:
			p.operators = append(p.operators, tok)

		case tokenRParen:
			if !p.popUntilLParen() {
				return 0, errExprParse
			}

		case tokenOp:
			if p.expectsOperand() {
				if u, ok := unaryForm[tok.Op]; ok {
					tok.Op = u
				}
			}
			for p.collapsible(tok.Op) {
				p.moveOperator()
			}
			p.operators = append(p.operators, tok)
		}

		p.prevType = tok.Type
	}

	for len(p.operators) > 0 {
		if p.operators[len(p.operators)-1].Type == tokenLParen {
			return 0, errExprParse
		}
		p.moveOperator()
	}

	return p.eval()
}

// An operand is expected at the start of an expression, after an operator
// and after a left parenthesis.
func (p *exprParser) expectsOperand() bool {
	switch p.prevType {
	case tokenNil, tokenOp, tokenLParen:
		return true
	default:
		return false
	}
}

// Report whether the operator on top of the stack must be output before
// pushing o.
func (p *exprParser) collapsible(o *op) bool {
	if len(p.operators) == 0 || o.Unary {
		return false
	}
	top := p.operators[len(p.operators)-1]
	return top.Type == tokenOp && top.Op.Precedence >= o.Precedence
}

func (p *exprParser) moveOperator() {
	n := len(p.operators) - 1
	p.output = append(p.output, p.operators[n])
	p.operators = p.operators[:n]
}

func (p *exprParser) popUntilLParen() bool {
	for len(p.operators) > 0 {
		n := len(p.operators) - 1
		if p.operators[n].Type == tokenLParen {
			p.operators = p.operators[:n]
			return true
		}
		p.moveOperator()
	}
	return false
}

// Evaluate the postfix output queue.
func (p *exprParser) eval() (int64, error) {
	var stack []int64
	for _, tok := range p.output {
		if tok.Type == tokenNumber {
			stack = append(stack, tok.Num)
			continue
		}

		var a, b int64
		n := len(stack)
		switch {
		case tok.Op.Unary && n >= 1:
			a, stack = stack[n-1], stack[:n-1]
		case !tok.Op.Unary && n >= 2:
			a, b, stack = stack[n-2], stack[n-1], stack[:n-2]
		default:
			return 0, errExprParse
		}

		v, err := tok.Op.Eval(a, b)
		if err != nil {
			return 0, err
		}
		stack = append(stack, v)
	}

	if len(stack) != 1 {
		return 0, errExprParse
	}
	return stack[0], nil
}

// Scan the next token from s. A nil token is returned once s holds
// nothing but whitespace.
func (p *exprParser) scan(s string) (tok token, remain string, err error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return token{}, s, nil
	}

	c := s[0]
	if o, ok := singleCharOps[c]; ok {
		return token{Type: tokenOp, Op: o}, s[1:], nil
	}

	switch {
	case c == '(':
		return token{Type: tokenLParen}, s[1:], nil
	case c == ')':
		return token{Type: tokenRParen}, s[1:], nil
	case c == '<' || c == '>':
		return p.scanShift(s)
	case c == '%':
		return p.scanPercent(s)
	case c == '\'':
		return p.scanChar(s)
	case c == '$' || decimal(c):
		return p.scanNumber(s)
	case identStart(c):
		return p.scanIdentifier(s)
	default:
		return token{}, s, errExprParse
	}
}

func (p *exprParser) scanShift(s string) (token, string, error) {
	switch {
	case strings.HasPrefix(s, "<<"):
		return token{Type: tokenOp, Op: opShiftLeft}, s[2:], nil
	case strings.HasPrefix(s, ">>"):
		return token{Type: tokenOp, Op: opShiftRight}, s[2:], nil
	default:
		return token{}, s, errExprParse
	}
}

// A percent sign is the modulo operator when it follows an operand, and a
// binary number prefix otherwise.
func (p *exprParser) scanPercent(s string) (token, string, error) {
	if p.expectsOperand() {
		return scanDigits(s[1:], 2, binary)
	}
	return token{Type: tokenOp, Op: opModulo}, s[1:], nil
}

func (p *exprParser) scanChar(s string) (token, string, error) {
	if len(s) < 3 || s[2] != '\'' {
		return token{}, s, errExprParse
	}
	return token{Type: tokenNumber, Num: int64(s[1])}, s[3:], nil
}

func (p *exprParser) scanNumber(s string) (token, string, error) {
	base, fn := 10, decimal
	if p.hexMode {
		base, fn = 16, hexadecimal
	}

	switch {
	case s[0] == '$':
		return scanDigits(s[1:], 16, hexadecimal)
	case strings.HasPrefix(s, "0x"):
		return scanDigits(s[2:], 16, hexadecimal)
	case p.hexMode:
		// 0b and 0d are hex digits rather than prefixes in hex mode.
	case strings.HasPrefix(s, "0b"):
		return scanDigits(s[2:], 2, binary)
	case strings.HasPrefix(s, "0d"):
		return scanDigits(s[2:], 10, decimal)
	}

	return scanDigits(s, base, fn)
}

func (p *exprParser) scanIdentifier(s string) (token, string, error) {
	n := span(s, identifier)
	id := s[:n]

	// In hex mode, an identifier made only of hex digits is a number.
	if p.hexMode && span(id, hexadecimal) == n {
		return scanDigits(s, 16, hexadecimal)
	}

	return token{Type: tokenIdentifier, Ident: id}, s[n:], nil
}

func scanDigits(s string, base int, fn func(c byte) bool) (token, string, error) {
	n := span(s, fn)
	if n == 0 {
		return token{}, s, errExprParse
	}

	v, err := strconv.ParseInt(s[:n], base, 64)
	if err != nil {
		return token{}, s, errExprParse
	}
	return token{Type: tokenNumber, Num: v}, s[n:], nil
}

// Return the length of the prefix of s whose bytes all satisfy fn.
func span(s string, fn func(c byte) bool) int {
	i := 0
	for i < len(s) && fn(s[i]) {
		i++
	}
	return i
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binary(c byte) bool {
	return c == '0' || c == '1'
}

func identStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.'
}

func identifier(c byte) bool {
	return identStart(c) || decimal(c)
}

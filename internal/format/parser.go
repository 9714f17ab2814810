package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dvkit/transfer/internal/domain"
)

// ParseError reports where in the template source parsing failed.
// Position is a 1-based character offset.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// Parse compiles a template. Literal text passes through untouched;
// ${...} spans are parsed as expressions, with an optional format spec
// after a top-level ':'.
func Parse(source string) (*Template, error) {
	runes := []rune(source)
	var parts []Part
	var literal []rune
	i := 0
	for i < len(runes) {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			if len(literal) > 0 {
				parts = append(parts, Part{Literal: string(literal)})
				literal = literal[:0]
			}
			spanStart := i
			i += 2
			exprStart := i
			depth := 1
			for i < len(runes) {
				if runes[i] == '{' {
					depth++
				} else if runes[i] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				i++
			}
			if depth != 0 {
				return nil, &ParseError{Position: spanStart + 1, Message: "unclosed expression, expected '}'"}
			}
			expr, err := parseExpression(runes[exprStart:i], exprStart)
			if err != nil {
				return nil, err
			}
			parts = append(parts, Part{Expr: expr})
			i++
			continue
		}
		literal = append(literal, runes[i])
		i++
	}
	if len(literal) > 0 {
		parts = append(parts, Part{Literal: string(literal)})
	}
	return &Template{Parts: parts, Source: source}, nil
}

// MustParse is Parse for templates known to be valid; it panics on error.
func MustParse(source string) *Template {
	tmpl, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return tmpl
}

type tokenType int

const (
	tokenNumber tokenType = iota
	tokenString
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenQuestion
	tokenColon
	tokenCoalesce
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenLParen
	tokenRParen
	tokenDot
	tokenComma
	tokenPercent
	tokenEOF
)

// token positions are 0-based offsets within the expression span.
type token struct {
	typ  tokenType
	text string
	pos  int
}

type lexer struct {
	src []rune
	// offset of the expression span within the template, for errors
	offset int
}

func (l *lexer) errorAt(pos int, format string, args ...any) *ParseError {
	return &ParseError{Position: l.offset + pos + 1, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) tokenize() ([]token, error) {
	var tokens []token
	i := 0
	for i < len(l.src) {
		c := l.src[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c):
			start := i
			for i < len(l.src) && unicode.IsDigit(l.src[i]) {
				i++
			}
			// a dot continues the number only when a digit follows;
			// otherwise it separates field path segments
			if i+1 < len(l.src) && l.src[i] == '.' && unicode.IsDigit(l.src[i+1]) {
				i++
				for i < len(l.src) && unicode.IsDigit(l.src[i]) {
					i++
				}
			}
			tokens = append(tokens, token{tokenNumber, string(l.src[start:i]), start})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(l.src) && (l.src[i] == '_' || unicode.IsLetter(l.src[i]) || unicode.IsDigit(l.src[i])) {
				i++
			}
			tokens = append(tokens, token{tokenIdent, string(l.src[start:i]), start})
		case c == '\'':
			start := i
			i++
			textStart := i
			for i < len(l.src) && l.src[i] != '\'' {
				i++
			}
			if i >= len(l.src) {
				return nil, l.errorAt(start, "unterminated string literal")
			}
			tokens = append(tokens, token{tokenString, string(l.src[textStart:i]), start})
			i++
		case c == '?':
			if i+1 < len(l.src) && l.src[i+1] == '?' {
				tokens = append(tokens, token{tokenCoalesce, "??", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenQuestion, "?", i})
				i++
			}
		case c == '=':
			if i+1 < len(l.src) && l.src[i+1] == '=' {
				tokens = append(tokens, token{tokenEq, "==", i})
				i += 2
			} else {
				return nil, l.errorAt(i, "unexpected character '=', did you mean '=='?")
			}
		case c == '!':
			if i+1 < len(l.src) && l.src[i+1] == '=' {
				tokens = append(tokens, token{tokenNeq, "!=", i})
				i += 2
			} else {
				return nil, l.errorAt(i, "unexpected character '!'")
			}
		case c == '<':
			if i+1 < len(l.src) && l.src[i+1] == '=' {
				tokens = append(tokens, token{tokenLte, "<=", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenLt, "<", i})
				i++
			}
		case c == '>':
			if i+1 < len(l.src) && l.src[i+1] == '=' {
				tokens = append(tokens, token{tokenGte, ">=", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenGt, ">", i})
				i++
			}
		case c == '+':
			tokens = append(tokens, token{tokenPlus, "+", i})
			i++
		case c == '-':
			tokens = append(tokens, token{tokenMinus, "-", i})
			i++
		case c == '*':
			tokens = append(tokens, token{tokenStar, "*", i})
			i++
		case c == '/':
			tokens = append(tokens, token{tokenSlash, "/", i})
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case c == ':':
			tokens = append(tokens, token{tokenColon, ":", i})
			i++
		case c == '.':
			tokens = append(tokens, token{tokenDot, ".", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tokenComma, ",", i})
			i++
		case c == '%':
			tokens = append(tokens, token{tokenPercent, "%", i})
			i++
		default:
			return nil, l.errorAt(i, "unexpected character %q", string(c))
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(l.src)})
	return tokens, nil
}

type parser struct {
	lex    *lexer
	tokens []token
	idx    int
}

func parseExpression(src []rune, offset int) (Expr, error) {
	lex := &lexer{src: src, offset: offset}
	tokens, err := lex.tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{lex: lex, tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().typ == tokenColon {
		p.next()
		spec, err := p.parseSpec()
		if err != nil {
			return nil, err
		}
		expr = FormattedExpr{Expr: expr, Spec: spec}
	}
	if tok := p.peek(); tok.typ != tokenEOF {
		return nil, p.errorf(tok, "unexpected %q after expression", tok.text)
	}
	return expr, nil
}

func (p *parser) peek() token {
	return p.tokens[p.idx]
}

func (p *parser) peekAt(n int) token {
	if p.idx+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.idx+n]
}

func (p *parser) next() token {
	tok := p.tokens[p.idx]
	if tok.typ != tokenEOF {
		p.idx++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) *ParseError {
	return p.lex.errorAt(tok.pos, format, args...)
}

// coalesce binds loosest: a ?? b ? c : d is a ?? (b ? c : d).
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokenCoalesce {
		return left, nil
	}
	exprs := []Expr{left}
	for p.peek().typ == tokenCoalesce {
		p.next()
		right, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, right)
	}
	return CoalesceExpr{Exprs: exprs}, nil
}

func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokenQuestion {
		return cond, nil
	}
	p.next()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.typ != tokenColon {
		return nil, p.errorf(tok, "expected ':' in conditional expression")
	}
	p.next()
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return TernaryExpr{Cond: cond, Then: then, Else: els}, nil
}

var compareOps = map[tokenType]CompareOp{
	tokenEq:  CompareEq,
	tokenNeq: CompareNeq,
	tokenLt:  CompareLt,
	tokenLte: CompareLte,
	tokenGt:  CompareGt,
	tokenGte: CompareGte,
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parseMath()
	if err != nil {
		return nil, err
	}
	op, ok := compareOps[p.peek().typ]
	if !ok {
		return left, nil
	}
	p.next()
	right, err := p.parseMath()
	if err != nil {
		return nil, err
	}
	return CompareExpr{Left: left, Op: op, Right: right}, nil
}

func (p *parser) parseMath() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op MathOp
		switch p.peek().typ {
		case tokenPlus:
			op = MathAdd
		case tokenMinus:
			op = MathSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = MathExpr{Left: left, Op: op, Right: right}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op MathOp
		switch p.peek().typ {
		case tokenStar:
			op = MathMul
		case tokenSlash:
			op = MathDiv
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = MathExpr{Left: left, Op: op, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().typ == tokenMinus {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NegateExpr{Expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.typ {
	case tokenNumber:
		if strings.Contains(tok.text, ".") {
			f, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, p.errorf(tok, "invalid number %q", tok.text)
			}
			return ConstantExpr{Value: domain.Float(f)}, nil
		}
		i, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "number %q out of range", tok.text)
		}
		return ConstantExpr{Value: domain.Int(i)}, nil
	case tokenString:
		return ConstantExpr{Value: domain.String(tok.text)}, nil
	case tokenLParen:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.typ != tokenRParen {
			return nil, p.errorf(closing, "expected ')'")
		}
		p.next()
		return expr, nil
	case tokenIdent:
		switch tok.text {
		case "true":
			return ConstantExpr{Value: domain.Bool(true)}, nil
		case "false":
			return ConstantExpr{Value: domain.Bool(false)}, nil
		}
		segments := []string{tok.text}
		for p.peek().typ == tokenDot && p.peekAt(1).typ == tokenIdent {
			p.next()
			segments = append(segments, p.next().text)
		}
		return FieldExpr{Path: domain.NewFieldPath(segments...)}, nil
	case tokenEOF:
		return nil, p.errorf(tok, "unexpected end of expression")
	default:
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
}

func (p *parser) parseSpec() (Spec, error) {
	spec := Spec{}
	if p.peek().typ == tokenComma {
		p.next()
		spec.ThousandsSep = true
	}
	if p.peek().typ == tokenDot {
		p.next()
		tok := p.next()
		if tok.typ != tokenNumber || strings.Contains(tok.text, ".") {
			return Spec{}, p.errorf(tok, "expected precision digits after '.'")
		}
		prec, err := strconv.Atoi(tok.text)
		if err != nil {
			return Spec{}, p.errorf(tok, "invalid precision %q", tok.text)
		}
		spec.Precision = &prec
	}
	switch p.peek().typ {
	case tokenPercent:
		p.next()
		spec.Type = SpecPercent
	case tokenIdent:
		tok := p.next()
		switch tok.text {
		case "f":
			spec.Type = SpecFloat
		case "d":
			spec.Type = SpecInteger
		case "date":
			spec.Type = SpecDate
		case "datetime":
			spec.Type = SpecDateTime
		default:
			return Spec{}, p.errorf(tok, "unknown format type %q", tok.text)
		}
	case tokenEOF:
		spec.Type = SpecAuto
	default:
		tok := p.peek()
		return Spec{}, p.errorf(tok, "unexpected %q in format spec", tok.text)
	}
	return spec, nil
}

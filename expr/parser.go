package expr

import (
	"strconv"

	"github.com/agerun/agerun/lexer"
)

// Parser parses one expression from source text. It is a single-pass
// recursive-descent parser over the lexer's token stream with one token
// of lookahead.
type Parser struct {
	Lex       lexer.Lexer
	CurrToken lexer.Token
	NextToken lexer.Token
}

// NewParser creates a Parser for the given expression text. The parser
// is ready to use immediately; call Parse to produce the AST.
func NewParser(src string) *Parser {
	par := &Parser{Lex: lexer.NewLexer(src)}
	// Prime the two-token lookahead window
	par.CurrToken = par.Lex.NextToken()
	par.NextToken = par.Lex.NextToken()
	return par
}

// Parse parses the entire source as a single expression. Any input left
// over after a complete expression is a TrailingInput error.
func Parse(src string) (Node, *ParseError) {
	return NewParser(src).Parse()
}

// Parse parses the expression and verifies the source is fully consumed.
func (par *Parser) Parse() (Node, *ParseError) {
	node, err := par.parseExpression()
	if err != nil {
		return nil, err
	}
	if par.CurrToken.Type != lexer.EOF_TYPE {
		return nil, newError(TrailingInput, par.CurrToken.Offset,
			"unexpected input %q after expression", par.CurrToken.Literal)
	}
	return node, nil
}

// advance slides the lookahead window one token forward.
func (par *Parser) advance() {
	par.CurrToken = par.NextToken
	par.NextToken = par.Lex.NextToken()
}

// parseExpression parses at comparison precedence, the lowest level.
// Comparisons are left-associative, so a = b = c parses as (a = b) = c.
func (par *Parser) parseExpression() (Node, *ParseError) {
	left, err := par.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := comparisonOperator(par.CurrToken.Type)
		if !ok {
			return left, nil
		}
		par.advance()
		right, err := par.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}
}

// parseAdditive parses + and - at the middle precedence level.
func (par *Parser) parseAdditive() (Node, *ParseError) {
	left, err := par.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for par.CurrToken.Type == lexer.PLUS_OP || par.CurrToken.Type == lexer.MINUS_OP {
		op := OpAdd
		if par.CurrToken.Type == lexer.MINUS_OP {
			op = OpSubtract
		}
		par.advance()
		right, err := par.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseMultiplicative parses * and / at the highest binary precedence.
func (par *Parser) parseMultiplicative() (Node, *ParseError) {
	left, err := par.parsePrimary()
	if err != nil {
		return nil, err
	}

	for par.CurrToken.Type == lexer.MUL_OP || par.CurrToken.Type == lexer.DIV_OP {
		op := OpMultiply
		if par.CurrToken.Type == lexer.DIV_OP {
			op = OpDivide
		}
		par.advance()
		right, err := par.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parsePrimary parses literals, memory accesses and parenthesized
// sub-expressions. A leading minus is folded into a numeric literal, so
// -5 is a literal while -x is not part of the language.
func (par *Parser) parsePrimary() (Node, *ParseError) {
	tok := par.CurrToken

	switch tok.Type {
	case lexer.INT_LIT:
		par.advance()
		return par.intLiteral(tok, false)

	case lexer.DOUBLE_LIT:
		par.advance()
		return par.doubleLiteral(tok, false)

	case lexer.MINUS_OP:
		// Signed literal: the minus must be followed directly by a number
		next := par.NextToken
		switch next.Type {
		case lexer.INT_LIT:
			par.advance()
			par.advance()
			return par.intLiteral(next, true)
		case lexer.DOUBLE_LIT:
			par.advance()
			par.advance()
			return par.doubleLiteral(next, true)
		case lexer.BAD_NUMBER:
			return nil, newError(InvalidNumber, next.Offset, "invalid numeric literal %q", next.Literal)
		}
		return nil, newError(UnexpectedToken, tok.Offset, "unexpected token %q", tok.Literal)

	case lexer.STRING_LIT:
		par.advance()
		return &LiteralStringNode{Value: tok.Literal}, nil

	case lexer.BAD_STRING:
		return nil, newError(UnterminatedString, tok.Offset, "string literal is missing its closing quote")

	case lexer.BAD_NUMBER:
		return nil, newError(InvalidNumber, tok.Offset, "invalid numeric literal %q", tok.Literal)

	case lexer.IDENTIFIER_ID:
		return par.parseMemoryAccess()

	case lexer.LEFT_PAREN:
		par.advance()
		inner, err := par.parseExpression()
		if err != nil {
			return nil, err
		}
		if par.CurrToken.Type != lexer.RIGHT_PAREN {
			return nil, newError(UnexpectedToken, par.CurrToken.Offset,
				"expected ')', found %q", par.CurrToken.Literal)
		}
		par.advance()
		return inner, nil
	}

	return nil, newError(UnexpectedToken, tok.Offset, "unexpected token %q", tok.Literal)
}

// parseMemoryAccess parses base.field.field... where base must be one of
// the three reserved names.
func (par *Parser) parseMemoryAccess() (Node, *ParseError) {
	base := par.CurrToken
	if base.Literal != BaseMemory && base.Literal != BaseContext && base.Literal != BaseMessage {
		return nil, newError(UnknownBase, base.Offset,
			"unknown accessor base %q, expected memory, context or message", base.Literal)
	}
	par.advance()

	path := make([]string, 0)
	for par.CurrToken.Type == lexer.DOT_OP {
		if par.NextToken.Type != lexer.IDENTIFIER_ID {
			return nil, newError(UnexpectedToken, par.NextToken.Offset,
				"expected field name after '.', found %q", par.NextToken.Literal)
		}
		par.advance()
		path = append(path, par.CurrToken.Literal)
		par.advance()
	}

	return &MemoryAccessNode{Base: base.Literal, Path: path}, nil
}

// intLiteral converts an INT token, applying the sign.
func (par *Parser) intLiteral(tok lexer.Token, negative bool) (Node, *ParseError) {
	text := tok.Literal
	if negative {
		text = "-" + text
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, newError(InvalidNumber, tok.Offset, "integer literal %q out of range", text)
	}
	return &LiteralIntNode{Value: value}, nil
}

// doubleLiteral converts a DOUBLE token, applying the sign.
func (par *Parser) doubleLiteral(tok lexer.Token, negative bool) (Node, *ParseError) {
	text := tok.Literal
	if negative {
		text = "-" + text
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, newError(InvalidNumber, tok.Offset, "double literal %q out of range", text)
	}
	return &LiteralDoubleNode{Value: value, Text: text}, nil
}

// comparisonOperator maps a comparison token to its operator.
func comparisonOperator(t lexer.TokenType) (Operator, bool) {
	switch t {
	case lexer.EQ_OP:
		return OpEqual, true
	case lexer.NE_OP:
		return OpNotEqual, true
	case lexer.LT_OP:
		return OpLess, true
	case lexer.GT_OP:
		return OpGreater, true
	case lexer.LE_OP:
		return OpLessEq, true
	case lexer.GE_OP:
		return OpGreaterEq, true
	}
	return "", false
}

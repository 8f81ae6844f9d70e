package dsl

import "strings"

// Parse lexes and parses a complete DSL source file into a Program. Parsing
// is strict: the first syntax error aborts with a line-accurate
// *ParseError.
func Parse(src string) (*Program, error) {
	toks, err := newLexer(src).lexAll()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks}
	return p.parseProgram()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return Token{}, newParseError(tok.Line, tok.Column, "expected %s, found %s %q", tt, tok.Type, tok.Value)
	}
	return p.advance(), nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.peek().Type != TokenEOF {
		tok := p.peek()
		if tok.Type != TokenIdent {
			return nil, newParseError(tok.Line, tok.Column, "expected a top-level declaration keyword, found %s %q", tok.Type, tok.Value)
		}
		switch strings.ToUpper(tok.Value) {
		case "SOURCE":
			decl, err := p.parseBlockDecl()
			if err != nil {
				return nil, err
			}
			prog.Sources = append(prog.Sources, SourceDecl(decl))
		case "OBLIGATION":
			decl, err := p.parseBlockDecl()
			if err != nil {
				return nil, err
			}
			prog.Obligations = append(prog.Obligations, ObligationDecl(decl))
		case "CONSTRAINT":
			decl, err := p.parseBlockDecl()
			if err != nil {
				return nil, err
			}
			prog.Constraints = append(prog.Constraints, ConstraintDecl(decl))
		case "IMPORT":
			p.advance()
			pathTok, err := p.expect(TokenString)
			if err != nil {
				return nil, err
			}
			prog.Imports = append(prog.Imports, ImportDecl{Path: pathTok.Value, Line: tok.Line})
		default:
			return nil, newParseError(tok.Line, tok.Column, "unknown top-level form %q", tok.Value)
		}
	}
	return prog, nil
}

// blockDecl is the shared shape of SOURCE/OBLIGATION/CONSTRAINT: a keyword
// already consumed by the caller, an id string, and a brace-delimited
// field list.
type blockDecl struct {
	ID     string
	Fields map[string]FieldValue
	Line   int
}

func (p *parser) parseBlockDecl() (blockDecl, error) {
	kwTok := p.advance() // the SOURCE/OBLIGATION/CONSTRAINT keyword
	idTok, err := p.expect(TokenString)
	if err != nil {
		return blockDecl{}, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return blockDecl{}, err
	}
	fields := make(map[string]FieldValue)
	for p.peek().Type != TokenRBrace {
		keyTok, err := p.expect(TokenIdent)
		if err != nil {
			return blockDecl{}, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return blockDecl{}, err
		}
		val, err := p.parseFieldValue()
		if err != nil {
			return blockDecl{}, err
		}
		fields[strings.ToLower(keyTok.Value)] = val
		if p.peek().Type == TokenComma {
			p.advance()
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return blockDecl{}, err
	}
	return blockDecl{ID: idTok.Value, Fields: fields, Line: kwTok.Line}, nil
}

func (p *parser) parseFieldValue() (FieldValue, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenString, TokenIdent, TokenBool:
		p.advance()
		return FieldValue{Scalar: tok.Value}, nil
	case TokenLBracket:
		p.advance()
		var items []string
		for p.peek().Type != TokenRBracket {
			item := p.peek()
			switch item.Type {
			case TokenString, TokenIdent, TokenBool:
				p.advance()
			default:
				return FieldValue{}, newParseError(item.Line, item.Column, "expected list item, found %s %q", item.Type, item.Value)
			}
			items = append(items, item.Value)
			if p.peek().Type == TokenComma {
				p.advance()
			}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return FieldValue{}, err
		}
		return FieldValue{IsList: true, List: items}, nil
	default:
		return FieldValue{}, newParseError(tok.Line, tok.Column, "expected a field value, found %s %q", tok.Type, tok.Value)
	}
}

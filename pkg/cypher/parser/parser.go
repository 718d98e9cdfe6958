// Package parser implements a recursive-descent parser that turns a
// Cypher token stream into a pkg/cypher/ast.CypherQuery.
package parser

import (
	"fmt"
	"strconv"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/cypher/lexer"
	"github.com/cuemby/graphd/pkg/cypher/token"
	"github.com/cuemby/graphd/pkg/graph"
)

// Parser consumes a token stream produced by pkg/cypher/lexer.
type Parser struct {
	toks   []token.Token
	pos    int
	params map[string]struct{}
}

// Parse tokenizes and parses src in one call.
func Parse(src string) (*ast.CypherQuery, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return New(toks).ParseQuery()
}

// New creates a Parser over an already-lexed token stream.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks, params: make(map[string]struct{})}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(typ token.Type) bool {
	return p.cur().Type == typ
}

func (p *Parser) syntaxErr(format string, args ...any) error {
	c := p.cur()
	msg := "line " + strconv.Itoa(c.Line) + ":" + strconv.Itoa(c.Column) + ": " + fmt.Sprintf(format, args...)
	return graph.New(graph.ErrCypherSyntax, "%s", msg)
}

func (p *Parser) expect(typ token.Type) (token.Token, error) {
	if !p.at(typ) {
		return token.Token{}, p.syntaxErr("expected %s, got %s %q", typ, p.cur().Type, p.cur().Literal)
	}
	return p.advance(), nil
}

// ParseQuery parses a complete statement, possibly containing multiple
// clauses and UNION-joined sub-queries.
func (p *Parser) ParseQuery() (*ast.CypherQuery, error) {
	q := &ast.CypherQuery{}
	for {
		clauses, err := p.parseSingleQuery()
		if err != nil {
			return nil, err
		}
		q.Clauses = append(q.Clauses, clauses...)

		if p.at(token.UNION) {
			p.advance()
			distinct := true
			if p.at(token.ALL) {
				p.advance()
				distinct = false
			}
			q.Clauses = append(q.Clauses, ast.UnionClause{Distinct: distinct})
			continue
		}
		break
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	if !p.at(token.EOF) {
		return nil, p.syntaxErr("unexpected trailing token %s %q", p.cur().Type, p.cur().Literal)
	}
	q.Params = p.params
	return q, nil
}

func (p *Parser) parseSingleQuery() ([]ast.Clause, error) {
	var clauses []ast.Clause
	for {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		clauses = append(clauses, c)
		if p.at(token.UNION) || p.at(token.EOF) || p.at(token.SEMICOLON) {
			break
		}
	}
	if len(clauses) == 0 {
		return nil, p.syntaxErr("expected at least one clause")
	}
	return clauses, nil
}

func (p *Parser) parseClause() (ast.Clause, error) {
	switch p.cur().Type {
	case token.MATCH:
		return p.parseMatch(false)
	case token.OPTIONAL:
		p.advance()
		if _, err := p.expect(token.MATCH); err != nil {
			return nil, err
		}
		return p.parseMatch(true)
	case token.WHERE:
		p.advance()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.WhereClause{Predicate: pred}, nil
	case token.WITH:
		return p.parseWith()
	case token.UNWIND:
		return p.parseUnwind()
	case token.RETURN:
		return p.parseReturn()
	case token.CREATE:
		if p.isCreateIndexAhead() {
			return p.parseCreateIndexOrConstraint()
		}
		return p.parseCreate()
	case token.MERGE:
		return p.parseMerge()
	case token.DELETE:
		return p.parseDelete(false)
	case token.DETACH:
		p.advance()
		if _, err := p.expect(token.DELETE); err != nil {
			return nil, err
		}
		return p.parseDelete(true)
	case token.SET:
		return p.parseSet()
	case token.REMOVE:
		return p.parseRemove()
	case token.FOREACH:
		return p.parseForeach()
	case token.CALL:
		return p.parseCall()
	case token.LOAD:
		return p.parseLoadCsv()
	case token.EXPLAIN:
		p.advance()
		return ast.ExplainClause{}, nil
	case token.PROFILE:
		p.advance()
		return ast.ProfileClause{}, nil
	case token.BEGIN_TX:
		p.advance()
		return ast.TransactionMarkerClause{Kind: ast.TxBegin}, nil
	case token.COMMIT_TX:
		p.advance()
		return ast.TransactionMarkerClause{Kind: ast.TxCommit}, nil
	case token.ROLLBACK_TX:
		p.advance()
		return ast.TransactionMarkerClause{Kind: ast.TxRollback}, nil
	case token.USE:
		p.advance()
		if p.at(token.DATABASE) {
			p.advance()
		}
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		return ast.UseDatabaseClause{Name: name.Literal}, nil
	case token.DROP:
		return p.parseDropIndexOrConstraint()
	default:
		return nil, nil
	}
}

func (p *Parser) isCreateIndexAhead() bool {
	return p.at(token.CREATE) && (p.peekAt(1).Type == token.INDEX || p.peekAt(1).Type == token.CONSTRAINT)
}

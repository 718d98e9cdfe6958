package parser

import (
	"strconv"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/cypher/token"
)

// parsePatternList parses one or more comma-separated patterns,
// each possibly preceded by a `var =` pattern-variable binding that
// the planner ignores today but the grammar must still accept.
func (p *Parser) parsePatternList() ([]ast.Pattern, error) {
	var out []ast.Pattern
	for {
		if p.at(token.IDENT) && p.peekAt(1).Type == token.EQ {
			p.advance()
			p.advance()
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		out = append(out, pat)
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return out, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	var pat ast.Pattern
	node, err := p.parseNodePattern()
	if err != nil {
		return pat, err
	}
	pat.Elements = append(pat.Elements, node)

	for p.at(token.DASH) || p.at(token.ARROW_LEFT) {
		rel, err := p.parseRelPattern()
		if err != nil {
			return pat, err
		}
		pat.Elements = append(pat.Elements, rel)

		node, err := p.parseNodePattern()
		if err != nil {
			return pat, err
		}
		pat.Elements = append(pat.Elements, node)
	}
	return pat, nil
}

func (p *Parser) parseNodePattern() (ast.NodePattern, error) {
	var np ast.NodePattern
	if _, err := p.expect(token.LPAREN); err != nil {
		return np, err
	}
	if p.at(token.IDENT) {
		np.Variable = p.advance().Literal
	}
	for p.at(token.COLON) {
		p.advance()
		lbl, err := p.expect(token.IDENT)
		if err != nil {
			return np, err
		}
		np.Labels = append(np.Labels, lbl.Literal)
	}
	if p.at(token.LBRACE) {
		props, err := p.parsePropertyMap()
		if err != nil {
			return np, err
		}
		np.Properties = props
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return np, err
	}
	return np, nil
}

// parseRelPattern consumes one relationship segment, which starts
// with either a bare dash or a left-pointing arrow and always ends
// with a dash or a right-pointing arrow.
func (p *Parser) parseRelPattern() (ast.RelPattern, error) {
	var rp ast.RelPattern
	leftArrow := false
	if p.at(token.ARROW_LEFT) {
		leftArrow = true
		p.advance()
	} else {
		if _, err := p.expect(token.DASH); err != nil {
			return rp, err
		}
	}

	if p.at(token.LBRACKET) {
		p.advance()
		if p.at(token.IDENT) {
			rp.Variable = p.advance().Literal
		}
		if p.at(token.COLON) {
			p.advance()
			typ, err := p.expect(token.IDENT)
			if err != nil {
				return rp, err
			}
			rp.Types = append(rp.Types, typ.Literal)
			for p.at(token.PIPE) {
				p.advance()
				if p.at(token.COLON) {
					p.advance()
				}
				typ, err := p.expect(token.IDENT)
				if err != nil {
					return rp, err
				}
				rp.Types = append(rp.Types, typ.Literal)
			}
		}
		if p.at(token.ASTERISK) {
			q, err := p.parseQuantifier()
			if err != nil {
				return rp, err
			}
			rp.Quantifier = q
		}
		if p.at(token.LBRACE) {
			props, err := p.parsePropertyMap()
			if err != nil {
				return rp, err
			}
			rp.Properties = props
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return rp, err
		}
	}

	rightArrow := false
	if p.at(token.ARROW_RIGHT) {
		rightArrow = true
		p.advance()
	} else {
		if _, err := p.expect(token.DASH); err != nil {
			return rp, err
		}
	}

	switch {
	case leftArrow && !rightArrow:
		rp.Direction = ast.DirIncoming
	case rightArrow && !leftArrow:
		rp.Direction = ast.DirOutgoing
	default:
		rp.Direction = ast.DirEither
	}
	return rp, nil
}

func (p *Parser) parseQuantifier() (*ast.Quantifier, error) {
	if _, err := p.expect(token.ASTERISK); err != nil {
		return nil, err
	}
	q := &ast.Quantifier{Min: -1, Max: -1}
	if p.at(token.INT) {
		n, err := strconv.Atoi(p.advance().Literal)
		if err != nil {
			return nil, p.syntaxErr("invalid quantifier bound")
		}
		q.Min = n
		q.Max = n
	}
	if p.at(token.DOTDOT) {
		p.advance()
		q.Max = -1
		if p.at(token.INT) {
			n, err := strconv.Atoi(p.advance().Literal)
			if err != nil {
				return nil, p.syntaxErr("invalid quantifier bound")
			}
			q.Max = n
		}
	}
	return q, nil
}

func (p *Parser) parsePropertyMap() (map[string]ast.Expr, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	out := make(map[string]ast.Expr)
	if p.at(token.RBRACE) {
		p.advance()
		return out, nil
	}
	for {
		key, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out[key.Literal] = val
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return out, nil
}

package parser

import (
	"strconv"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/cypher/token"
	"github.com/cuemby/graphd/pkg/graph"
)

// parseExpr parses a full expression, entry point for every clause
// that embeds expressions (WHERE, property values, RETURN items...).
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR) {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.XOR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpXor, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.at(token.NOT) {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Type]ast.BinaryOp{
	token.EQ:  ast.OpEq,
	token.NEQ: ast.OpNeq,
	token.LT:  ast.OpLt,
	token.LTE: ast.OpLte,
	token.GT:  ast.OpGt,
	token.GTE: ast.OpGte,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseStringOrListOp()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := comparisonOps[p.cur().Type]; ok {
			p.advance()
			right, err := p.parseStringOrListOp()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: op, Left: left, Right: right}
			continue
		}
		if p.at(token.IS) {
			p.advance()
			negated := false
			if p.at(token.NOT) {
				negated = true
				p.advance()
			}
			if _, err := p.expect(token.NULL_KW); err != nil {
				return nil, err
			}
			left = ast.IsNullExpr{Operand: left, Negated: negated}
			continue
		}
		break
	}
	return left, nil
}

// parseStringOrListOp handles IN / CONTAINS / STARTS WITH / ENDS WITH / =~,
// which bind tighter than comparisons but looser than addition.
func (p *Parser) parseStringOrListOp() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(token.IN):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: ast.OpIn, Left: left, Right: right}
		case p.at(token.CONTAINS):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: ast.OpContains, Left: left, Right: right}
		case p.at(token.STARTS):
			p.advance()
			if _, err := p.expect(token.WITH); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: ast.OpStartsWith, Left: left, Right: right}
		case p.at(token.ENDS):
			p.advance()
			if _, err := p.expect(token.WITH); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: ast.OpEndsWith, Left: left, Right: right}
		case p.at(token.REGEX):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = ast.BinaryExpr{Op: ast.OpRegex, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.DASH) {
		op := ast.OpAdd
		if p.cur().Type == token.DASH {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.cur().Type {
		case token.ASTERISK:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		case token.PERCENT:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.at(token.CARET) {
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: ast.OpPow, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.at(token.DASH) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNeg, Operand: operand}, nil
	}
	if p.at(token.PLUS) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpPos, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles property access, indexing and slicing chained
// onto a primary expression.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(token.DOT):
			p.advance()
			key, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			e = ast.PropertyExpr{Target: e, Key: key.Literal}
		case p.at(token.LBRACKET):
			p.advance()
			if p.at(token.DOTDOT) {
				p.advance()
				to, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.RBRACKET); err != nil {
					return nil, err
				}
				e = ast.SliceExpr{Target: e, To: to}
				continue
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.at(token.DOTDOT) {
				p.advance()
				var to ast.Expr
				if !p.at(token.RBRACKET) {
					to, err = p.parseExpr()
					if err != nil {
						return nil, err
					}
				}
				if _, err := p.expect(token.RBRACKET); err != nil {
					return nil, err
				}
				e = ast.SliceExpr{Target: e, From: idx, To: to}
				continue
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			e = ast.IndexExpr{Target: e, Index: idx}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur().Type {
	case token.INT:
		lit := p.advance().Literal
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, p.syntaxErr("invalid integer literal %q", lit)
		}
		return ast.LiteralExpr{Value: graph.I64(n)}, nil
	case token.FLOAT:
		lit := p.advance().Literal
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, p.syntaxErr("invalid float literal %q", lit)
		}
		return ast.LiteralExpr{Value: graph.F64(f)}, nil
	case token.STRING:
		return ast.LiteralExpr{Value: graph.Str(p.advance().Literal)}, nil
	case token.TRUE_KW:
		p.advance()
		return ast.LiteralExpr{Value: graph.Bool(true)}, nil
	case token.FALSE_KW:
		p.advance()
		return ast.LiteralExpr{Value: graph.Bool(false)}, nil
	case token.NULL_KW:
		p.advance()
		return ast.LiteralExpr{Value: graph.Null()}, nil
	case token.PARAM:
		name := p.advance().Literal
		p.params[name] = struct{}{}
		return ast.ParameterExpr{Name: name}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseMapLiteral()
	case token.CASE:
		return p.parseCase()
	case token.NOT:
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNot, Operand: operand}, nil
	case token.IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, p.syntaxErr("unexpected token %s %q in expression", p.cur().Type, p.cur().Literal)
	}
}

func (p *Parser) parseListLiteral() (ast.Expr, error) {
	if _, err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	var elems []ast.Expr
	if !p.at(token.RBRACKET) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return ast.ListExpr{Elements: elems}, nil
}

func (p *Parser) parseMapLiteral() (ast.Expr, error) {
	props, err := p.parsePropertyMap()
	if err != nil {
		return nil, err
	}
	return ast.MapExpr{Entries: props}, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	p.advance() // CASE
	ce := ast.CaseExpr{}
	if !p.at(token.WHEN) {
		subj, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Subject = subj
	}
	for p.at(token.WHEN) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.THEN); err != nil {
			return nil, err
		}
		res, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, ast.CaseWhen{Condition: cond, Result: res})
	}
	if p.at(token.ELSE) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = e
	}
	if _, err := p.expect(token.END_KW); err != nil {
		return nil, err
	}
	return ce, nil
}

// parseIdentOrCall disambiguates a bare variable reference from a
// function call (`name(` with no space-sensitivity needed since the
// lexer discards whitespace).
func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	name := p.advance().Literal
	if !p.at(token.LPAREN) {
		return ast.VariableExpr{Name: name}, nil
	}
	p.advance()
	fc := ast.FunctionCallExpr{Name: name}
	if p.at(token.ASTERISK) && name == "count" {
		p.advance()
		fc.Star = true
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return fc, nil
	}
	if p.at(token.DISTINCT) {
		p.advance()
		fc.Distinct = true
	}
	if !p.at(token.RPAREN) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fc.Arguments = append(fc.Arguments, arg)
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return fc, nil
}

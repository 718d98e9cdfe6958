package parser

import (
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/cypher/token"
)

func (p *Parser) parseMatch(optional bool) (ast.Clause, error) {
	p.advance() // MATCH
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	if optional {
		return ast.OptionalMatchClause{Patterns: patterns}, nil
	}
	return ast.MatchClause{Patterns: patterns}, nil
}

func (p *Parser) parseItemList() ([]ast.WithItem, bool, error) {
	distinct := false
	if p.at(token.DISTINCT) {
		distinct = true
		p.advance()
	}
	var items []ast.WithItem
	if p.at(token.ASTERISK) {
		p.advance()
		items = append(items, ast.WithItem{Expr: ast.VariableExpr{Name: "*"}})
	} else {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, false, err
			}
			alias := ""
			if p.at(token.AS) {
				p.advance()
				id, err := p.expect(token.IDENT)
				if err != nil {
					return nil, false, err
				}
				alias = id.Literal
			}
			items = append(items, ast.WithItem{Expr: e, Alias: alias})
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	return items, distinct, nil
}

func (p *Parser) parseOrderSkipLimit() ([]ast.OrderItem, ast.Expr, ast.Expr, error) {
	var order []ast.OrderItem
	var skip, limit ast.Expr
	if p.at(token.ORDER) {
		p.advance()
		if _, err := p.expect(token.BY); err != nil {
			return nil, nil, nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, nil, nil, err
			}
			desc := false
			if p.at(token.ASC) {
				p.advance()
			} else if p.at(token.DESC) {
				desc = true
				p.advance()
			}
			order = append(order, ast.OrderItem{Expr: e, Descending: desc})
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	if p.at(token.SKIP) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		skip = e
	}
	if p.at(token.LIMIT) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		limit = e
	}
	return order, skip, limit, nil
}

func (p *Parser) parseWith() (ast.Clause, error) {
	p.advance() // WITH
	items, distinct, err := p.parseItemList()
	if err != nil {
		return nil, err
	}
	wc := ast.WithClause{Items: items, Distinct: distinct}
	if p.at(token.WHERE) {
		p.advance()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		wc.Where = pred
	}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	wc.OrderBy, wc.Skip, wc.Limit = order, skip, limit
	return wc, nil
}

func (p *Parser) parseReturn() (ast.Clause, error) {
	p.advance() // RETURN
	items, distinct, err := p.parseItemList()
	if err != nil {
		return nil, err
	}
	rc := ast.ReturnClause{Items: items, Distinct: distinct}
	order, skip, limit, err := p.parseOrderSkipLimit()
	if err != nil {
		return nil, err
	}
	rc.OrderBy, rc.Skip, rc.Limit = order, skip, limit
	return rc, nil
}

func (p *Parser) parseUnwind() (ast.Clause, error) {
	p.advance() // UNWIND
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	v, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return ast.UnwindClause{Expr: e, Variable: v.Literal}, nil
}

func (p *Parser) parseCreate() (ast.Clause, error) {
	p.advance() // CREATE
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	return ast.CreateClause{Patterns: patterns}, nil
}

func (p *Parser) parseSetItems() ([]ast.SetItem, error) {
	var items []ast.SetItem
	for {
		target, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if p.at(token.COLON) {
			p.advance()
			label, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			items = append(items, ast.SetItem{Target: target, AddLabel: label.Literal})
		} else {
			additive := false
			if p.at(token.PLUS) && p.peekAt(1).Type == token.EQ {
				p.advance()
				additive = true
			}
			if _, err := p.expect(token.EQ); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.SetItem{Target: target, Value: val, Additive: additive})
		}
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return items, nil
}

func (p *Parser) parseSet() (ast.Clause, error) {
	p.advance() // SET
	items, err := p.parseSetItems()
	if err != nil {
		return nil, err
	}
	return ast.SetClause{Items: items}, nil
}

func (p *Parser) parseMerge() (ast.Clause, error) {
	p.advance() // MERGE
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	mc := ast.MergeClause{Pattern: pat}
	for p.at(token.ON) {
		p.advance()
		switch p.cur().Type {
		case token.CREATE:
			p.advance()
			items, err := p.parseSetItems()
			if err != nil {
				return nil, err
			}
			mc.OnCreate = append(mc.OnCreate, items...)
		case token.MATCH:
			p.advance()
			items, err := p.parseSetItems()
			if err != nil {
				return nil, err
			}
			mc.OnMatch = append(mc.OnMatch, items...)
		default:
			return nil, p.syntaxErr("expected CREATE or MATCH after ON")
		}
	}
	return mc, nil
}

func (p *Parser) parseDelete(detach bool) (ast.Clause, error) {
	p.advance() // DELETE
	var vars []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		vars = append(vars, e)
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return ast.DeleteClause{Variables: vars, Detach: detach}, nil
}

func (p *Parser) parseRemove() (ast.Clause, error) {
	p.advance() // REMOVE
	var items []ast.RemoveItem
	for {
		target, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if p.at(token.COLON) {
			p.advance()
			label, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			items = append(items, ast.RemoveItem{Target: target, RemoveLabel: label.Literal})
		} else {
			items = append(items, ast.RemoveItem{Target: target})
		}
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return ast.RemoveClause{Items: items}, nil
}

func (p *Parser) parseForeach() (ast.Clause, error) {
	p.advance() // FOREACH
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	v, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PIPE); err != nil {
		return nil, err
	}
	var clauses []ast.Clause
	for !p.at(token.RPAREN) {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, p.syntaxErr("expected clause inside FOREACH body")
		}
		clauses = append(clauses, c)
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.ForeachClause{Variable: v.Literal, Expr: e, Clauses: clauses}, nil
}

func (p *Parser) parseCall() (ast.Clause, error) {
	p.advance() // CALL
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	full := name.Literal
	for p.at(token.DOT) {
		p.advance()
		part, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		full += "." + part.Literal
	}
	cc := ast.CallProcedureClause{Name: full}
	if p.at(token.LPAREN) {
		p.advance()
		if !p.at(token.RPAREN) {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				cc.Arguments = append(cc.Arguments, arg)
				if !p.at(token.COMMA) {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	if p.at(token.YIELD) {
		p.advance()
		for {
			id, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			cc.Yield = append(cc.Yield, id.Literal)
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	return cc, nil
}

func (p *Parser) parseLoadCsv() (ast.Clause, error) {
	p.advance() // LOAD
	if _, err := p.expect(token.CSV); err != nil {
		return nil, err
	}
	lc := ast.LoadCsvClause{}
	if p.at(token.WITH) {
		p.advance()
		if _, err := p.expect(token.HEADERS); err != nil {
			return nil, err
		}
		lc.WithHeaders = true
	}
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	u, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	lc.URL = u
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	v, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	lc.Variable = v.Literal
	if p.at(token.FIELDTERMINATOR) {
		p.advance()
		s, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		lc.FieldTerminator = s.Literal
	}
	return lc, nil
}

func (p *Parser) parseCreateIndexOrConstraint() (ast.Clause, error) {
	p.advance() // CREATE
	if p.at(token.INDEX) {
		p.advance()
		if p.at(token.ON) {
			p.advance()
		}
		label, prop, err := p.parseIndexTarget()
		if err != nil {
			return nil, err
		}
		return ast.CreateIndexClause{Label: label, Property: prop}, nil
	}
	label, prop, kind, err := p.parseConstraintTarget()
	if err != nil {
		return nil, err
	}
	return ast.CreateConstraintClause{Label: label, Property: prop, Kind: kind}, nil
}

func (p *Parser) parseDropIndexOrConstraint() (ast.Clause, error) {
	p.advance() // DROP
	if p.at(token.INDEX) {
		p.advance()
		if p.at(token.ON) {
			p.advance()
		}
		label, prop, err := p.parseIndexTarget()
		if err != nil {
			return nil, err
		}
		return ast.DropIndexClause{Label: label, Property: prop}, nil
	}
	label, prop, kind, err := p.parseConstraintTarget()
	if err != nil {
		return nil, err
	}
	return ast.DropConstraintClause{Label: label, Property: prop, Kind: kind}, nil
}

// parseIndexTarget parses the bare `:Label(prop)` shape used by
// CREATE/DROP INDEX.
func (p *Parser) parseIndexTarget() (string, string, error) {
	if _, err := p.expect(token.COLON); err != nil {
		return "", "", err
	}
	lbl, err := p.expect(token.IDENT)
	if err != nil {
		return "", "", err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return "", "", err
	}
	prop, err := p.expect(token.IDENT)
	if err != nil {
		return "", "", err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return "", "", err
	}
	return lbl.Literal, prop.Literal, nil
}

// parseConstraintTarget parses `CONSTRAINT ON (n:Label) ASSERT n.prop
// IS UNIQUE` / `ASSERT EXISTS(n.prop)`.
func (p *Parser) parseConstraintTarget() (string, string, ast.ConstraintKind, error) {
	if _, err := p.expect(token.CONSTRAINT); err != nil {
		return "", "", 0, err
	}
	if p.at(token.ON) {
		p.advance()
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return "", "", 0, err
	}
	if p.at(token.IDENT) {
		p.advance() // bound variable, unused by the constraint registry
	}
	if _, err := p.expect(token.COLON); err != nil {
		return "", "", 0, err
	}
	label, err := p.expect(token.IDENT)
	if err != nil {
		return "", "", 0, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return "", "", 0, err
	}
	if _, err := p.expect(token.ASSERT); err != nil {
		return "", "", 0, err
	}

	kind := ast.ConstraintUnique
	var prop string
	if p.at(token.EXISTS) {
		p.advance()
		kind = ast.ConstraintExists
		if _, err := p.expect(token.LPAREN); err != nil {
			return "", "", 0, err
		}
		prop, err = p.parseDottedProperty()
		if err != nil {
			return "", "", 0, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return "", "", 0, err
		}
		return label.Literal, prop, kind, nil
	}
	prop, err = p.parseDottedProperty()
	if err != nil {
		return "", "", 0, err
	}
	if _, err := p.expect(token.IS); err != nil {
		return "", "", 0, err
	}
	if _, err := p.expect(token.UNIQUE); err != nil {
		return "", "", 0, err
	}
	return label.Literal, prop, kind, nil
}

func (p *Parser) parseDottedProperty() (string, error) {
	if p.at(token.IDENT) {
		p.advance() // bound variable
	}
	if _, err := p.expect(token.DOT); err != nil {
		return "", err
	}
	prop, err := p.expect(token.IDENT)
	if err != nil {
		return "", err
	}
	return prop.Literal, nil
}

// Package parser implements recursive-descent parsing with Pratt-style
// operator precedence for expressions (spec §4.5). The precedence table
// and parenthesis-resets-precedence rule are spec-given directly;
// statement-dispatch structure follows Felmond13-novusdb/parser's
// token-driven recursive descent.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/sql/lexer"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
)

type Parser struct {
	toks []token.Token
	pos  int
}

// Parse tokenizes and parses a single SQL statement. The caller (the
// engine façade) is responsible for appending a trailing ';' if the
// input lacks one (spec §4.8 dispatch rule 1).
func Parse(sql string) (ast.Statement, []token.Token, error) {
	toks, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, toks, err
	}
	p := &Parser{toks: toks}
	stmt, err := p.parseStatement()
	return stmt, toks, err
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) syntaxErr(format string, args ...any) error {
	pos := p.cur().Pos
	msg := fmt.Sprintf(format, args...)
	return dberrors.New(dberrors.SyntaxError, "%s at position %d", msg, pos)
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.cur().Type != tt {
		return token.Token{}, p.syntaxErr("expected %s, found %s %q", tt, p.cur().Type, p.cur().Literal)
	}
	return p.advance(), nil
}

func (p *Parser) expectSemicolon() error {
	_, err := p.expect(token.SEMICOLON)
	return err
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case token.BEGIN:
		p.advance()
		if p.cur().Type == token.TRANSACTION {
			p.advance()
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		return &ast.BeginStmt{}, nil
	case token.COMMIT:
		p.advance()
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		return &ast.CommitStmt{}, nil
	case token.ROLLBACK:
		p.advance()
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		return &ast.RollbackStmt{}, nil
	case token.CREATE:
		return p.parseCreateTable()
	case token.DROP:
		return p.parseDropTable()
	case token.INSERT:
		return p.parseInsert()
	case token.DELETE:
		return p.parseDelete()
	case token.SELECT:
		stmt, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.expectSemicolon(); err != nil {
			return nil, err
		}
		return stmt, nil
	default:
		return nil, p.syntaxErr("unexpected token %s %q", p.cur().Type, p.cur().Literal)
	}
}

func (p *Parser) parseIdentLiteral() (string, error) {
	if p.cur().Type != token.IDENT {
		return "", p.syntaxErr("expected identifier, found %s %q", p.cur().Type, p.cur().Literal)
	}
	return p.advance().Literal, nil
}

func (p *Parser) parseCreateTable() (ast.Statement, error) {
	p.advance() // CREATE
	if _, err := p.expect(token.TABLE); err != nil {
		return nil, err
	}
	name, err := p.parseIdentLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var cols []ast.ColumnDef
	for {
		colName, err := p.parseIdentLiteral()
		if err != nil {
			return nil, err
		}
		typeTok := p.cur()
		switch typeTok.Type {
		case token.INT, token.TEXT, token.DATE, token.DATETIME:
			p.advance()
		default:
			return nil, dberrors.New(dberrors.ValidationError, "unknown column type %q for column %q", typeTok.Literal, colName)
		}
		cols = append(cols, ast.ColumnDef{Name: colName, Type: typeTok.Type.String()})
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	return &ast.CreateTableStmt{Table: name, Columns: cols}, nil
}

func (p *Parser) parseDropTable() (ast.Statement, error) {
	p.advance() // DROP
	if _, err := p.expect(token.TABLE); err != nil {
		return nil, err
	}
	name, err := p.parseIdentLiteral()
	if err != nil {
		return nil, err
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	return &ast.DropTableStmt{Table: name}, nil
}

func (p *Parser) parseInsert() (ast.Statement, error) {
	p.advance() // INSERT
	if _, err := p.expect(token.INTO); err != nil {
		return nil, err
	}
	name, err := p.parseIdentLiteral()
	if err != nil {
		return nil, err
	}
	stmt := &ast.InsertStmt{Table: name}

	if p.cur().Type == token.LPAREN {
		p.advance()
		for {
			colName, err := p.parseIdentLiteral()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, colName)
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}

	switch p.cur().Type {
	case token.VALUES:
		p.advance()
		for {
			if _, err := p.expect(token.LPAREN); err != nil {
				return nil, err
			}
			var tuple []ast.Expr
			for {
				e, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				tuple = append(tuple, e)
				if p.cur().Type == token.COMMA {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			stmt.Values = append(stmt.Values, tuple)
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	case token.SELECT:
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		stmt.Select = sel
	default:
		return nil, p.syntaxErr("expected VALUES or SELECT, found %s", p.cur().Type)
	}

	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	if len(stmt.Columns) > 0 {
		for _, tuple := range stmt.Values {
			if len(tuple) != len(stmt.Columns) {
				return nil, dberrors.New(dberrors.ValidationError,
					"INSERT column list has %d columns but VALUES tuple has %d", len(stmt.Columns), len(tuple))
			}
		}
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	p.advance() // DELETE
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	name, err := p.parseIdentLiteral()
	if err != nil {
		return nil, err
	}
	stmt := &ast.DeleteStmt{Table: name}
	if p.cur().Type == token.WHERE {
		p.advance()
		w, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	if err := p.expectSemicolon(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseTableRef() (ast.TableRef, error) {
	name, err := p.parseIdentLiteral()
	if err != nil {
		return ast.TableRef{}, err
	}
	ref := ast.TableRef{Name: name}
	if p.cur().Type == token.AS {
		p.advance()
		alias, err := p.parseIdentLiteral()
		if err != nil {
			return ast.TableRef{}, err
		}
		ref.Alias = alias
	}
	return ref, nil
}

func (p *Parser) parseSelect() (*ast.SelectStmt, error) {
	p.advance() // SELECT
	stmt := &ast.SelectStmt{}
	if p.cur().Type == token.DISTINCT {
		stmt.Distinct = true
		p.advance()
	}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, item)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	for p.cur().Type == token.JOIN {
		p.advance()
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ON); err != nil {
			return nil, err
		}
		pred, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, ast.JoinClause{Table: ref, Predicate: pred})
	}

	if p.cur().Type == token.WHERE {
		p.advance()
		w, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}

	if p.cur().Type == token.GROUP {
		p.advance()
		if _, err := p.expect(token.BY); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, e)
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if p.cur().Type == token.ORDER {
		p.advance()
		if _, err := p.expect(token.BY); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			desc := false
			if p.cur().Type == token.ASC {
				p.advance()
			} else if p.cur().Type == token.DESC {
				desc = true
				p.advance()
			}
			stmt.OrderBy = append(stmt.OrderBy, ast.OrderTerm{Expr: e, Descending: desc})
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if p.cur().Type == token.LIMIT {
		p.advance()
		numTok, err := p.expect(token.NUMBER)
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(numTok.Literal)
		if convErr != nil {
			return nil, dberrors.New(dberrors.SyntaxError, "invalid LIMIT value %q", numTok.Literal)
		}
		stmt.Limit = &n
	}

	return stmt, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.cur().Type == token.STAR {
		p.advance()
		return ast.SelectItem{Star: true}, nil
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return ast.SelectItem{}, err
	}
	item := ast.SelectItem{Expr: e}
	if p.cur().Type == token.AS {
		p.advance()
		alias, err := p.parseIdentLiteral()
		if err != nil {
			return ast.SelectItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

func precedence(tt token.Type) int {
	switch tt {
	case token.OR:
		return 10
	case token.AND:
		return 20
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE:
		return 30
	case token.PLUS, token.MINUS:
		return 40
	case token.STAR, token.SLASH, token.PERCENT:
		return 50
	default:
		return 0
	}
}

// parseExpr implements Pratt-style precedence climbing (spec §4.5's
// precedence table); parentheses reset precedence via parsePrimary's
// recursive call to parseExpr(0).
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := precedence(p.cur().Type)
		if prec == 0 || prec < minPrec {
			break
		}
		op := p.advance().Type
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur().Type == token.MINUS {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: token.MINUS, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case token.NUMBER:
		p.advance()
		if strings.Contains(tok.Literal, ".") {
			f, err := strconv.ParseFloat(tok.Literal, 64)
			if err != nil {
				return nil, dberrors.New(dberrors.SyntaxError, "invalid numeric literal %q", tok.Literal)
			}
			return &ast.Literal{Value: f}, nil
		}
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, dberrors.New(dberrors.SyntaxError, "invalid numeric literal %q", tok.Literal)
		}
		return &ast.Literal{Value: n}, nil
	case token.STRING:
		p.advance()
		return &ast.Literal{Value: tok.Literal}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.STAR:
		p.advance()
		return &ast.Star{}, nil
	case token.COUNT, token.SUM, token.MIN, token.MAX, token.AVG:
		return p.parseFuncCall()
	case token.IDENT:
		return p.parseColumnRef()
	default:
		return nil, p.syntaxErr("unexpected token %s %q in expression", tok.Type, tok.Literal)
	}
}

func (p *Parser) parseFuncCall() (ast.Expr, error) {
	name := strings.ToUpper(p.advance().Literal)
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	call := &ast.FuncCall{Name: name}
	if p.cur().Type == token.DISTINCT {
		call.Distinct = true
		p.advance()
	}
	if p.cur().Type == token.STAR {
		if name != "COUNT" {
			return nil, dberrors.New(dberrors.ValidationError, "%s(*) is not supported; only COUNT(*) is", name)
		}
		call.Star = true
		p.advance()
	} else {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		call.Arg = arg
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseColumnRef() (ast.Expr, error) {
	first := p.advance().Literal
	if p.cur().Type == token.DOT {
		p.advance()
		second, err := p.parseIdentLiteral()
		if err != nil {
			return nil, err
		}
		return &ast.ColumnRef{Qualifier: strings.ToLower(first), Name: strings.ToLower(second)}, nil
	}
	return &ast.ColumnRef{Name: strings.ToLower(first)}, nil
}

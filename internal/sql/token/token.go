// Package token defines the lexical categories of the SQL surface (spec
// §4.5), grounded on Felmond13-novusdb/parser/token.go's Type enum and
// LookupIdent keyword table.
package token

type Type int

const (
	EOF Type = iota
	ILLEGAL

	IDENT  // foo (tbl.col lexes as IDENT DOT IDENT)
	NUMBER // 123, 1.5, -7
	STRING // 'abc'

	// punctuation
	LPAREN
	RPAREN
	COMMA
	SEMICOLON
	DOT

	// operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NEQ
	LT
	GT
	LTE
	GTE

	// keywords
	SELECT
	FROM
	WHERE
	GROUP
	BY
	ORDER
	ASC
	DESC
	LIMIT
	DISTINCT
	AND
	OR
	JOIN
	ON
	AS
	INSERT
	INTO
	VALUES
	CREATE
	TABLE
	DROP
	DELETE
	BEGIN
	TRANSACTION
	COMMIT
	ROLLBACK
	COUNT
	SUM
	MIN
	MAX
	AVG
	INT
	TEXT
	DATE
	DATETIME
)

var keywords = map[string]Type{
	"SELECT": SELECT, "FROM": FROM, "WHERE": WHERE, "GROUP": GROUP, "BY": BY,
	"ORDER": ORDER, "ASC": ASC, "DESC": DESC, "LIMIT": LIMIT, "DISTINCT": DISTINCT,
	"AND": AND, "OR": OR, "JOIN": JOIN, "ON": ON, "AS": AS,
	"INSERT": INSERT, "INTO": INTO, "VALUES": VALUES,
	"CREATE": CREATE, "TABLE": TABLE, "DROP": DROP, "DELETE": DELETE,
	"BEGIN": BEGIN, "TRANSACTION": TRANSACTION, "COMMIT": COMMIT, "ROLLBACK": ROLLBACK,
	"COUNT": COUNT, "SUM": SUM, "MIN": MIN, "MAX": MAX, "AVG": AVG,
	"INT": INT, "TEXT": TEXT, "DATE": DATE, "DATETIME": DATETIME,
}

// LookupIdent canonicalizes an identifier's upper-cased form to a
// keyword Type, or returns IDENT if it isn't one.
func LookupIdent(upper string) Type {
	if t, ok := keywords[upper]; ok {
		return t
	}
	return IDENT
}

// IsAggregateFunc reports whether t names one of the five aggregate
// functions (spec §4.5, §4.7).
func IsAggregateFunc(t Type) bool {
	switch t {
	case COUNT, SUM, MIN, MAX, AVG:
		return true
	default:
		return false
	}
}

// Token is one lexical unit with its source position (byte offset),
// used for SyntaxError position reporting (spec §7).
type Token struct {
	Type    Type
	Literal string
	Pos     int
}

func (t Type) String() string {
	switch t {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case COMMA:
		return ","
	case SEMICOLON:
		return ";"
	case DOT:
		return "."
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case EQ:
		return "="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case GT:
		return ">"
	case LTE:
		return "<="
	case GTE:
		return ">="
	default:
		for k, v := range keywords {
			if v == t {
				return k
			}
		}
		return "?"
	}
}

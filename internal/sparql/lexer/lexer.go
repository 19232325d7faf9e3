// Package lexer tokenizes SPARQL 1.1 query/update text for
// internal/sparql/parser. It is built with participle's lexer.Simple, the
// same construction the teacher uses for its own DSL
// (internal/dsl/grammar.go's dslLexer) — reused here for an actual SPARQL
// grammar instead of the teacher's probabilistic-graph DSL.
package lexer

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token names. Order in sparqlLexer's rule list matters: participle's
// simple lexer tries rules in order and takes the first match, so more
// specific patterns (keywords, punctuation, numeric literals) must precede
// the generic Ident fallback.
const (
	Comment       = "Comment"
	Whitespace    = "Whitespace"
	IRIRef        = "IRIRef"
	StringLit     = "StringLit"
	LangTag       = "LangTag"
	DoubleCaret   = "DoubleCaret"
	Double        = "Double"
	Decimal       = "Decimal"
	Integer       = "Integer"
	Boolean       = "Boolean"
	BlankNode     = "BlankNode"
	Anon          = "Anon"
	Var           = "Var"
	PrefixedName  = "PrefixedName"
	Keyword       = "Keyword"
	Punct         = "Punct"
	Ident         = "Ident"
)

// keywords lists every SPARQL 1.1 keyword this core's grammar recognizes.
// Matched case-insensitively, longest-first is not required since the
// lexer matches whole identifiers via \b-bounded alternation.
const keywordPattern = `(?i)\b(SELECT|CONSTRUCT|DESCRIBE|ASK|WHERE|OPTIONAL|UNION|MINUS|GRAPH|SERVICE|SILENT|FILTER|EXISTS|NOT|BIND|AS|VALUES|UNDEF|ORDER|BY|ASC|DESC|GROUP|HAVING|LIMIT|OFFSET|DISTINCT|REDUCED|FROM|NAMED|INSERT|DELETE|DATA|LOAD|CREATE|DROP|CLEAR|INTO|DEFAULT|ALL|USING|WITH|PREFIX|BASE|IN)\b`

var sparqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: Comment, Pattern: `#[^\n]*`},
	{Name: Whitespace, Pattern: `\s+`},
	{Name: IRIRef, Pattern: `<[^<>"{}|^` + "`" + `\x00-\x20]*>`},
	{Name: StringLit, Pattern: `"""([^"\\]|\\.|"{1,2}(?:[^"\\]|\\.))*"""|'''([^'\\]|\\.|'{1,2}(?:[^'\\]|\\.))*'''|"([^"\\\n\r]|\\.)*"|'([^'\\\n\r]|\\.)*'`},
	{Name: LangTag, Pattern: `@[a-zA-Z]+(-[a-zA-Z0-9]+)*`},
	{Name: DoubleCaret, Pattern: `\^\^`},
	{Name: Double, Pattern: `[+-]?(\d+\.\d*|\.\d+|\d+)[eE][+-]?\d+`},
	{Name: Decimal, Pattern: `[+-]?\d*\.\d+`},
	{Name: Integer, Pattern: `[+-]?\d+`},
	{Name: Boolean, Pattern: `(?i)\b(true|false)\b`},
	{Name: BlankNode, Pattern: `_:[A-Za-z0-9_][A-Za-z0-9_.\-]*`},
	{Name: Anon, Pattern: `\[\s*\]`},
	{Name: Var, Pattern: `[?$][A-Za-z_][A-Za-z0-9_]*`},
	{Name: Keyword, Pattern: keywordPattern},
	{Name: PrefixedName, Pattern: `([A-Za-z][A-Za-z0-9_\-]*)?:[A-Za-z_][A-Za-z0-9_.\-%]*|:[A-Za-z_][A-Za-z0-9_.\-%]*`},
	{Name: Punct, Pattern: `[(){}.,;\[\]*]`},
	{Name: Ident, Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
})

// Token is one lexed token together with its byte offset into the
// original source, needed by the parser to slice out raw text spans for
// opaque AST leaves (triples blocks, filter/bind expressions).
type Token struct {
	Type   string
	Value  string
	Offset int
	Line   int
	Column int
}

// Tokenize lexes the full input into a token slice, eliding Comment and
// Whitespace tokens, so the parser never has to skip them itself.
func Tokenize(input string) ([]Token, error) {
	lex, err := sparqlLexer.Lex("", strings.NewReader(input))
	if err != nil {
		return nil, err
	}

	symbols := sparqlLexer.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		names[tt] = name
	}

	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			break
		}
		name := names[tok.Type]
		if name == Comment || name == Whitespace {
			continue
		}
		out = append(out, Token{
			Type:   name,
			Value:  tok.Value,
			Offset: tok.Pos.Offset,
			Line:   tok.Pos.Line,
			Column: tok.Pos.Column,
		})
	}
	return out, nil
}

package cel

import "fmt"

// parser is a recursive-descent parser, one method per grammar rule,
// built over tokenizer's one-token lookahead (spec §3/§4.2). Ground:
// teacher's base_parser.go Peek/Any-driven descent, retargeted at the
// CEL expression grammar instead of PEG grammar syntax.
type parser struct {
	tz  *tokenizer
	err error
}

func newParser(tz *tokenizer) *parser {
	return &parser{tz: tz}
}

func (p *parser) peekTok() Token {
	tok, err := p.tz.peek()
	if err != nil {
		p.err = err
		return Token{Kind: TokEOF}
	}
	return tok
}

func (p *parser) nextTok() Token {
	tok, err := p.tz.next()
	if err != nil {
		p.err = err
		return Token{Kind: TokEOF}
	}
	return tok
}

func (p *parser) atEOF() bool {
	return p.err == nil && p.peekTok().Kind == TokEOF
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.peekTok()
	if p.err != nil {
		return Token{}, p.err
	}
	if tok.Kind != kind {
		return Token{}, NewSyntaxError(tok.Range, "expected %s, got %s", kind, tok)
	}
	return p.nextTok(), nil
}

// parseExpr parses one complete Expr (spec §3 Expr rule: ternary).
func (p *parser) parseExpr() (Node, error) {
	node, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return node, nil
}

// parseTernary implements `cond ? then : els`, where els recurses to
// a full Expr (right-associative nesting), not another Ternary.
func (p *parser) parseTernary() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peekTok().Kind != TokQuestion {
		return cond, nil
	}
	p.nextTok()
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &TernaryNode{
		Cond: cond, Then: then, Else: els,
		Rg: NewRange(cond.Range().Start, els.Range().End),
	}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekTok().Kind == TokOr {
		p.nextTok()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpOr, Left: left, Right: right, Rg: NewRange(left.Range().Start, right.Range().End)}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.peekTok().Kind == TokAnd {
		p.nextTok()
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpAnd, Left: left, Right: right, Rg: NewRange(left.Range().Start, right.Range().End)}
	}
	return left, nil
}

var relops = map[TokenKind]BinOp{
	TokLt: OpLt, TokLe: OpLe, TokGt: OpGt, TokGe: OpGe,
	TokEq: OpEq, TokNe: OpNe, TokIn: OpIn,
}

// parseRelation allows at most one relational operator: CEL relations
// don't chain (`a < b < c` is a syntax error), per spec §3 Relation rule.
func (p *parser) parseRelation() (Node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	op, ok := relops[p.peekTok().Kind]
	if !ok {
		return left, nil
	}
	p.nextTok()
	right, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: op, Left: left, Right: right, Rg: NewRange(left.Range().Start, right.Range().End)}, nil
}

func (p *parser) parseAddition() (Node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}
	for {
		k := p.peekTok().Kind
		var op BinOp
		switch k {
		case TokPlus:
			op = OpAdd
		case TokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.nextTok()
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right, Rg: NewRange(left.Range().Start, right.Range().End)}
	}
}

func (p *parser) parseMultiplication() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		k := p.peekTok().Kind
		var op BinOp
		switch k {
		case TokStar:
			op = OpMul
		case TokSlash:
			op = OpDiv
		case TokPercent:
			op = OpMod
		default:
			return left, nil
		}
		p.nextTok()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right, Rg: NewRange(left.Range().Start, right.Range().End)}
	}
}

// parseUnary collapses runs of `!`/`-` onto a single operand at parse
// time: `!!x` and `--x` both cancel to just `x` (spec §4.2).
func (p *parser) parseUnary() (Node, error) {
	start := p.peekTok().Range.Start
	notCount, negCount := 0, 0
loop:
	for {
		switch p.peekTok().Kind {
		case TokBang:
			p.nextTok()
			notCount++
		case TokMinus:
			p.nextTok()
			negCount++
		default:
			break loop
		}
	}
	operand, err := p.parseMember()
	if err != nil {
		return nil, err
	}
	rg := NewRange(start, operand.Range().End)
	if notCount%2 == 1 {
		operand = &UnaryNode{Op: OpNot, Operand: operand, Rg: rg}
	}
	if negCount%2 == 1 {
		operand = &UnaryNode{Op: OpNeg, Operand: operand, Rg: rg}
	}
	return operand, nil
}

// parseMember implements the Member rule: a Primary followed by any
// number of `.field`, `.method(args)`, or `[index]` suffixes.
func (p *parser) parseMember() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peekTok().Kind {
		case TokDot:
			p.nextTok()
			nameTok, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			if p.peekTok().Kind == TokLParen {
				args, endRg, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				node = &CallNode{
					Receiver: node, Func: nameTok.Ident, Args: args,
					Rg: NewRange(node.Range().Start, endRg.End),
				}
				continue
			}
			node = &MemberNode{Receiver: node, Field: nameTok.Ident, Rg: NewRange(node.Range().Start, nameTok.Range.End)}

		case TokLBracket:
			p.nextTok()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(TokRBracket)
			if err != nil {
				return nil, err
			}
			node = &IndexNode{Receiver: node, Index: idx, Rg: NewRange(node.Range().Start, end.Range.End)}

		default:
			return node, nil
		}
	}
}

// parseArgs parses a parenthesized, comma-separated argument list,
// assuming the current token is the opening '('.
func (p *parser) parseArgs() ([]Node, Range, error) {
	p.nextTok() // consume '('
	var args []Node
	if p.peekTok().Kind != TokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, Range{}, err
			}
			args = append(args, arg)
			if p.peekTok().Kind != TokComma {
				break
			}
			p.nextTok()
		}
	}
	end, err := p.expect(TokRParen)
	if err != nil {
		return nil, Range{}, err
	}
	return args, end.Range, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peekTok()
	switch tok.Kind {
	case TokTrue:
		p.nextTok()
		return &LiteralNode{Value: BoolValue(true), Rg: tok.Range}, nil
	case TokFalse:
		p.nextTok()
		return &LiteralNode{Value: BoolValue(false), Rg: tok.Range}, nil
	case TokNull:
		p.nextTok()
		return &LiteralNode{Value: NullValue(), Rg: tok.Range}, nil
	case TokInt:
		p.nextTok()
		return &LiteralNode{Value: IntValue(int64(tok.IntVal)), Rg: tok.Range}, nil
	case TokUInt:
		p.nextTok()
		return &LiteralNode{Value: UIntValue(tok.IntVal), Rg: tok.Range}, nil
	case TokFloat:
		p.nextTok()
		return &LiteralNode{Value: FloatValue(tok.FloatVal), Rg: tok.Range}, nil
	case TokString:
		p.nextTok()
		return &LiteralNode{Value: StringValue(tok.StrVal), Rg: tok.Range}, nil
	case TokByteString:
		p.nextTok()
		return &LiteralNode{Value: BytesValue(tok.BytesVal), Rg: tok.Range}, nil
	case TokFString:
		p.nextTok()
		return p.buildFString(tok)

	case TokDot:
		p.nextTok()
		nameTok, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		return p.finishIdentOrCall(nameTok, true, tok.Range.Start)

	case TokIdent:
		p.nextTok()
		return p.finishIdentOrCall(tok, false, tok.Range.Start)

	case TokLParen:
		p.nextTok()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case TokLBracket:
		return p.parseListLiteral(tok)

	case TokLBrace:
		return p.parseMapLiteral(tok)

	default:
		return nil, NewSyntaxError(tok.Range, "unexpected token %s", tok)
	}
}

// finishIdentOrCall disambiguates a bare/rooted identifier from a free
// function call (`name(args)`), which only a bare name can start.
func (p *parser) finishIdentOrCall(nameTok Token, rooted bool, start Location) (Node, error) {
	if p.peekTok().Kind == TokLParen {
		args, endRg, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &CallNode{Func: nameTok.Ident, Args: args, Rg: NewRange(start, endRg.End)}, nil
	}
	return &IdentNode{Name: nameTok.Ident, Rooted: rooted, Rg: NewRange(start, nameTok.Range.End)}, nil
}

func (p *parser) parseListLiteral(open Token) (Node, error) {
	p.nextTok()
	var items []Node
	if p.peekTok().Kind != TokRBracket {
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.peekTok().Kind != TokComma {
				break
			}
			p.nextTok()
		}
	}
	end, err := p.expect(TokRBracket)
	if err != nil {
		return nil, err
	}
	return &ListNode{Items: items, Rg: NewRange(open.Range.Start, end.Range.End)}, nil
}

func (p *parser) parseMapLiteral(open Token) (Node, error) {
	p.nextTok()
	var entries []MapEntry
	if p.peekTok().Kind != TokRBrace {
		for {
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokColon); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
			if p.peekTok().Kind != TokComma {
				break
			}
			p.nextTok()
		}
	}
	end, err := p.expect(TokRBrace)
	if err != nil {
		return nil, err
	}
	return &MapNode{Entries: entries, Rg: NewRange(open.Range.Start, end.Range.End)}, nil
}

// buildFString recursively parses each embedded expression segment's
// captured raw source text into its own sub-AST (spec §4.2/§4.7).
func (p *parser) buildFString(tok Token) (Node, error) {
	parts := make([]FStringPart, len(tok.Segments))
	for i, seg := range tok.Segments {
		if !seg.IsExpr {
			parts[i] = FStringPart{Literal: seg.Text}
			continue
		}
		sub, err := ParseExprString(seg.Text)
		if err != nil {
			return nil, fmt.Errorf("in f-string segment %q: %w", seg.Text, err)
		}
		parts[i] = FStringPart{Expr: sub}
	}
	return &FStringNode{Parts: parts, Rg: tok.Range}, nil
}

// ParseExprString parses source as a standalone Expr and returns its
// AST root, without compiling it. Used for f-string segment bodies and
// exposed for tooling (pretty-printers, REPLs).
func ParseExprString(source string) (Node, error) {
	p := newParser(newTokenizer(source))
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		tok := p.peekTok()
		return nil, NewSyntaxError(tok.Range, "unexpected trailing token %s", tok)
	}
	return node, nil
}

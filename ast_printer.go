package cel

import (
	"fmt"

	"github.com/1BADragon/rscel-sub001/ascii"
)

// astPrinter renders a Node tree as indented text, colorized per
// theme. Ground: teacher's value.go PrettyString/HighlightPrettyString
// pair, built on the shared treePrinter utility.
type astPrinter struct {
	tp    *treePrinter[Node]
	theme ascii.Theme
}

// PrintAST renders root as a human-readable indented tree.
func PrintAST(root Node, theme ascii.Theme) string {
	p := &astPrinter{
		tp:    newTreePrinter(func(s string, _ Node) string { return s }),
		theme: theme,
	}
	root.Accept(p)
	return p.tp.output.String()
}

func (p *astPrinter) line(label string) {
	p.tp.pwritel(label)
}

func (p *astPrinter) child(n Node) {
	p.tp.indent("  ")
	n.Accept(p)
	p.tp.unindent()
}

func (p *astPrinter) VisitLiteral(n *LiteralNode) error {
	p.line(ascii.Color(p.theme.Literal, "%s", n.Value.String()))
	return nil
}

func (p *astPrinter) VisitIdent(n *IdentNode) error {
	name := n.Name
	if n.Rooted {
		name = "." + name
	}
	p.line(ascii.Color(p.theme.Accent, "%s", name))
	return nil
}

func (p *astPrinter) VisitTernary(n *TernaryNode) error {
	p.line(ascii.Color(p.theme.Operator, "?:"))
	p.child(n.Cond)
	p.child(n.Then)
	p.child(n.Else)
	return nil
}

func (p *astPrinter) VisitBinary(n *BinaryNode) error {
	p.line(ascii.Color(p.theme.Operator, "%s", n.Op))
	p.child(n.Left)
	p.child(n.Right)
	return nil
}

func (p *astPrinter) VisitUnary(n *UnaryNode) error {
	p.line(ascii.Color(p.theme.Operator, "%s", n.Op))
	p.child(n.Operand)
	return nil
}

func (p *astPrinter) VisitMember(n *MemberNode) error {
	p.line(fmt.Sprintf(".%s", ascii.Color(p.theme.Label, "%s", n.Field)))
	p.child(n.Receiver)
	return nil
}

func (p *astPrinter) VisitIndex(n *IndexNode) error {
	p.line("[]")
	p.child(n.Receiver)
	p.child(n.Index)
	return nil
}

func (p *astPrinter) VisitCall(n *CallNode) error {
	p.line(ascii.Color(p.theme.Accent, "%s(...)", n.Func))
	if n.Receiver != nil {
		p.child(n.Receiver)
	}
	for _, arg := range n.Args {
		p.child(arg)
	}
	return nil
}

func (p *astPrinter) VisitList(n *ListNode) error {
	p.line("[]list")
	for _, item := range n.Items {
		p.child(item)
	}
	return nil
}

func (p *astPrinter) VisitMap(n *MapNode) error {
	p.line("{}map")
	for _, e := range n.Entries {
		p.child(e.Key)
		p.child(e.Value)
	}
	return nil
}

func (p *astPrinter) VisitFString(n *FStringNode) error {
	p.line("fstring")
	for _, part := range n.Parts {
		if part.Expr == nil {
			p.tp.indent("  ")
			p.line(ascii.Color(p.theme.Literal, "%q", part.Literal))
			p.tp.unindent()
			continue
		}
		p.child(part.Expr)
	}
	return nil
}

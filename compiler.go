package cel

import "fmt"

// compiler lowers an AST into a flat Instruction stream (spec §4.3).
// Ground: teacher's grammar_compiler.go visitor-driven emission, minus
// the capture/charset opcodes that have no CEL analogue.
type compiler struct {
	code  []Instruction
	idset map[string]bool
	free  []string
}

// Compile lowers root into a Program ready for interpretation. source
// is retained on the Program for error reporting.
func Compile(root Node, source string) (*Program, error) {
	c := &compiler{idset: map[string]bool{}}
	if err := root.Accept(c); err != nil {
		return nil, err
	}
	return &Program{
		Source:     source,
		Code:       c.code,
		FreeIdents: c.free,
		AST:        root,
	}, nil
}

func (c *compiler) emit(inst Instruction) int {
	c.code = append(c.code, inst)
	return len(c.code) - 1
}

func (c *compiler) here() int { return len(c.code) }

// patchJmp rewrites the jump at idx so its Offset lands on target,
// expressed relative to the instruction immediately following idx
// (matching the interpreter's pc += 1 + Offset semantics).
func (c *compiler) patchJmp(idx, target int) {
	switch inst := c.code[idx].(type) {
	case JmpInst:
		inst.Offset = target - (idx + 1)
		c.code[idx] = inst
	case JmpCondInst:
		inst.Offset = target - (idx + 1)
		c.code[idx] = inst
	case JmpIfErrInst:
		inst.Offset = target - (idx + 1)
		c.code[idx] = inst
	default:
		panic(fmt.Sprintf("patchJmp: instruction at %d is not a jump", idx))
	}
}

func (c *compiler) VisitLiteral(n *LiteralNode) error {
	c.emit(PushInst{Value: n.Value})
	return nil
}

func (c *compiler) VisitIdent(n *IdentNode) error {
	if n.Name == "true" {
		c.emit(PushInst{Value: BoolValue(true)})
		return nil
	}
	if n.Name == "false" {
		c.emit(PushInst{Value: BoolValue(false)})
		return nil
	}
	if n.Name == "null" {
		c.emit(PushInst{Value: NullValue()})
		return nil
	}
	if !c.idset[n.Name] {
		c.idset[n.Name] = true
		c.free = append(c.free, n.Name)
	}
	c.emit(LoadInst{Name: n.Name})
	return nil
}

// VisitTernary lowers `cond ? then : els` with genuine branching, not
// eager evaluation of both arms (spec §4.2/§4.4). A cond that errors
// short-circuits past both arms entirely via JmpIfErrInst, landing at
// the same convergence point as the normal Then/Else paths so exactly
// one value is left on the stack either way.
func (c *compiler) VisitTernary(n *TernaryNode) error {
	if err := n.Cond.Accept(c); err != nil {
		return err
	}
	c.emit(TestInst{})
	jmpErr := c.emit(JmpIfErrInst{})
	jmpToElse := c.emit(JmpCondInst{When: false})
	if err := n.Then.Accept(c); err != nil {
		return err
	}
	jmpToEnd := c.emit(JmpInst{})
	c.patchJmp(jmpToElse, c.here())
	if err := n.Else.Accept(c); err != nil {
		return err
	}
	end := c.here()
	c.patchJmp(jmpToEnd, end)
	c.patchJmp(jmpErr, end)
	return nil
}

func (c *compiler) VisitBinary(n *BinaryNode) error {
	if err := n.Left.Accept(c); err != nil {
		return err
	}
	if err := n.Right.Accept(c); err != nil {
		return err
	}
	switch n.Op {
	case OpAnd:
		c.emit(AndInst{})
		return nil
	case OpOr:
		c.emit(OrInst{})
		return nil
	case OpLt:
		c.emit(LtInst{})
	case OpLe:
		c.emit(LeInst{})
	case OpGt:
		c.emit(GtInst{})
	case OpGe:
		c.emit(GeInst{})
	case OpEq:
		c.emit(EqInst{})
	case OpNe:
		c.emit(NeInst{})
	case OpIn:
		c.emit(InInst{})
	case OpAdd:
		c.emit(AddInst{})
	case OpSub:
		c.emit(SubInst{})
	case OpMul:
		c.emit(MulInst{})
	case OpDiv:
		c.emit(DivInst{})
	case OpMod:
		c.emit(ModInst{})
	default:
		return NewInternalError("compiler: unhandled binary op %s", n.Op)
	}
	return nil
}

func (c *compiler) VisitUnary(n *UnaryNode) error {
	if err := n.Operand.Accept(c); err != nil {
		return err
	}
	switch n.Op {
	case OpNot:
		c.emit(NotInst{})
	case OpNeg:
		c.emit(NegInst{})
	}
	return nil
}

func (c *compiler) VisitMember(n *MemberNode) error {
	if err := n.Receiver.Accept(c); err != nil {
		return err
	}
	c.emit(AccessInst{Field: n.Field})
	return nil
}

func (c *compiler) VisitIndex(n *IndexNode) error {
	if err := n.Receiver.Accept(c); err != nil {
		return err
	}
	if err := n.Index.Accept(c); err != nil {
		return err
	}
	c.emit(IndexInst{})
	return nil
}

// VisitCall compiles every call -- free function, method, or macro --
// the same way: receiver and each argument are compiled into their own
// independent, unevaluated sub-Program and carried as payloads on the
// CallInst (spec §4.3/§9 "arg-as-bytecode-value" design note). Whether
// CALL ends up dispatching to a Function or a Macro is a runtime
// decision made against the binding environment (context.go's
// `interp.call`), never a compile-time name lookup -- that's what lets
// a macro registered under a new name via BindContext.BindMacro work
// exactly like a built-in one (spec §6). Identifiers read inside the
// sub-Programs stay on each sub-Program's own FreeIdents and are not
// added to the enclosing Program's: a macro binds its own loop
// variables (the `x` in `list.filter(x, x > 2)`).
func (c *compiler) VisitCall(n *CallNode) error {
	var recv *Program
	if n.Receiver != nil {
		p, err := Compile(n.Receiver, "")
		if err != nil {
			return err
		}
		recv = p
	}
	argProgs := make([]*Program, len(n.Args))
	for i, arg := range n.Args {
		p, err := Compile(arg, "")
		if err != nil {
			return err
		}
		argProgs[i] = p
	}
	c.emit(CallInst{
		Func:        n.Func,
		Argc:        len(n.Args),
		HasReceiver: n.Receiver != nil,
		ArgProgs:    argProgs,
		Receiver:    recv,
	})
	return nil
}

func (c *compiler) VisitList(n *ListNode) error {
	for _, item := range n.Items {
		if err := item.Accept(c); err != nil {
			return err
		}
	}
	c.emit(MkListInst{Count: len(n.Items)})
	return nil
}

func (c *compiler) VisitMap(n *MapNode) error {
	for _, entry := range n.Entries {
		if err := entry.Key.Accept(c); err != nil {
			return err
		}
		if err := entry.Value.Accept(c); err != nil {
			return err
		}
	}
	c.emit(MkDictInst{Count: len(n.Entries)})
	return nil
}

func (c *compiler) VisitFString(n *FStringNode) error {
	for _, part := range n.Parts {
		if part.Expr == nil {
			c.emit(PushInst{Value: StringValue(part.Literal)})
			continue
		}
		if err := part.Expr.Accept(c); err != nil {
			return err
		}
	}
	c.emit(FmtInst{Count: len(n.Parts)})
	return nil
}

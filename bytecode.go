package cel

import (
	"fmt"
	"strings"

	"github.com/1BADragon/rscel-sub001/ascii"
)

// Instruction is implemented by every bytecode opcode struct (spec
// §4.3/§4.4). Ground: teacher's one-struct-per-opcode Instruction
// family in vm_instructions.go, simplified: no backtracking frames,
// every instruction is either a pure stack op or a forward jump.
type Instruction interface {
	Opcode() string
	// Disassemble returns the human readable operand text for a
	// disassembly listing, colorized per the active ascii.Theme.
	Disassemble(theme ascii.Theme) string
}

// PushInst pushes a constant CelValue.
type PushInst struct{ Value CelValue }

func (PushInst) Opcode() string { return "PUSH" }
func (i PushInst) Disassemble(theme ascii.Theme) string {
	return "PUSH " + ascii.Color(theme.Literal, "%s", i.Value.String())
}

// TestInst asserts the top of stack is Bool (an Err is left in place),
// replacing it with Err::Value otherwise. Used before JMPCOND.
type TestInst struct{}

func (TestInst) Opcode() string                          { return "TEST" }
func (TestInst) Disassemble(theme ascii.Theme) string     { return "TEST" }

// NotInst / NegInst implement the unary operators.
type NotInst struct{}

func (NotInst) Opcode() string                          { return "NOT" }
func (NotInst) Disassemble(theme ascii.Theme) string     { return "NOT" }

type NegInst struct{}

func (NegInst) Opcode() string                          { return "NEG" }
func (NegInst) Disassemble(theme ascii.Theme) string     { return "NEG" }

// binary arithmetic/comparison/membership instructions, each popping
// two operands and pushing one result.
type (
	AddInst struct{}
	SubInst struct{}
	MulInst struct{}
	DivInst struct{}
	ModInst struct{}
	LtInst  struct{}
	LeInst  struct{}
	GtInst  struct{}
	GeInst  struct{}
	EqInst  struct{}
	NeInst  struct{}
	InInst  struct{}

	// AndInst / OrInst implement CEL's commutative, error-absorbing
	// && and || (spec §4.4/§8): both operands are always evaluated
	// eagerly (CEL forbids side effects, so this costs nothing
	// observable) and combined with absorption in value_ops.go.
	AndInst struct{}
	OrInst  struct{}
)

func (AddInst) Opcode() string { return "ADD" }
func (SubInst) Opcode() string { return "SUB" }
func (MulInst) Opcode() string { return "MUL" }
func (DivInst) Opcode() string { return "DIV" }
func (ModInst) Opcode() string { return "MOD" }
func (LtInst) Opcode() string  { return "LT" }
func (LeInst) Opcode() string  { return "LE" }
func (GtInst) Opcode() string  { return "GT" }
func (GeInst) Opcode() string  { return "GE" }
func (EqInst) Opcode() string  { return "EQ" }
func (NeInst) Opcode() string  { return "NE" }
func (InInst) Opcode() string  { return "IN" }
func (AndInst) Opcode() string { return "AND" }
func (OrInst) Opcode() string  { return "OR" }

func (i AddInst) Disassemble(theme ascii.Theme) string { return "ADD" }
func (i SubInst) Disassemble(theme ascii.Theme) string { return "SUB" }
func (i MulInst) Disassemble(theme ascii.Theme) string { return "MUL" }
func (i DivInst) Disassemble(theme ascii.Theme) string { return "DIV" }
func (i ModInst) Disassemble(theme ascii.Theme) string { return "MOD" }
func (i LtInst) Disassemble(theme ascii.Theme) string  { return "LT" }
func (i LeInst) Disassemble(theme ascii.Theme) string  { return "LE" }
func (i GtInst) Disassemble(theme ascii.Theme) string  { return "GT" }
func (i GeInst) Disassemble(theme ascii.Theme) string  { return "GE" }
func (i EqInst) Disassemble(theme ascii.Theme) string  { return "EQ" }
func (i NeInst) Disassemble(theme ascii.Theme) string  { return "NE" }
func (i InInst) Disassemble(theme ascii.Theme) string  { return "IN" }
func (i AndInst) Disassemble(theme ascii.Theme) string { return "AND" }
func (i OrInst) Disassemble(theme ascii.Theme) string  { return "OR" }

// JmpInst is an unconditional relative jump, used to skip the else
// branch of a ternary once the then branch has run.
type JmpInst struct{ Offset int }

func (JmpInst) Opcode() string { return "JMP" }
func (i JmpInst) Disassemble(theme ascii.Theme) string {
	return "JMP " + ascii.Color(theme.Operand, "%+d", i.Offset)
}

// JmpIfErrInst pops the top value; if it is Err, pushes it back and
// jumps by Offset, otherwise pushes it back unchanged and falls
// through. Used to short-circuit an entire construct (e.g. a ternary)
// the instant its condition errors, without evaluating either branch.
type JmpIfErrInst struct{ Offset int }

func (JmpIfErrInst) Opcode() string { return "JMPERR" }
func (i JmpIfErrInst) Disassemble(theme ascii.Theme) string {
	return "JMPERR " + ascii.Color(theme.Operand, "%+d", i.Offset)
}

// JmpCondInst pops a Bool and jumps by Offset when it equals When.
type JmpCondInst struct {
	Offset int
	When   bool
}

func (JmpCondInst) Opcode() string { return "JMPCOND" }
func (i JmpCondInst) Disassemble(theme ascii.Theme) string {
	return fmt.Sprintf("JMPCOND %v %s", i.When, ascii.Color(theme.Operand, "%+d", i.Offset))
}

// MkListInst pops Count values and pushes a List built from them, in
// the order they were pushed (bottom of the popped range first).
type MkListInst struct{ Count int }

func (MkListInst) Opcode() string { return "MKLIST" }
func (i MkListInst) Disassemble(theme ascii.Theme) string {
	return "MKLIST " + ascii.Color(theme.Operand, "%d", i.Count)
}

// MkDictInst pops Count key/value pairs (key first, pushed key then
// value per pair) and pushes a Map.
type MkDictInst struct{ Count int }

func (MkDictInst) Opcode() string { return "MKDICT" }
func (i MkDictInst) Disassemble(theme ascii.Theme) string {
	return "MKDICT " + ascii.Color(theme.Operand, "%d", i.Count)
}

// IndexInst pops an index and a receiver and pushes receiver[index].
type IndexInst struct{}

func (IndexInst) Opcode() string                          { return "INDEX" }
func (IndexInst) Disassemble(theme ascii.Theme) string     { return "INDEX" }

// AccessInst pops a receiver and pushes receiver.Field.
type AccessInst struct{ Field string }

func (AccessInst) Opcode() string { return "ACCESS" }
func (i AccessInst) Disassemble(theme ascii.Theme) string {
	return "ACCESS " + ascii.Color(theme.Label, "%s", i.Field)
}

// LoadInst pushes the value bound to Name (spec §4.4 identifier
// resolution, raising Err::Binding when unbound).
type LoadInst struct{ Name string }

func (LoadInst) Opcode() string { return "LOAD" }
func (i LoadInst) Disassemble(theme ascii.Theme) string {
	return "LOAD " + ascii.Color(theme.Accent, "%s", i.Name)
}

// CallInst invokes a callee named Func, which may resolve to either a
// host Function or a Macro depending on what's bound at run time (spec
// §4.3/§9 "arg-as-bytecode-value": the compiler never decides macro
// vs. function -- it always compiles the receiver and every argument
// into their own unevaluated sub-Programs, and `interp.call` looks
// Func up against the binding environment to decide how to run them: a
// macro gets ArgProgs/Receiver untouched and owns its own evaluation
// schedule, a function has each evaluated once, in order, before
// dispatch).
type CallInst struct {
	Func        string
	Argc        int
	HasReceiver bool

	// ArgProgs holds one compiled, unevaluated sub-Program per
	// argument; Receiver holds the compiled receiver sub-program (nil
	// when HasReceiver is false).
	ArgProgs []*Program
	Receiver *Program
}

func (CallInst) Opcode() string { return "CALL" }
func (i CallInst) Disassemble(theme ascii.Theme) string {
	return fmt.Sprintf("CALL %s argc=%d", ascii.Color(theme.Accent, "%s", i.Func), i.Argc)
}

// FmtInst pops Count values (the f-string segment results) and pushes
// the concatenation of their String() renderings, or the first Err
// among them.
type FmtInst struct{ Count int }

func (FmtInst) Opcode() string { return "FMT" }
func (i FmtInst) Disassemble(theme ascii.Theme) string {
	return "FMT " + ascii.Color(theme.Operand, "%d", i.Count)
}

// Program is a compiled, directly executable unit: a flat instruction
// stream plus enough metadata to report errors against the original
// source and to discover which free identifiers it requires binding
// for (spec §4.3/§6).
//
// Ground: teacher's Program in vm_program.go (code + debug info
// alongside it), minus the PEG-specific capture/grammar-name fields.
type Program struct {
	Source string
	Code   []Instruction

	// FreeIdents is the set of bare identifiers the program's own Code
	// reads via LoadInst, collected at compile time so Context.Exec can
	// validate bindings before running (spec §6). Identifiers inside a
	// CallInst's receiver/argument sub-Programs are listed on those
	// sub-Programs instead.
	FreeIdents []string

	// AST is retained optionally for pretty-printing / tooling; nil
	// once a Program round-trips through Serialize/Deserialize.
	AST Node
}

// Disassemble renders the instruction stream as a readable listing,
// colorized with theme (pass ascii.DefaultTheme for terminal output,
// or a theme with colors disabled for plain text).
func (p *Program) Disassemble(theme ascii.Theme) string {
	var b strings.Builder
	for i, inst := range p.Code {
		fmt.Fprintf(&b, "%4d  %s\n", i, inst.Disassemble(theme))
	}
	return b.String()
}

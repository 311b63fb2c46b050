package cel

import (
	"bytes"
	"encoding/gob"
)

// gobProgram is the wire shape Program (de)serializes through: the
// AST is dropped (it carries interface-typed Node values gob cannot
// register generically) since Code plus FreeIdents is everything the
// interpreter needs to run (spec §6: "serialization is a pass-through
// using any stable encoding", out of scope as a design concern, so
// gob is used rather than inventing a wire format -- see DESIGN.md).
type gobProgram struct {
	Source     string
	Code       []Instruction
	FreeIdents []string
}

func init() {
	gob.Register(PushInst{})
	gob.Register(TestInst{})
	gob.Register(NotInst{})
	gob.Register(NegInst{})
	gob.Register(AddInst{})
	gob.Register(SubInst{})
	gob.Register(MulInst{})
	gob.Register(DivInst{})
	gob.Register(ModInst{})
	gob.Register(LtInst{})
	gob.Register(LeInst{})
	gob.Register(GtInst{})
	gob.Register(GeInst{})
	gob.Register(EqInst{})
	gob.Register(NeInst{})
	gob.Register(InInst{})
	gob.Register(AndInst{})
	gob.Register(OrInst{})
	gob.Register(JmpInst{})
	gob.Register(JmpIfErrInst{})
	gob.Register(JmpCondInst{})
	gob.Register(MkListInst{})
	gob.Register(MkDictInst{})
	gob.Register(IndexInst{})
	gob.Register(AccessInst{})
	gob.Register(LoadInst{})
	gob.Register(CallInst{})
	gob.Register(FmtInst{})
}

// GobEncode implements gob.GobEncoder, dropping the optional AST field
// so CallInst's nested ArgProgs/Receiver sub-Programs round-trip
// recursively through the same encoding without needing every AST
// node type registered.
func (p *Program) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(gobProgram{Source: p.Source, Code: p.Code, FreeIdents: p.FreeIdents}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The result's AST field is
// always nil; re-parse from Source if tooling needs it.
func (p *Program) GobDecode(data []byte) error {
	var gp gobProgram
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&gp); err != nil {
		return err
	}
	p.Source, p.Code, p.FreeIdents = gp.Source, gp.Code, gp.FreeIdents
	return nil
}

// Serialize encodes p to a portable byte stream (spec §6).
func (p *Program) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, NewInternalError("serialize: %s", err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a byte stream produced by Serialize back into a
// runnable Program.
func Deserialize(data []byte) (*Program, error) {
	var p Program
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, NewInternalError("deserialize: %s", err)
	}
	return &p, nil
}

package cel

import "context"

// maxStackDepth bounds the operand stack as a crude runaway-program
// guard; the step limit (defaultStepLimit, applied by BindContext.Exec)
// is the primary guard.
const maxStackDepth = 1 << 20

// stack is the interpreter's operand stack. Ground: teacher's
// vm_stack.go push/pop/top idiom, without the backtracking save-points
// a PEG VM needs.
type stack struct {
	items []CelValue
}

func (s *stack) push(v CelValue) {
	s.items = append(s.items, v)
}

func (s *stack) pop() CelValue {
	n := len(s.items)
	v := s.items[n-1]
	s.items = s.items[:n-1]
	return v
}

func (s *stack) top() CelValue {
	return s.items[len(s.items)-1]
}

func (s *stack) len() int { return len(s.items) }

// interp executes one Program against a set of bindings. It is
// re-created per Context.Exec call: no state survives between runs.
type interp struct {
	ctx      context.Context
	bindings Bindings
	funcs    *funcRegistry
	macros   map[string]Macro
	steps    int
	stepCap  int
}

// run executes prog to completion and returns its result value (which
// may itself be an Err CelValue -- only Go-level errors are returned
// as the second value, e.g. a step-limit or stack-invariant failure).
func (it *interp) run(prog *Program) (CelValue, error) {
	st := &stack{}
	if err := it.exec(prog.Code, st); err != nil {
		return CelValue{}, err
	}
	if st.len() != 1 {
		return CelValue{}, NewInternalError("program halted with stack depth %d, expected 1", st.len())
	}
	return st.pop(), nil
}

func (it *interp) exec(code []Instruction, st *stack) error {
	pc := 0
	for pc < len(code) {
		if err := it.ctx.Err(); err != nil {
			return err
		}
		it.steps++
		if it.stepCap > 0 && it.steps > it.stepCap {
			return NewRuntimeError("step limit exceeded")
		}
		if st.len() > maxStackDepth {
			return NewRuntimeError("operand stack depth exceeded")
		}

		switch inst := code[pc].(type) {
		case PushInst:
			st.push(inst.Value)

		case TestInst:
			v := st.top()
			if v.IsErr() {
				break
			}
			if v.Kind != KindBool {
				st.pop()
				st.push(ErrValue(NewValueError("expected bool, got %s", v.TypeName())))
			}

		case NotInst:
			st.push(Not(st.pop()))

		case NegInst:
			st.push(Neg(st.pop()))

		case AddInst:
			r, l := st.pop(), st.pop()
			st.push(Add(l, r))
		case SubInst:
			r, l := st.pop(), st.pop()
			st.push(Sub(l, r))
		case MulInst:
			r, l := st.pop(), st.pop()
			st.push(Mul(l, r))
		case DivInst:
			r, l := st.pop(), st.pop()
			st.push(Div(l, r))
		case ModInst:
			r, l := st.pop(), st.pop()
			st.push(Mod(l, r))
		case LtInst:
			r, l := st.pop(), st.pop()
			st.push(Lt(l, r))
		case LeInst:
			r, l := st.pop(), st.pop()
			st.push(Le(l, r))
		case GtInst:
			r, l := st.pop(), st.pop()
			st.push(Gt(l, r))
		case GeInst:
			r, l := st.pop(), st.pop()
			st.push(Ge(l, r))
		case EqInst:
			r, l := st.pop(), st.pop()
			st.push(Eq(l, r))
		case NeInst:
			r, l := st.pop(), st.pop()
			st.push(Ne(l, r))
		case InInst:
			r, l := st.pop(), st.pop()
			st.push(In(l, r))

		case AndInst:
			r, l := st.pop(), st.pop()
			st.push(And(l, r))
		case OrInst:
			r, l := st.pop(), st.pop()
			st.push(Or(l, r))

		case JmpInst:
			pc += 1 + inst.Offset
			continue

		case JmpIfErrInst:
			v := st.pop()
			st.push(v)
			if v.IsErr() {
				pc += 1 + inst.Offset
				continue
			}

		case JmpCondInst:
			v := st.pop()
			if v.IsErr() {
				st.push(v)
				break
			}
			if v.AsBool() == inst.When {
				pc += 1 + inst.Offset
				continue
			}

		case MkListInst:
			items := make([]CelValue, inst.Count)
			for i := inst.Count - 1; i >= 0; i-- {
				items[i] = st.pop()
			}
			st.push(ListValue(items))

		case MkDictInst:
			m := make(map[string]CelValue, inst.Count)
			pairs := make([][2]CelValue, inst.Count)
			for i := inst.Count - 1; i >= 0; i-- {
				v := st.pop()
				k := st.pop()
				pairs[i] = [2]CelValue{k, v}
			}
			var errv CelValue
			for _, kv := range pairs {
				if kv[0].IsErr() {
					errv = kv[0]
					continue
				}
				if kv[1].IsErr() {
					errv = kv[1]
					continue
				}
				if kv[0].Kind != KindString {
					errv = ErrValue(NewValueError("map keys must be strings, got %s", kv[0].TypeName()))
					continue
				}
				m[kv[0].s] = kv[1]
			}
			if errv.IsErr() {
				st.push(errv)
			} else {
				st.push(MapValue(m))
			}

		case IndexInst:
			idx, recv := st.pop(), st.pop()
			st.push(it.index(recv, idx))

		case AccessInst:
			recv := st.pop()
			st.push(it.access(recv, inst.Field))

		case LoadInst:
			v, ok := it.bindings.lookup(inst.Name)
			if !ok {
				st.push(ErrValue(NewBindingError(inst.Name)))
			} else {
				st.push(v)
			}

		case CallInst:
			v, err := it.call(inst, st)
			if err != nil {
				return err
			}
			st.push(v)

		case FmtInst:
			parts := make([]CelValue, inst.Count)
			for i := inst.Count - 1; i >= 0; i-- {
				parts[i] = st.pop()
			}
			st.push(formatParts(parts))

		default:
			return NewInternalError("unknown instruction %T", inst)
		}
		pc++
	}
	return nil
}

// index implements list/map/string indexing, including Python-style
// negative indices on lists and strings (spec §9, supplemented from
// original_source/).
func (it *interp) index(recv, idx CelValue) CelValue {
	if recv.IsErr() {
		return recv
	}
	if idx.IsErr() {
		return idx
	}
	switch recv.Kind {
	case KindList:
		if idx.Kind != KindInt && idx.Kind != KindUInt {
			return ErrValue(NewValueError("list index must be int, got %s", idx.TypeName()))
		}
		i := asSignedIndex(idx)
		n := int64(len(recv.list))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return ErrValue(NewAttributeError("list", "index out of range"))
		}
		return recv.list[i]
	case KindMap:
		if idx.Kind != KindString {
			return ErrValue(NewValueError("map index must be string, got %s", idx.TypeName()))
		}
		v, ok := recv.m[idx.s]
		if !ok {
			return ErrValue(NewAttributeError("map", idx.s))
		}
		return v
	case KindString:
		if idx.Kind != KindInt && idx.Kind != KindUInt {
			return ErrValue(NewValueError("string index must be int, got %s", idx.TypeName()))
		}
		runes := []rune(recv.s)
		i := asSignedIndex(idx)
		n := int64(len(runes))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return ErrValue(NewAttributeError("string", "index out of range"))
		}
		return StringValue(string(runes[i]))
	case KindDyn:
		return recv.dyn.DynAccess(idx.String())
	default:
		return ErrValue(NewInvalidOpError("%s is not indexable", recv.TypeName()))
	}
}

func asSignedIndex(v CelValue) int64 {
	if v.Kind == KindUInt {
		return int64(v.u)
	}
	return v.i
}

// access implements `recv.field` member lookup over Map and Dyn
// receivers (list/string have no named fields).
func (it *interp) access(recv CelValue, field string) CelValue {
	if recv.IsErr() {
		return recv
	}
	switch recv.Kind {
	case KindMap:
		v, ok := recv.m[field]
		if !ok {
			return ErrValue(NewAttributeError("map", field))
		}
		return v
	case KindDyn:
		return recv.dyn.DynAccess(field)
	default:
		return ErrValue(NewAttributeError(recv.TypeName(), field))
	}
}

func formatParts(parts []CelValue) CelValue {
	var b []byte
	for _, p := range parts {
		if p.IsErr() {
			return p
		}
		b = append(b, p.String()...)
	}
	return StringValue(string(b))
}

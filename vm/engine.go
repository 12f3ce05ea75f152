package vm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// OpHalt is the reserved opcode number that stops the engine cleanly.
// It must still be registered; the engine dispatches it like any other
// opcode and then moves to Halted. Operations that stop the engine from a
// nested dispatch do so through Machine.Halt.
const OpHalt int32 = 0

// State is the engine lifecycle state.
type State uint8

const (
	Ready State = iota
	Running
	Halted
	Faulted
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Halted || s == Faulted
}

// StepOutcome tells the caller whether to keep stepping.
type StepOutcome uint8

const (
	Continue StepOutcome = iota
	Halt
)

func (o StepOutcome) String() string {
	if o == Halt {
		return "halt"
	}
	return "continue"
}

// Engine drives the fetch-decode-execute cycle over one bytecode buffer.
// It exclusively owns its operand stack and its copy of the bytecode; the
// registry is shared read-only. An Engine is not safe for concurrent use.
type Engine struct {
	id       uuid.UUID
	stack    *Stack
	code     []int32
	ip       int
	registry *Registry

	state   State
	fault   error
	faultIP int   // address of the instruction that faulted
	current int32 // opcode of the last fetched instruction, -1 if none
	steps   uint64
	halting bool // set by Halt during the current step

	alloc Allocator
	log   commonlog.Logger
	trace bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllocator sets the allocator backing the operand stack.
func WithAllocator(a Allocator) Option {
	return func(e *Engine) { e.alloc = a }
}

// WithTrace enables one debug log line per executed instruction.
func WithTrace(on bool) Option {
	return func(e *Engine) { e.trace = on }
}

// WithLogger replaces the default "xtella.vm" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine with an empty stack of the given capacity,
// positioned at the first cell of code. The engine starts out Running, or
// stays Ready when registry is nil.
func NewEngine(capacity int, code []int32, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.New(),
		code:     append([]int32(nil), code...),
		registry: registry,
		state:    Running,
		faultIP:  -1,
		current:  -1,
		log:      commonlog.GetLogger("xtella.vm"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stack = NewStack(capacity, e.alloc)
	if registry == nil {
		e.state = Ready
		e.log.Errorf("run %s has no opcode registry", e.id)
	}
	return e
}

// ---------------------------------------------------------------------------
// Stack and bytecode access (Machine)
// ---------------------------------------------------------------------------

// Push pushes v onto the operand stack.
func (e *Engine) Push(v Value) error { return e.stack.Push(v) }

// Pop pops the top of the operand stack.
func (e *Engine) Pop() (Value, error) { return e.stack.Pop() }

// Peek returns the value depth slots below the top.
func (e *Engine) Peek(depth int) (Value, error) { return e.stack.Peek(depth) }

// Len returns the operand stack depth.
func (e *Engine) Len() int { return e.stack.Len() }

// Fetch returns the cell at the instruction pointer and advances past it.
func (e *Engine) Fetch() (int32, error) {
	if e.ip >= len(e.code) {
		return 0, &Error{Kind: EndOfBytecode, Detail: fmt.Sprintf("ip=%d", e.ip)}
	}
	nr := e.code[e.ip]
	e.ip++
	return nr, nil
}

// Jump sets the instruction pointer. Valid targets are 0 through len(code);
// jumping to len(code) makes the next fetch report EndOfBytecode.
func (e *Engine) Jump(target int) error {
	if target < 0 || target > len(e.code) {
		return InvalidOperandf("jump target %d outside [0, %d]", target, len(e.code))
	}
	e.ip = target
	return nil
}

// Dispatch runs opcode nr against this engine without fetching it.
func (e *Engine) Dispatch(nr int32) error {
	return e.registry.Dispatch(nr, e)
}

// Halt asks the engine to stop once the current instruction completes
// successfully.
func (e *Engine) Halt() { e.halting = true }

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Step fetches one opcode and dispatches it.
//
// Any error moves the engine to Faulted and is returned unchanged. Stepping
// a Halted engine yields Halt; stepping a Faulted engine returns its fault
// again. An engine built without a registry stays Ready and every step
// fails with NoRegistry.
func (e *Engine) Step() (StepOutcome, error) {
	switch e.state {
	case Halted:
		return Halt, nil
	case Faulted:
		return Halt, e.fault
	case Ready:
		return Halt, &Error{Kind: NoRegistry}
	}

	at := e.ip
	nr, err := e.Fetch()
	if err != nil {
		e.current = -1
		return Halt, e.faultAt(at, "-", err)
	}
	e.current = nr
	e.halting = false

	if e.trace {
		e.log.Debugf("[%04d] %-14s depth=%d", at, e.nameOf(nr), e.stack.Len())
	}

	if err := e.registry.Dispatch(nr, e); err != nil {
		return Halt, e.faultAt(at, e.nameOf(nr), err)
	}
	e.steps++

	if nr == OpHalt || e.halting {
		e.halting = false
		e.state = Halted
		e.log.Infof("run %s halted after %d steps, stack depth %d", e.id, e.steps, e.stack.Len())
		return Halt, nil
	}
	return Continue, nil
}

// Run steps until the HALT opcode or the first error. Running off the end
// of the bytecode is an EndOfBytecode fault.
func (e *Engine) Run() error {
	return e.RunContext(context.Background())
}

// RunContext is Run with cooperative cancellation: ctx is checked between
// instructions. Cancellation returns ctx.Err() and leaves the engine
// Running, so the caller may resume it later.
func (e *Engine) RunContext(ctx context.Context) error {
	if e.state == Running && e.steps == 0 {
		e.log.Infof("run %s started: %d cells, stack capacity %d", e.id, len(e.code), e.stack.Cap())
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := e.Step()
		if err != nil {
			return err
		}
		if outcome == Halt {
			return nil
		}
	}
}

func (e *Engine) faultAt(at int, op string, err error) error {
	e.state = Faulted
	e.fault = err
	e.faultIP = at
	e.log.Errorf("run %s faulted at ip=%d (%s): %s", e.id, at, op, err)
	return err
}

func (e *Engine) nameOf(nr int32) string {
	d, err := e.registry.Lookup(nr)
	if err != nil {
		return fmt.Sprintf("??? %d", nr)
	}
	return d.String()
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// ID returns the run identifier used in logs and snapshots.
func (e *Engine) ID() uuid.UUID { return e.id }

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// IP returns the instruction pointer.
func (e *Engine) IP() int { return e.ip }

// Fault returns the error that faulted the engine, or nil.
func (e *Engine) Fault() error { return e.fault }

// FaultIP returns the address of the faulting instruction, or -1.
func (e *Engine) FaultIP() int { return e.faultIP }

// Steps returns the number of instructions completed.
func (e *Engine) Steps() uint64 { return e.steps }

// Stack returns a copy of the operand stack, bottom first.
func (e *Engine) Stack() []Value { return e.stack.Values() }

// Code returns the bytecode buffer. Callers must not modify it.
func (e *Engine) Code() []int32 { return e.code }

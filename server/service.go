package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/TamplierS1/rox/asm"
	"github.com/TamplierS1/rox/compiler"
	"github.com/TamplierS1/rox/pkg/bytecode"
	"github.com/TamplierS1/rox/vm"
)

// Procedure paths served by RoxService.
const (
	ServiceName             = "rox.v1.RoxService"
	InterpretProcedure      = "/" + ServiceName + "/Interpret"
	TokenizeProcedure       = "/" + ServiceName + "/Tokenize"
	DisassembleProcedure    = "/" + ServiceName + "/Disassemble"
	GetExecutionProcedure   = "/" + ServiceName + "/GetExecution"
	defaultDisassemblyLabel = "chunk"
)

var errPoolStopped = errors.New("server: worker pool stopped")

// RoxService implements the rox Connect procedures.
type RoxService struct {
	pool       *WorkerPool
	executions *ExecutionStore
	trace      bool // trace every execution, regardless of the request
	log        commonlog.Logger
}

// NewRoxService creates a RoxService.
func NewRoxService(pool *WorkerPool, executions *ExecutionStore, trace bool) *RoxService {
	return &RoxService{
		pool:       pool,
		executions: executions,
		trace:      trace,
		log:        commonlog.GetLogger("rox.server"),
	}
}

// Interpret runs a program on a fresh VM.
func (s *RoxService) Interpret(
	ctx context.Context,
	req *connect.Request[InterpretRequest],
) (*connect.Response[InterpretResponse], error) {
	chunk, err := loadChunk(req.Msg.Program, req.Msg.Assembly)
	if err != nil {
		return nil, err
	}

	trace := s.trace || req.Msg.Trace
	result, err := s.pool.Do(ctx, func() any {
		return run(chunk, trace)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, connect.NewError(connect.CodeCanceled, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := result.(*InterpretResponse)
	resp.ExecutionID = uuid.New().String()
	s.executions.Put(*resp)

	if resp.Success {
		s.log.Infof("execution %s: %d instructions ok", resp.ExecutionID, chunk.Len())
	} else {
		s.log.Infof("execution %s failed: %s", resp.ExecutionID, resp.Error)
	}

	return connect.NewResponse(resp), nil
}

// run interprets chunk and captures its output.
func run(chunk *bytecode.Chunk, trace bool) *InterpretResponse {
	var out, traceOut bytes.Buffer
	machine := vm.New(
		vm.WithOutput(&out),
		vm.WithTrace(trace),
		vm.WithTraceOutput(&traceOut),
	)

	resp := &InterpretResponse{Success: true}
	if err := machine.Interpret(chunk); err != nil {
		resp.Success = false
		resp.Error = err.Error()
	}
	resp.Output = out.String()
	resp.Trace = traceOut.String()
	return resp
}

// Tokenize scans source text.
func (s *RoxService) Tokenize(
	ctx context.Context,
	req *connect.Request[TokenizeRequest],
) (*connect.Response[TokenizeResponse], error) {
	tokens, err := compiler.Tokenize([]byte(req.Msg.Source))

	resp := &TokenizeResponse{Tokens: make([]TokenInfo, 0, len(tokens))}
	for _, tok := range tokens {
		resp.Tokens = append(resp.Tokens, TokenInfo{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Text(),
			Line:   tok.Line,
		})
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return connect.NewResponse(resp), nil
}

// Disassemble renders a program listing.
func (s *RoxService) Disassemble(
	ctx context.Context,
	req *connect.Request[DisassembleRequest],
) (*connect.Response[DisassembleResponse], error) {
	chunk, err := loadChunk(req.Msg.Program, req.Msg.Assembly)
	if err != nil {
		return nil, err
	}

	name := req.Msg.Name
	if name == "" {
		name = defaultDisassemblyLabel
	}

	var buf bytes.Buffer
	if err := chunk.Disassemble(&buf, name); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&DisassembleResponse{Listing: buf.String()}), nil
}

// GetExecution returns a previously recorded Interpret result.
func (s *RoxService) GetExecution(
	ctx context.Context,
	req *connect.Request[GetExecutionRequest],
) (*connect.Response[InterpretResponse], error) {
	id := req.Msg.ExecutionID
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("execution id is required"))
	}
	resp, ok := s.executions.Lookup(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("execution %q not found", id))
	}
	return connect.NewResponse(&resp), nil
}

// loadChunk decodes a ROXB program or assembles assembly text.
func loadChunk(program []byte, assembly string) (*bytecode.Chunk, error) {
	switch {
	case len(program) > 0:
		chunk, err := bytecode.Deserialize(program)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid program: %w", err))
		}
		return chunk, nil
	case assembly != "":
		chunk, err := asm.Assemble([]byte(assembly))
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return chunk, nil
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("program or assembly is required"))
	}
}

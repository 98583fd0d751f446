// Package grpcapi serves the interpreter over gRPC. Messages are
// google.protobuf.Struct values, so no generated code is needed on either
// side.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/store"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Server implements the lox.v1.Interpreter service.
type Server struct {
	store *store.Store
	opts  []lox.Option
	grpc  *grpc.Server
}

// New creates a new gRPC server wrapping the given store. opts apply to
// every session it creates.
func New(s *store.Store, opts ...lox.Option) *Server {
	srv := &Server{
		store: s,
		opts:  opts,
	}

	gs := grpc.NewServer()
	RegisterInterpreterServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

func (s *Server) Eval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source, err := requireSource(req)
	if err != nil {
		return nil, err
	}

	session := stringField(req, "session")
	if session == "" {
		return toStruct(resultToMap(lox.Run(source, s.opts...)))
	}

	res, err := s.store.ExecSession(session, source)
	if err != nil {
		return nil, storeStatus(err)
	}
	return toStruct(resultToMap(res))
}

func (s *Server) OpenSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess := s.store.CreateSession(s.opts...)
	return toStruct(map[string]interface{}{
		"id":         sess.ID,
		"createTime": sess.CreateTime.Format(time.RFC3339),
	})
}

func (s *Server) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source, err := requireSource(req)
	if err != nil {
		return nil, err
	}

	tokens, diags := lox.Tokens(source)
	return toStruct(map[string]interface{}{
		"tokens":      tokensToList(tokens),
		"diagnostics": diagnosticsToList(diags),
	})
}

func (s *Server) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source, err := requireSource(req)
	if err != nil {
		return nil, err
	}

	if req.GetFields()["expression"].GetBoolValue() {
		expr, diags := lox.ParseExpression(source)
		out := map[string]interface{}{"diagnostics": diagnosticsToList(diags)}
		if expr != nil {
			out["ast"] = ast.Print(expr)
		}
		return toStruct(out)
	}

	stmts, diags := lox.Parse(source)
	return toStruct(map[string]interface{}{
		"ast":         ast.PrintProgram(stmts),
		"diagnostics": diagnosticsToList(diags),
	})
}

func (s *Server) RunProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "program")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "program is required")
	}

	p, err := s.store.GetProgram(store.ProgramName(id))
	if err != nil {
		return nil, storeStatus(err)
	}
	run, err := s.store.CreateRun(p.Name)
	if err != nil {
		return nil, storeStatus(err)
	}
	run, err = s.store.CompleteRun(run.Name, lox.Run(p.Source, s.opts...))
	if err != nil {
		return nil, storeStatus(err)
	}

	out := map[string]interface{}{
		"name":              run.Name,
		"state":             string(run.State),
		"output":            run.Output,
		"exitCode":          run.ExitCode,
		"programRevisionId": run.ProgramRevisionID,
		"startTime":         run.StartTime.Format(time.RFC3339),
		"endTime":           run.EndTime.Format(time.RFC3339),
	}
	if run.Error != "" {
		out["error"] = run.Error
	}
	return toStruct(out)
}

// --- Internal helpers ---

func requireSource(req *structpb.Struct) (string, error) {
	source := stringField(req, "source")
	if source == "" {
		return "", status.Error(codes.InvalidArgument, "source is required")
	}
	return source, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func storeStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return st, nil
}

func resultToMap(res *lox.Result) map[string]interface{} {
	out := map[string]interface{}{
		"output":      res.Output,
		"diagnostics": diagnosticsToList(res.Diagnostics),
		"exitCode":    res.ExitCode(),
	}
	if res.RuntimeError != nil {
		out["runtimeError"] = map[string]interface{}{
			"message": res.RuntimeError.Message,
			"line":    res.RuntimeError.Line,
		}
	}
	return out
}

func diagnosticsToList(diags types.Diagnostics) []interface{} {
	list := make([]interface{}, len(diags))
	for i, d := range diags {
		list[i] = d.Error()
	}
	return list
}

func tokensToList(tokens []scanner.Token) []interface{} {
	list := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		item := map[string]interface{}{
			"type":   tok.Type.String(),
			"lexeme": tok.Lexeme,
			"line":   tok.Line,
		}
		if tok.HasLiteral() {
			item["literal"] = tok.Literal.ToGoValue()
		}
		list[i] = item
	}
	return list
}

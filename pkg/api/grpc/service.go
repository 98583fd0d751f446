package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lox.v1.Interpreter"

// InterpreterServer is the server API for the lox.v1.Interpreter service.
// Requests and responses are google.protobuf.Struct messages.
type InterpreterServer interface {
	// Eval runs {"source"} on a fresh interpreter, or on {"session"} when set.
	Eval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// OpenSession creates a session and returns {"id"}.
	OpenSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Tokenize scans {"source"}.
	Tokenize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Parse parses {"source"}, or a single expression with {"expression": true}.
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// RunProgram runs the stored {"program"} and records the run.
	RunProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(InterpreterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InterpreterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(InterpreterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the lox.v1.Interpreter service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Eval", Handler: unaryHandler("Eval", InterpreterServer.Eval)},
		{MethodName: "OpenSession", Handler: unaryHandler("OpenSession", InterpreterServer.OpenSession)},
		{MethodName: "Tokenize", Handler: unaryHandler("Tokenize", InterpreterServer.Tokenize)},
		{MethodName: "Parse", Handler: unaryHandler("Parse", InterpreterServer.Parse)},
		{MethodName: "RunProgram", Handler: unaryHandler("RunProgram", InterpreterServer.RunProgram)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lox/v1/interpreter.proto",
}

// RegisterInterpreterServer registers srv with s.
func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is a typed client for the lox.v1.Interpreter service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]interface{}, opts ...grpc.CallOption) (map[string]interface{}, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Eval runs source on a fresh interpreter.
func (c *Client) Eval(ctx context.Context, source string, opts ...grpc.CallOption) (map[string]interface{}, error) {
	return c.invoke(ctx, "Eval", map[string]interface{}{"source": source}, opts...)
}

// EvalInSession runs source on an existing session.
func (c *Client) EvalInSession(ctx context.Context, session, source string, opts ...grpc.CallOption) (map[string]interface{}, error) {
	return c.invoke(ctx, "Eval", map[string]interface{}{"source": source, "session": session}, opts...)
}

// OpenSession creates a session and returns its ID.
func (c *Client) OpenSession(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out, err := c.invoke(ctx, "OpenSession", map[string]interface{}{}, opts...)
	if err != nil {
		return "", err
	}
	id, _ := out["id"].(string)
	return id, nil
}

// Tokenize scans source.
func (c *Client) Tokenize(ctx context.Context, source string, opts ...grpc.CallOption) (map[string]interface{}, error) {
	return c.invoke(ctx, "Tokenize", map[string]interface{}{"source": source}, opts...)
}

// Parse parses source as a program, or as one expression.
func (c *Client) Parse(ctx context.Context, source string, expression bool, opts ...grpc.CallOption) (map[string]interface{}, error) {
	return c.invoke(ctx, "Parse", map[string]interface{}{"source": source, "expression": expression}, opts...)
}

// RunProgram runs a stored program by ID.
func (c *Client) RunProgram(ctx context.Context, program string, opts ...grpc.CallOption) (map[string]interface{}, error) {
	return c.invoke(ctx, "RunProgram", map[string]interface{}{"program": program}, opts...)
}

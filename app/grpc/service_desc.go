package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const PaymentSignalServiceName = "upi.PaymentSignalService"

// PaymentSignalServiceServer carries JSON DTOs inside google.protobuf.Struct
// so the shell can share one payload shape across HTTP and gRPC.
type PaymentSignalServiceServer interface {
	Health(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PromptManualVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SubmitManualVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CheckPaymentCallback(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	OpenURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ChangeAppState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SetPendingIntent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	EmitNativeEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(srv PaymentSignalServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

var PaymentSignalServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentSignalServiceName,
	HandlerType: (*PaymentSignalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Health", PaymentSignalServiceServer.Health),
		unaryMethod("CreateAttempt", PaymentSignalServiceServer.CreateAttempt),
		unaryMethod("GetAttempt", PaymentSignalServiceServer.GetAttempt),
		unaryMethod("CancelAttempt", PaymentSignalServiceServer.CancelAttempt),
		unaryMethod("PromptManualVerification", PaymentSignalServiceServer.PromptManualVerification),
		unaryMethod("SubmitManualVerification", PaymentSignalServiceServer.SubmitManualVerification),
		unaryMethod("CheckPaymentCallback", PaymentSignalServiceServer.CheckPaymentCallback),
		unaryMethod("OpenURL", PaymentSignalServiceServer.OpenURL),
		unaryMethod("ChangeAppState", PaymentSignalServiceServer.ChangeAppState),
		unaryMethod("SetPendingIntent", PaymentSignalServiceServer.SetPendingIntent),
		unaryMethod("EmitNativeEvent", PaymentSignalServiceServer.EmitNativeEvent),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "upi/payment_signal.proto",
}

func RegisterPaymentSignalServiceServer(registrar grpc.ServiceRegistrar, srv PaymentSignalServiceServer) {
	registrar.RegisterService(&PaymentSignalServiceDesc, srv)
}

func unaryMethod(name string, call structCall) grpc.MethodDesc {
	fullMethod := "/" + PaymentSignalServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PaymentSignalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(PaymentSignalServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PaymentSignalServiceClient invokes methods by name with DTO payloads.
type PaymentSignalServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentSignalServiceClient(cc grpc.ClientConnInterface) *PaymentSignalServiceClient {
	return &PaymentSignalServiceClient{cc: cc}
}

func (c *PaymentSignalServiceClient) Call(ctx context.Context, method string, in interface{}, out interface{}, opts ...grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+PaymentSignalServiceName+"/"+method, req, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if v == nil {
		return out, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, out interface{}) error {
	if in == nil {
		in = new(structpb.Struct)
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

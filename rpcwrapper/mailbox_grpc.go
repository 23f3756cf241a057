package rpcwrapper

// Service descriptor for the rank-to-rank mailbox:
//
//	service Mailbox {
//	  rpc Deliver(google.protobuf.BytesValue) returns (google.protobuf.Empty);
//	}
//
// Request and reply are well-known protobuf types, so no generated message
// code is needed.

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const Mailbox_Deliver_FullMethodName = "/bnbsched.Mailbox/Deliver"

type MailboxServer interface {
	Deliver(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
}

func RegisterMailboxServer(s grpc.ServiceRegistrar, srv MailboxServer) {
	s.RegisterService(&Mailbox_ServiceDesc, srv)
}

func _Mailbox_Deliver_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MailboxServer).Deliver(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Mailbox_Deliver_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MailboxServer).Deliver(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var Mailbox_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "bnbsched.Mailbox",
	HandlerType: (*MailboxServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deliver",
			Handler:    _Mailbox_Deliver_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mailbox.proto",
}

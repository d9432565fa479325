package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "legacylink.v1.LegacyService"

// LegacyServiceServer is the server API of legacylink.v1.LegacyService.
// Requests and responses are protobuf well-known types.
type LegacyServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)

	CheckIn(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	OwnerStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetCheckInFrequency(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	AddTrustee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTrustees(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateTrustee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveTrustee(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RequestVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyTrustee(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeclineTrustee(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	NotifyTrustee(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	CreateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetItemPublic(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	AddGrant(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ManualRelease(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RevokeAccess(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	CanAccess(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	AccessibleItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetItemURL(context.Context, *structpb.Struct) (*structpb.Struct, error)

	CreateAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateBeneficiaries(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	CheckAssetConflicts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConflicts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkConflictInProgress(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ResolveConflict(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConflictSummary(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// FullMethod returns the gRPC path of a method of the service.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func method[Req, Resp proto.Message](name string, newReq func() Req, call func(LegacyServiceServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(LegacyServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty    { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

// ServiceDesc describes legacylink.v1.LegacyService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LegacyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Ping", newEmpty, LegacyServiceServer.Ping),
		method("CheckIn", newEmpty, LegacyServiceServer.CheckIn),
		method("OwnerStatus", newEmpty, LegacyServiceServer.OwnerStatus),
		method("SetCheckInFrequency", newStruct, LegacyServiceServer.SetCheckInFrequency),
		method("AddTrustee", newStruct, LegacyServiceServer.AddTrustee),
		method("ListTrustees", newEmpty, LegacyServiceServer.ListTrustees),
		method("UpdateTrustee", newStruct, LegacyServiceServer.UpdateTrustee),
		method("RemoveTrustee", newStruct, LegacyServiceServer.RemoveTrustee),
		method("RequestVerification", newStruct, LegacyServiceServer.RequestVerification),
		method("VerifyTrustee", newStruct, LegacyServiceServer.VerifyTrustee),
		method("DeclineTrustee", newStruct, LegacyServiceServer.DeclineTrustee),
		method("NotifyTrustee", newStruct, LegacyServiceServer.NotifyTrustee),
		method("CreateItem", newStruct, LegacyServiceServer.CreateItem),
		method("SetItemPublic", newStruct, LegacyServiceServer.SetItemPublic),
		method("AddGrant", newStruct, LegacyServiceServer.AddGrant),
		method("ManualRelease", newStruct, LegacyServiceServer.ManualRelease),
		method("RevokeAccess", newStruct, LegacyServiceServer.RevokeAccess),
		method("CanAccess", newStruct, LegacyServiceServer.CanAccess),
		method("AccessibleItems", newStruct, LegacyServiceServer.AccessibleItems),
		method("GetItemURL", newStruct, LegacyServiceServer.GetItemURL),
		method("CreateAsset", newStruct, LegacyServiceServer.CreateAsset),
		method("UpdateBeneficiaries", newStruct, LegacyServiceServer.UpdateBeneficiaries),
		method("CheckAssetConflicts", newStruct, LegacyServiceServer.CheckAssetConflicts),
		method("ListConflicts", newStruct, LegacyServiceServer.ListConflicts),
		method("MarkConflictInProgress", newStruct, LegacyServiceServer.MarkConflictInProgress),
		method("ResolveConflict", newStruct, LegacyServiceServer.ResolveConflict),
		method("ConflictSummary", newEmpty, LegacyServiceServer.ConflictSummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "legacylink/v1/legacy.proto",
}

// publicMethods may be called without an owner access token. Everything
// else requires one.
var publicMethods = map[string]bool{
	FullMethod("Ping"):           true,
	FullMethod("VerifyTrustee"):  true,
	FullMethod("DeclineTrustee"): true,
	FullMethod("CanAccess"):      true,
	FullMethod("GetItemURL"):     true,
}

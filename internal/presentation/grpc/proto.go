package grpc

// Service descriptor for crewrisk.v1.CrewRiskService. Messages are plain Go
// structs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crewrisk.v1.CrewRiskService"

// CrewRiskServiceServer is the server API for CrewRiskService.
type CrewRiskServiceServer interface {
	RecordEngineOutputs(context.Context, *RecordEngineOutputsRequest) (*RecordEngineOutputsResponse, error)
	EvaluateCandidate(context.Context, *CandidateRequest) (*EvaluateCandidateResponse, error)
	GetPredictiveRisk(context.Context, *CandidateRequest) (*GetPredictiveRiskResponse, error)
	ExplainCandidate(context.Context, *CandidateRequest) (*ExplainCandidateResponse, error)
	SimulateWhatIf(context.Context, *CandidateRequest) (*SimulateWhatIfResponse, error)
	GetRiskHistory(context.Context, *GetRiskHistoryRequest) (*GetRiskHistoryResponse, error)
	mustEmbedUnimplementedCrewRiskServiceServer()
}

// UnimplementedCrewRiskServiceServer provides forward-compatible default implementations.
type UnimplementedCrewRiskServiceServer struct{}

func (UnimplementedCrewRiskServiceServer) RecordEngineOutputs(context.Context, *RecordEngineOutputsRequest) (*RecordEngineOutputsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordEngineOutputs not implemented")
}
func (UnimplementedCrewRiskServiceServer) EvaluateCandidate(context.Context, *CandidateRequest) (*EvaluateCandidateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EvaluateCandidate not implemented")
}
func (UnimplementedCrewRiskServiceServer) GetPredictiveRisk(context.Context, *CandidateRequest) (*GetPredictiveRiskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPredictiveRisk not implemented")
}
func (UnimplementedCrewRiskServiceServer) ExplainCandidate(context.Context, *CandidateRequest) (*ExplainCandidateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExplainCandidate not implemented")
}
func (UnimplementedCrewRiskServiceServer) SimulateWhatIf(context.Context, *CandidateRequest) (*SimulateWhatIfResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SimulateWhatIf not implemented")
}
func (UnimplementedCrewRiskServiceServer) GetRiskHistory(context.Context, *GetRiskHistoryRequest) (*GetRiskHistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRiskHistory not implemented")
}
func (UnimplementedCrewRiskServiceServer) mustEmbedUnimplementedCrewRiskServiceServer() {}

// RegisterCrewRiskServiceServer registers srv with the gRPC server.
func RegisterCrewRiskServiceServer(s grpclib.ServiceRegistrar, srv CrewRiskServiceServer) {
	s.RegisterService(&crewRiskServiceDesc, srv)
}

var crewRiskServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CrewRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "RecordEngineOutputs", Handler: unaryHandler("RecordEngineOutputs", CrewRiskServiceServer.RecordEngineOutputs)},
		{MethodName: "EvaluateCandidate", Handler: unaryHandler("EvaluateCandidate", CrewRiskServiceServer.EvaluateCandidate)},
		{MethodName: "GetPredictiveRisk", Handler: unaryHandler("GetPredictiveRisk", CrewRiskServiceServer.GetPredictiveRisk)},
		{MethodName: "ExplainCandidate", Handler: unaryHandler("ExplainCandidate", CrewRiskServiceServer.ExplainCandidate)},
		{MethodName: "SimulateWhatIf", Handler: unaryHandler("SimulateWhatIf", CrewRiskServiceServer.SimulateWhatIf)},
		{MethodName: "GetRiskHistory", Handler: unaryHandler("GetRiskHistory", CrewRiskServiceServer.GetRiskHistory)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "crewrisk/v1/crewrisk.proto",
}

// unaryHandler adapts a typed method to a grpc.MethodHandler, running the
// server's interceptor chain when one is installed.
func unaryHandler[Req, Resp any](method string, call func(CrewRiskServiceServer, context.Context, *Req) (*Resp, error)) grpclib.MethodHandler {
	fullMethod := FullMethod(method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CrewRiskServiceServer), ctx, req)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CrewRiskServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// FullMethod returns the full gRPC method name of a CrewRiskService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

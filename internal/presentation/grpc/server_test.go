package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/infrastructure/memory"
	"github.com/talentqx/crewrisk/pkg/auth"
)

func startServer(t *testing.T) (*grpc.ClientConn, *auth.JWTService) {
	t.Helper()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "server-test-secret",
		Issuer:     "crewrisk",
		Expiration: time.Minute,
	})
	require.NoError(t, err)

	srv, err := NewServer(buildHandler(memory.NewStore()), ServerConfig{}, jwtService, testLogger())
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, jwtService
}

func withToken(t *testing.T, svc *auth.JWTService, roles ...string) context.Context {
	t.Helper()
	token, err := svc.GenerateToken(uuid.New(), uuid.New(), roles)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestServer_EndToEnd(t *testing.T) {
	conn, jwtService := startServer(t)
	candidateID := uuid.New()

	t.Run("health check needs no token", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
			&healthpb.HealthCheckRequest{Service: ServiceName},
			grpc.CallContentSubtype("proto"))
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("health check answers on the json subtype", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
			&healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("calls without a token are rejected", func(t *testing.T) {
		var resp GetPredictiveRiskResponse
		err := conn.Invoke(context.Background(), FullMethod("GetPredictiveRisk"),
			&CandidateRequest{CandidateID: candidateID.String()}, &resp)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("record, evaluate and read back over the wire", func(t *testing.T) {
		var recorded RecordEngineOutputsResponse
		err := conn.Invoke(withToken(t, jwtService, auth.RoleAPIClient), FullMethod("RecordEngineOutputs"),
			&RecordEngineOutputsRequest{
				CandidateID: candidateID.String(),
				ContextTag:  "offshore",
				Engines:     sampleEngines(),
			}, &recorded)
		require.NoError(t, err)
		assert.Positive(t, recorded.Profile.Version)

		var evaluated EvaluateCandidateResponse
		err = conn.Invoke(withToken(t, jwtService, auth.RoleOperator), FullMethod("EvaluateCandidate"),
			&CandidateRequest{CandidateID: candidateID.String()}, &evaluated)
		require.NoError(t, err)
		assert.Equal(t, port.OutcomeComputed, evaluated.Evaluation.Outcome)

		var predictive GetPredictiveRiskResponse
		err = conn.Invoke(withToken(t, jwtService, auth.RoleReviewer), FullMethod("GetPredictiveRisk"),
			&CandidateRequest{CandidateID: candidateID.String()}, &predictive)
		require.NoError(t, err)
		require.True(t, predictive.Predictive.Available)
		assert.Equal(t, evaluated.Evaluation.Result.PredictiveTier, predictive.Predictive.Result.PredictiveTier)
		assert.InDelta(t, evaluated.Evaluation.Result.PredictiveRiskIndex, predictive.Predictive.Result.PredictiveRiskIndex, 1e-9)
	})

	t.Run("role checks apply over the wire", func(t *testing.T) {
		var resp RecordEngineOutputsResponse
		err := conn.Invoke(withToken(t, jwtService, auth.RoleAuditor), FullMethod("RecordEngineOutputs"),
			&RecordEngineOutputsRequest{
				CandidateID: candidateID.String(),
				Engines:     model.EngineDetails{Competency: &model.CompetencyDetail{CompetencyScore: model.Ptr(70.0)}},
			}, &resp)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}

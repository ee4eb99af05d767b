package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"capstone-nft/apperrors"
	"capstone-nft/auth"
	"capstone-nft/interceptors"
	"capstone-nft/services"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "capstone.user.v1.UserService"

// LoginMethod is public; every other method requires a bearer token.
const LoginMethod = "/" + ServiceName + "/Login"

// UserServer exposes the account operations over gRPC. Messages are
// google.protobuf.Struct values with the same fields as the JSON API.
type UserServer struct {
	authService services.AuthService
	userService services.UserService
}

func NewUserServer(authService services.AuthService, userService services.UserService) *UserServer {
	return &UserServer{authService: authService, userService: userService}
}

// Register attaches the service to s.
func (srv *UserServer) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&userServiceDesc, srv)
}

func (srv *UserServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := auth.LoginRequest{
		Email:    stringField(in, "email"),
		Phone:    stringField(in, "phone"),
		NickName: stringField(in, "nick_name"),
		Username: stringField(in, "username"),
		Password: stringField(in, "password"),
	}
	result, err := srv.authService.Login(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

func (srv *UserServer) MyInfo(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	claims, err := requireClaims(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := srv.userService.MyProfile(ctx, claims.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(profile)
}

func (srv *UserServer) Follow(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	claims, err := requireClaims(ctx)
	if err != nil {
		return nil, err
	}
	targetID, err := userIDField(in, "user_id")
	if err != nil {
		return nil, err
	}
	target, err := srv.userService.Follow(ctx, claims.UserID, targetID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"msg": services.FollowMessage(target)})
}

func (srv *UserServer) Followers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	claims, err := requireClaims(ctx)
	if err != nil {
		return nil, err
	}
	followers, err := srv.userService.ListFollowers(ctx, claims.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"followers": followers})
}

func (srv *UserServer) Followings(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	claims, err := requireClaims(ctx)
	if err != nil {
		return nil, err
	}
	followings, err := srv.userService.ListFollowings(ctx, claims.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"followings": followings})
}

func requireClaims(ctx context.Context) (*auth.CustomClaims, error) {
	claims, ok := interceptors.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return claims, nil
}

// userIDField reads a positive integral id. Struct numbers are doubles, so
// fractions and values beyond the id column range are rejected.
func userIDField(in *structpb.Struct, name string) (uint, error) {
	value, ok := in.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, isNumber := value.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	id := n.NumberValue
	if id < 1 || id > math.MaxUint32 || id != math.Trunc(id) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
	}
	return uint(id), nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

// toStruct converts v to a Struct through its JSON form, so field names
// match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus maps application errors to gRPC status codes.
func toStatus(err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	code := codes.Internal
	switch appErr.Kind {
	case apperrors.KindValidation:
		code = codes.InvalidArgument
	case apperrors.KindAuthentication:
		code = codes.Unauthenticated
	case apperrors.KindVerification:
		code = codes.FailedPrecondition
	case apperrors.KindAuthorization, apperrors.KindForbidden:
		code = codes.PermissionDenied
	case apperrors.KindNotFound:
		code = codes.NotFound
	case apperrors.KindConflict:
		code = codes.AlreadyExists
	case apperrors.KindUpstream:
		code = codes.Unavailable
	case apperrors.KindUpstreamTimeout:
		code = codes.DeadlineExceeded
	}
	msg := appErr.Message
	if code == codes.Internal {
		msg = "internal error"
	}
	if len(appErr.Fields) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, appErr.Fields)
	}
	return status.Error(code, msg)
}

type unaryMethod func(srv *UserServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return method(srv.(*UserServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return method(srv.(*UserServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Login", (*UserServer).Login),
		unaryHandler("MyInfo", (*UserServer).MyInfo),
		unaryHandler("Follow", (*UserServer).Follow),
		unaryHandler("Followers", (*UserServer).Followers),
		unaryHandler("Followings", (*UserServer).Followings),
	},
	Streams: []grpc.StreamDesc{},
}

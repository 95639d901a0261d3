package api

import (
	"context"
	"strings"
	"time"

	"guesthouse/internal/models"
	"guesthouse/internal/pricing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AvailabilityServiceName = "guesthouse.availability.v1.AvailabilityService"

	methodCheckAvailability = "/" + AvailabilityServiceName + "/CheckAvailability"
	methodListRooms         = "/" + AvailabilityServiceName + "/ListRooms"
)

// AvailabilityBackend is the part of the booking service the RPC layer reads.
type AvailabilityBackend interface {
	CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) bool
	RoomsWithAvailability(ctx context.Context, checkIn, checkOut *time.Time) ([]*models.RoomAvailability, error)
}

// AvailabilityServer is the handler type of the availability service.
// Messages are google.protobuf.Struct.
type AvailabilityServer interface {
	CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRooms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type AvailabilityService struct {
	backend AvailabilityBackend
}

var _ AvailabilityServer = (*AvailabilityService)(nil)

func NewAvailabilityService(backend AvailabilityBackend) *AvailabilityService {
	return &AvailabilityService{backend: backend}
}

func RegisterAvailabilityServiceServer(s grpc.ServiceRegistrar, srv AvailabilityServer) {
	s.RegisterService(&availabilityServiceDesc, srv)
}

func (s *AvailabilityService) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	roomID := strings.TrimSpace(fields["room_id"].GetStringValue())
	if roomID == "" {
		return nil, status.Error(codes.InvalidArgument, "room_id is required")
	}

	checkIn, checkOut, err := stayFromFields(fields)
	if err != nil {
		return nil, err
	}
	if checkIn == nil || checkOut == nil {
		return nil, status.Error(codes.InvalidArgument, "check_in_date and check_out_date are required")
	}

	available := s.backend.CheckAvailability(ctx, roomID, *checkIn, *checkOut)

	resp, err := structpb.NewStruct(map[string]interface{}{
		"room_id":        roomID,
		"check_in_date":  checkIn.Format(models.DateLayout),
		"check_out_date": checkOut.Format(models.DateLayout),
		"nights":         pricing.Nights(*checkIn, *checkOut),
		"available":      available,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return resp, nil
}

func (s *AvailabilityService) ListRooms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	checkIn, checkOut, err := stayFromFields(req.GetFields())
	if err != nil {
		return nil, err
	}

	rooms, err := s.backend.RoomsWithAvailability(ctx, checkIn, checkOut)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list rooms")
	}

	list := make([]interface{}, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, map[string]interface{}{
			"id":        r.ID,
			"name":      r.Name,
			"capacity":  r.Capacity,
			"price":     r.Price,
			"available": r.Available,
		})
	}

	resp, err := structpb.NewStruct(map[string]interface{}{"rooms": list})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return resp, nil
}

// stayFromFields parses optional check_in_date/check_out_date. Both or neither
// must be present, and check-out must follow check-in.
func stayFromFields(fields map[string]*structpb.Value) (*time.Time, *time.Time, error) {
	rawIn := strings.TrimSpace(fields["check_in_date"].GetStringValue())
	rawOut := strings.TrimSpace(fields["check_out_date"].GetStringValue())
	if rawIn == "" && rawOut == "" {
		return nil, nil, nil
	}
	if rawIn == "" || rawOut == "" {
		return nil, nil, status.Error(codes.InvalidArgument, "check_in_date and check_out_date go together")
	}

	checkIn, err := models.ParseDate(rawIn)
	if err != nil {
		return nil, nil, status.Error(codes.InvalidArgument, "invalid check_in_date; expected YYYY-MM-DD")
	}
	checkOut, err := models.ParseDate(rawOut)
	if err != nil {
		return nil, nil, status.Error(codes.InvalidArgument, "invalid check_out_date; expected YYYY-MM-DD")
	}
	if !checkOut.After(checkIn) {
		return nil, nil, status.Error(codes.InvalidArgument, "check-out date must be after check-in date")
	}
	return &checkIn, &checkOut, nil
}

func checkAvailabilityHandler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).CheckAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheckAvailability}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AvailabilityServer).CheckAvailability(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listRoomsHandler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListRooms}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AvailabilityServer).ListRooms(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: AvailabilityServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAvailability", Handler: checkAvailabilityHandler},
		{MethodName: "ListRooms", Handler: listRoomsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "guesthouse/availability/v1/availability.proto",
}

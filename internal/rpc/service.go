// Package rpc exposes the engine as a gRPC streaming service: a caller
// sends telemetry records over StreamRecords and receives back each
// record's clean-pipeline annotation plus any short-horizon prediction.
// The service is registered directly against grpc.ServiceDesc rather than
// through protoc-generated stubs; its wire messages are
// google.golang.org/protobuf's structpb.Struct, so every record still
// travels as a real protobuf-encoded payload.
package rpc

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/trajectory"
)

// ServiceName is registered with grpc.Server.RegisterService.
const ServiceName = "trajflow.v1.TrajectoryEngine"

// Processor is the engine-side hook invoked for every record received over
// the stream.
type Processor interface {
	Process(rec trajectory.Record) (Emission, error)
}

// Emission is the per-record result streamed back to the client.
type Emission struct {
	OID           int32
	Stopped       int8
	TripID        int32
	POIID         int32
	Predicted     geo.Coordinate
	HasPrediction bool
}

// RegisterTrajectoryEngineServer attaches the service to server, the way
// protoc-gen-go-grpc's RegisterXxxServer functions do for generated stubs.
func RegisterTrajectoryEngineServer(server *grpc.Server, impl Processor) {
	server.RegisterService(&serviceDesc, impl)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Processor)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamRecords",
			Handler:       streamRecordsHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "trajflow/v1/trajectory.proto",
}

func streamRecordsHandler(srv interface{}, stream grpc.ServerStream) error {
	impl := srv.(Processor)
	s := &wireStream{ServerStream: stream}

	for {
		in, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		rec, err := recordFromStruct(in)
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "rpc: %v", err)
		}

		emission, err := impl.Process(rec)
		if err != nil {
			return status.Errorf(codes.Internal, "rpc: process record: %v", err)
		}

		out, err := emissionToStruct(emission)
		if err != nil {
			return status.Errorf(codes.Internal, "rpc: encode emission: %v", err)
		}
		if err := s.Send(out); err != nil {
			return err
		}
	}
}

// wireStream adapts grpc.ServerStream's generic SendMsg/RecvMsg to
// structpb.Struct-typed Send/Recv.
type wireStream struct {
	grpc.ServerStream
}

func (s *wireStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func (s *wireStream) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func recordFromStruct(s *structpb.Struct) (trajectory.Record, error) {
	fields := s.GetFields()
	oid, ok := fields["oid"]
	if !ok {
		return trajectory.Record{}, fmt.Errorf("missing field oid")
	}
	t, ok := fields["t"]
	if !ok {
		return trajectory.Record{}, fmt.Errorf("missing field t")
	}
	lon, ok := fields["lon"]
	if !ok {
		return trajectory.Record{}, fmt.Errorf("missing field lon")
	}
	lat, ok := fields["lat"]
	if !ok {
		return trajectory.Record{}, fmt.Errorf("missing field lat")
	}

	return trajectory.Record{
		OID: int32(oid.GetNumberValue()),
		T:   int32(t.GetNumberValue()),
		Lon: float32(lon.GetNumberValue()),
		Lat: float32(lat.GetNumberValue()),
	}, nil
}

func recordToStruct(rec trajectory.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"oid": float64(rec.OID),
		"t":   float64(rec.T),
		"lon": float64(rec.Lon),
		"lat": float64(rec.Lat),
	})
}

func emissionToStruct(e Emission) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"oid":            float64(e.OID),
		"stopped":        float64(e.Stopped),
		"trip_id":        float64(e.TripID),
		"poi_id":         float64(e.POIID),
		"has_prediction": e.HasPrediction,
	}
	if e.HasPrediction {
		fields["predicted_lon"] = float64(e.Predicted.X)
		fields["predicted_lat"] = float64(e.Predicted.Y)
	}
	return structpb.NewStruct(fields)
}

func emissionFromStruct(s *structpb.Struct) (Emission, error) {
	fields := s.GetFields()
	e := Emission{
		OID:           int32(fields["oid"].GetNumberValue()),
		Stopped:       int8(fields["stopped"].GetNumberValue()),
		TripID:        int32(fields["trip_id"].GetNumberValue()),
		POIID:         int32(fields["poi_id"].GetNumberValue()),
		HasPrediction: fields["has_prediction"].GetBoolValue(),
	}
	if e.HasPrediction {
		e.Predicted = geo.Coordinate{
			X: float32(fields["predicted_lon"].GetNumberValue()),
			Y: float32(fields["predicted_lat"].GetNumberValue()),
		}
	}
	return e, nil
}

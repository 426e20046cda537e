package rpc

import (
	"context"
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/trajectory"
)

// mockServerStream is a minimal grpc.ServerStream double used for handler
// tests rather than dialing a real network listener.
type mockServerStream struct {
	ctx context.Context
	in  []*structpb.Struct
	out []*structpb.Struct
}

func (m *mockServerStream) SetHeader(metadata.MD) error  { return nil }
func (m *mockServerStream) SendHeader(metadata.MD) error { return nil }
func (m *mockServerStream) SetTrailer(metadata.MD)       {}
func (m *mockServerStream) Context() context.Context     { return m.ctx }

func (m *mockServerStream) SendMsg(msg interface{}) error {
	m.out = append(m.out, msg.(*structpb.Struct))
	return nil
}

func (m *mockServerStream) RecvMsg(msg interface{}) error {
	if len(m.in) == 0 {
		return io.EOF
	}
	next := m.in[0]
	m.in = m.in[1:]
	*(msg.(*structpb.Struct)) = *next
	return nil
}

type stubProcessor struct {
	calls []trajectory.Record
	err   error
}

func (p *stubProcessor) Process(rec trajectory.Record) (Emission, error) {
	p.calls = append(p.calls, rec)
	if p.err != nil {
		return Emission{}, p.err
	}
	return Emission{
		OID:           rec.OID,
		Stopped:       0,
		TripID:        1,
		POIID:         -1,
		Predicted:     geo.Coordinate{X: rec.Lon + 1, Y: rec.Lat + 1},
		HasPrediction: true,
	}, nil
}

func TestStreamRecordsHandlerRoundTripsRecords(t *testing.T) {
	rec := trajectory.Record{OID: 7, T: 100, Lon: 1.5, Lat: 2.5}
	in, err := recordToStruct(rec)
	if err != nil {
		t.Fatalf("recordToStruct: %v", err)
	}

	stream := &mockServerStream{ctx: context.Background(), in: []*structpb.Struct{in}}
	proc := &stubProcessor{}

	if err := streamRecordsHandler(proc, stream); err != nil {
		t.Fatalf("streamRecordsHandler: %v", err)
	}

	if len(proc.calls) != 1 || proc.calls[0].OID != 7 {
		t.Fatalf("processor calls = %+v, want one call with OID=7", proc.calls)
	}
	if len(stream.out) != 1 {
		t.Fatalf("stream.out has %d messages, want 1", len(stream.out))
	}

	emission, err := emissionFromStruct(stream.out[0])
	if err != nil {
		t.Fatalf("emissionFromStruct: %v", err)
	}
	if !emission.HasPrediction || emission.Predicted.X != 2.5 {
		t.Fatalf("emission = %+v, want predicted lon 2.5", emission)
	}
}

func TestStreamRecordsHandlerRejectsMalformedRecord(t *testing.T) {
	bad, err := structpb.NewStruct(map[string]interface{}{"oid": 1.0})
	if err != nil {
		t.Fatalf("structpb.NewStruct: %v", err)
	}
	stream := &mockServerStream{ctx: context.Background(), in: []*structpb.Struct{bad}}
	proc := &stubProcessor{}

	if err := streamRecordsHandler(proc, stream); err == nil {
		t.Fatal("expected an error for a record missing required fields")
	}
}

func TestStreamRecordsHandlerPropagatesProcessorError(t *testing.T) {
	rec := trajectory.Record{OID: 1, T: 0, Lon: 0, Lat: 0}
	in, err := recordToStruct(rec)
	if err != nil {
		t.Fatalf("recordToStruct: %v", err)
	}
	stream := &mockServerStream{ctx: context.Background(), in: []*structpb.Struct{in}}
	proc := &stubProcessor{err: errors.New("boom")}

	if err := streamRecordsHandler(proc, stream); err == nil {
		t.Fatal("expected the processor's error to propagate")
	}
}

func TestStreamRecordsHandlerReturnsNilOnEOF(t *testing.T) {
	stream := &mockServerStream{ctx: context.Background()}
	proc := &stubProcessor{}

	if err := streamRecordsHandler(proc, stream); err != nil {
		t.Fatalf("streamRecordsHandler at EOF: %v", err)
	}
}

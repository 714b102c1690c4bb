package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// Subjects carrying map events. Payloads are binary google.protobuf.Struct
// messages.
const (
	SubjectDatasetUpdated = "districtmap.datasets.updated"
	SubjectMapUpdated     = "districtmap.map.updated"
)

// EncodeDatasetUpdate serialises a dataset-updated event.
func EncodeDatasetUpdate(u *domain.DatasetUpdate) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"name":       u.Name,
		"source":     u.Source,
		"features":   u.Features,
		"updated_at": u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode dataset update: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeDatasetUpdate parses a dataset-updated event.
func DecodeDatasetUpdate(data []byte) (*domain.DatasetUpdate, error) {
	fields, err := decodeStruct(data)
	if err != nil {
		return nil, fmt.Errorf("decode dataset update: %w", err)
	}
	u := &domain.DatasetUpdate{
		Name:     fields["name"].GetStringValue(),
		Source:   fields["source"].GetStringValue(),
		Features: int(fields["features"].GetNumberValue()),
	}
	if u.Name == "" {
		return nil, fmt.Errorf("decode dataset update: missing name")
	}
	u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"].GetStringValue())
	return u, nil
}

// EncodeMapUpdate serialises a map-updated event.
func EncodeMapUpdate(u *domain.MapUpdate) ([]byte, error) {
	layers := make([]interface{}, len(u.Layers))
	for i, id := range u.Layers {
		layers[i] = id
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"layers":      layers,
		"rendered_at": u.RenderedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode map update: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeMapUpdate parses a map-updated event.
func DecodeMapUpdate(data []byte) (*domain.MapUpdate, error) {
	fields, err := decodeStruct(data)
	if err != nil {
		return nil, fmt.Errorf("decode map update: %w", err)
	}
	u := &domain.MapUpdate{}
	for _, v := range fields["layers"].GetListValue().GetValues() {
		u.Layers = append(u.Layers, v.GetStringValue())
	}
	u.RenderedAt, _ = time.Parse(time.RFC3339Nano, fields["rendered_at"].GetStringValue())
	return u, nil
}

func decodeStruct(data []byte) (map[string]*structpb.Value, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.GetFields(), nil
}

package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// Source supplies the vehicles a Catalog is built from at startup.
type Source interface {
	Vehicles(ctx context.Context) ([]domain.Vehicle, error)
}

//go:embed vehicles.json
var embeddedVehicles []byte

type embeddedSource struct{}

// Embedded is the catalog compiled into the binary.
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Vehicles(context.Context) ([]domain.Vehicle, error) {
	var vehicles []domain.Vehicle
	if err := json.Unmarshal(embeddedVehicles, &vehicles); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return vehicles, nil
}

// Load reads src once and builds the immutable catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	vehicles, err := src.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(vehicles)
}

package postproc

import "github.com/kbukum/eradiate-pp/errors"

// GatherRequest carries the arguments of Logic.GatherBitmaps.
type GatherRequest struct {
	ModeID            string
	VarName           string
	VarMetadata       map[string]any
	CalculateVariance bool
	CalculateStokes   bool
	Bitmaps           any
	// ViewingAngles is nil when the measure provides none.
	ViewingAngles any
	SolarAngles   any
}

// Logic holds the data transformations called by the pipeline nodes.
// Datasets are opaque to the pipeline and passed through as any.
type Logic interface {
	ViewingAngles(angles any) (any, error)
	SpectralResponse(srf any) (any, error)
	// ExtractIrradiance returns a map with keys "irradiance" and "solar_angles".
	ExtractIrradiance(modeID string, illumination, spectralGrid any) (map[string]any, error)
	// GatherBitmaps returns a map with keys "spp", "weights_raw",
	// "<var>_raw" and, with variance, "<var>_m2_raw".
	GatherBitmaps(req GatherRequest) (map[string]any, error)
	Moment2ToVariance(raw, m2Raw, spp any, calculateStokes bool) (any, error)
	// AggregateCKDQuad is the identity in monochromatic modes.
	AggregateCKDQuad(modeID string, raw, spectralGrid, ckdQuads any, isVariance bool) (any, error)
	Radiosity(sectorRadiosity any) (any, error)
	ApplySpectralResponse(data, srf any) (any, error)
	Albedo(radiosity, irradiance any) (any, error)
	// BidirectionalReflectance returns a map with keys "brdf" and "brf".
	BidirectionalReflectance(radiance, irradiance any, calculateStokes bool) (map[string]any, error)
	DegreeOfLinearPolarization(radiance any) (any, error)
}

// UnimplementedLogic fails every call with INTERNAL_ERROR. It lets a
// pipeline be built for introspection without the numerical backend.
type UnimplementedLogic struct{}

var _ Logic = UnimplementedLogic{}

func unimplemented(method string) error {
	return errors.Internal("postproc: "+method+" is not implemented", nil).WithDetail("method", method)
}

func (UnimplementedLogic) ViewingAngles(any) (any, error) {
	return nil, unimplemented("ViewingAngles")
}

func (UnimplementedLogic) SpectralResponse(any) (any, error) {
	return nil, unimplemented("SpectralResponse")
}

func (UnimplementedLogic) ExtractIrradiance(string, any, any) (map[string]any, error) {
	return nil, unimplemented("ExtractIrradiance")
}

func (UnimplementedLogic) GatherBitmaps(GatherRequest) (map[string]any, error) {
	return nil, unimplemented("GatherBitmaps")
}

func (UnimplementedLogic) Moment2ToVariance(any, any, any, bool) (any, error) {
	return nil, unimplemented("Moment2ToVariance")
}

func (UnimplementedLogic) AggregateCKDQuad(string, any, any, any, bool) (any, error) {
	return nil, unimplemented("AggregateCKDQuad")
}

func (UnimplementedLogic) Radiosity(any) (any, error) {
	return nil, unimplemented("Radiosity")
}

func (UnimplementedLogic) ApplySpectralResponse(any, any) (any, error) {
	return nil, unimplemented("ApplySpectralResponse")
}

func (UnimplementedLogic) Albedo(any, any) (any, error) {
	return nil, unimplemented("Albedo")
}

func (UnimplementedLogic) BidirectionalReflectance(any, any, bool) (map[string]any, error) {
	return nil, unimplemented("BidirectionalReflectance")
}

func (UnimplementedLogic) DegreeOfLinearPolarization(any) (any, error) {
	return nil, unimplemented("DegreeOfLinearPolarization")
}

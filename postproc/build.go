package postproc

import (
	"maps"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/pipeline"
)

// Virtual inputs set from Config.Inputs.
const (
	InputModeID            = "mode_id"
	InputVarName           = "var_name"
	InputVarMetadata       = "var_metadata"
	InputCalculateVariance = "calculate_variance"
	InputCalculateStokes   = "calculate_stokes"
)

// Virtual inputs supplied from simulation results.
const (
	InputAngles       = "angles"
	InputSRF          = "srf"
	InputIllumination = "illumination"
	InputSpectralGrid = "spectral_grid"
	InputBitmaps      = "bitmaps"
	InputCKDQuads     = "ckd_quads"
)

// Nodes that do not depend on the variable name.
const (
	NodeViewingAngles     = "viewing_angles"
	NodeSpectralResponse  = "spectral_response"
	NodeExtractIrradiance = "_extract_irradiance"
	NodeIrradiance        = "irradiance"
	NodeSolarAngles       = "solar_angles"
	NodeGatherBitmaps     = "_gather_bitmaps"
	NodeSPP               = "spp"
	NodeWeightsRaw        = "weights_raw"
	NodeRadiosity         = "radiosity"
	NodeAlbedo            = "albedo"
	NodeBRDFBRF           = "_brdf_brf"
	NodeBRDF              = "brdf"
	NodeBRF               = "brf"
	NodeDLP               = "dlp"
)

// Metadata keys and values tagging final results.
const (
	MetaFinal = "final"
	MetaKind  = "kind"
	KindData  = "data"
	KindCoord = "coord"
)

func finalData() map[string]any  { return map[string]any{MetaFinal: true, MetaKind: KindData} }
func finalCoord() map[string]any { return map[string]any{MetaFinal: true, MetaKind: KindCoord} }

// FinalOutputs returns the final data nodes of p in topological order.
func FinalOutputs(p *pipeline.Pipeline) []string {
	return p.GetNodesByMetadata(finalData())
}

// FinalCoordinates returns the final coordinate nodes of p in topological order.
func FinalCoordinates(p *pipeline.Pipeline) []string {
	return p.GetNodesByMetadata(finalCoord())
}

func srfName(name string) string { return name + "_srf" }

// Build assembles the postprocessing pipeline for cfg. Node functions call
// logic; opts configure the returned pipeline.
func Build(cfg Config, logic Logic, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if logic == nil {
		return nil, errors.InvalidInput("logic", "logic must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get("postproc")
	if cfg.CalculateStokes && cfg.VarName != VarRadiance {
		log.Warn("calculating Stokes components on a measure other than radiance",
			logger.Fields("var_name", cfg.VarName))
	}

	b := &builder{p: pipeline.New(opts...), cfg: cfg, logic: logic}
	b.build()
	if b.err != nil {
		return nil, b.err
	}

	log.Debug("postprocessing pipeline built", logger.Fields(
		"mode_id", cfg.ModeID,
		"var_name", cfg.VarName,
		"nodes", b.p.Len(),
		"final_outputs", FinalOutputs(b.p),
	))
	return b.p, nil
}

// builder adds nodes until the first error, which is kept in err.
type builder struct {
	p     *pipeline.Pipeline
	cfg   Config
	logic Logic
	err   error
}

func (b *builder) add(name string, fn pipeline.Func, opts ...pipeline.NodeOption) {
	if b.err != nil {
		return
	}
	_, b.err = b.p.AddNode(name, fn, opts...)
}

// tag merges md into the metadata of an existing node.
func (b *builder) tag(name string, md map[string]any) {
	if b.err != nil {
		return
	}
	node, err := b.p.GetNode(name)
	if err != nil {
		b.err = err
		return
	}
	maps.Copy(node.Metadata, md)
}

func (b *builder) build() {
	var (
		cfg      = b.cfg
		varName  = cfg.VarName
		applySRF = cfg.ApplySpectralResponse
		ckdSRF   = cfg.IsCKD() && applySRF
	)

	if cfg.AddViewingAngles {
		b.add(NodeViewingAngles, unary(InputAngles, b.logic.ViewingAngles),
			pipeline.DependsOn(InputAngles),
			pipeline.WithDescription("Compute viewing angles dataset"),
			pipeline.WithMetadata(finalCoord()))
	}

	if applySRF {
		b.add(NodeSpectralResponse, unary(InputSRF, b.logic.SpectralResponse),
			pipeline.DependsOn(InputSRF),
			pipeline.WithDescription("Evaluate spectral response function"))
	}

	b.add(NodeExtractIrradiance, b.extractIrradiance,
		pipeline.DependsOn(InputModeID, InputIllumination, InputSpectralGrid),
		pipeline.WithDescription("Extract irradiance and solar angles"),
		pipeline.WithOutputs(pipeline.Fields(NodeIrradiance, NodeSolarAngles)))
	b.tag(NodeIrradiance, finalData())
	b.tag(NodeSolarAngles, finalCoord())

	gathered := []string{NodeSPP, NodeWeightsRaw, varName + "_raw"}
	if cfg.CalculateVariance {
		gathered = append(gathered, varName+"_m2_raw")
	}
	b.add(NodeGatherBitmaps, b.gatherBitmaps,
		pipeline.DependsOn(
			InputModeID, InputVarName, InputVarMetadata, InputCalculateVariance, InputCalculateStokes,
			InputBitmaps, NodeSolarAngles, NodeViewingAngles,
		),
		pipeline.WithDescription("Gather raw bitmaps into arrays"),
		pipeline.WithOutputs(pipeline.Fields(gathered...)))

	if cfg.CalculateVariance {
		b.add(varName+"_var_raw", b.moment2ToVariance,
			pipeline.DependsOn(varName+"_raw", varName+"_m2_raw", NodeSPP, InputCalculateStokes),
			pipeline.WithDescription("Compute variance from 2nd moment"))
	}

	b.add(varName, b.aggregate(varName+"_raw", false),
		pipeline.DependsOn(InputModeID, varName+"_raw", InputSpectralGrid, InputCKDQuads),
		pipeline.WithDescription("Aggregate CKD quadrature into "+varName),
		pipeline.WithMetadata(finalData()))

	if cfg.CalculateVariance {
		b.add(varName+"_var", b.aggregate(varName+"_var_raw", true),
			pipeline.DependsOn(InputModeID, varName+"_var_raw", InputSpectralGrid, InputCKDQuads),
			pipeline.WithDescription("Aggregate CKD quadrature into "+varName+"_var"),
			pipeline.WithMetadata(finalData()))
	}

	// radiosity must precede radiosity_srf.
	if varName == VarSectorRadiosity {
		b.add(NodeRadiosity, unary(VarSectorRadiosity, b.logic.Radiosity),
			pipeline.DependsOn(VarSectorRadiosity),
			pipeline.WithDescription("Aggregate sector radiosity"),
			pipeline.WithMetadata(finalData()))
	}

	if ckdSRF {
		b.addSRF(varName)
		if varName == VarSectorRadiosity {
			b.addSRF(NodeRadiosity)
		}
		if cfg.MeasureDistant {
			b.addSRF(NodeIrradiance)
		}
	}

	if varName == VarSectorRadiosity && cfg.MeasureDistant {
		b.add(NodeAlbedo, binary(NodeRadiosity, NodeIrradiance, b.logic.Albedo),
			pipeline.DependsOn(NodeRadiosity, NodeIrradiance),
			pipeline.WithDescription("Compute surface albedo"),
			pipeline.WithMetadata(finalData()))
		if ckdSRF {
			b.add(srfName(NodeAlbedo), binary(srfName(NodeRadiosity), srfName(NodeIrradiance), b.logic.Albedo),
				pipeline.DependsOn(srfName(NodeRadiosity), srfName(NodeIrradiance)),
				pipeline.WithDescription("Compute surface albedo (SRF-weighted)"),
				pipeline.WithMetadata(finalData()))
		}
	}

	if varName == VarRadiance && cfg.MeasureDistant {
		b.add(NodeBRDFBRF, b.reflectance(VarRadiance, NodeIrradiance),
			pipeline.DependsOn(VarRadiance, NodeIrradiance, InputCalculateStokes),
			pipeline.WithDescription("Compute BRDF and BRF"),
			pipeline.WithOutputs(pipeline.Fields(NodeBRDF, NodeBRF)))
		b.tag(NodeBRDF, finalData())
		b.tag(NodeBRF, finalData())

		if ckdSRF {
			b.add(srfName(NodeBRDFBRF), b.reflectance(srfName(VarRadiance), srfName(NodeIrradiance)),
				pipeline.DependsOn(srfName(VarRadiance), srfName(NodeIrradiance), InputCalculateStokes),
				pipeline.WithDescription("Compute BRDF and BRF (SRF-weighted)"),
				pipeline.WithOutputs(pipeline.Keys(map[string]string{
					srfName(NodeBRDF): NodeBRDF,
					srfName(NodeBRF):  NodeBRF,
				})))
			b.tag(srfName(NodeBRDF), finalData())
			b.tag(srfName(NodeBRF), finalData())
		}
	}

	if cfg.CalculateStokes {
		b.add(NodeDLP, unary(VarRadiance, b.logic.DegreeOfLinearPolarization),
			pipeline.DependsOn(VarRadiance),
			pipeline.WithDescription("Compute degree of linear polarization"),
			pipeline.WithMetadata(finalData()))
		if applySRF {
			b.add(srfName(NodeDLP), unary(srfName(VarRadiance), b.logic.DegreeOfLinearPolarization),
				pipeline.DependsOn(srfName(VarRadiance)),
				pipeline.WithDescription("Compute DLP (SRF-weighted)"),
				pipeline.WithMetadata(finalData()))
		}
	}
}

// addSRF adds <src>_srf, the SRF-weighted version of src.
func (b *builder) addSRF(src string) {
	b.add(srfName(src), binary(src, InputSRF, b.logic.ApplySpectralResponse),
		pipeline.DependsOn(src, InputSRF),
		pipeline.WithDescription("Apply SRF to "+src),
		pipeline.WithMetadata(finalData()))
}

func (b *builder) extractIrradiance(in pipeline.Inputs) (any, error) {
	modeID, err := pipeline.Value[string](in, InputModeID)
	if err != nil {
		return nil, err
	}
	out, err := b.logic.ExtractIrradiance(modeID, in[InputIllumination], in[InputSpectralGrid])
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *builder) gatherBitmaps(in pipeline.Inputs) (any, error) {
	req := GatherRequest{
		Bitmaps:       in[InputBitmaps],
		ViewingAngles: in[NodeViewingAngles],
		SolarAngles:   in[NodeSolarAngles],
	}
	var err error
	if req.ModeID, err = pipeline.Value[string](in, InputModeID); err != nil {
		return nil, err
	}
	if req.VarName, err = pipeline.Value[string](in, InputVarName); err != nil {
		return nil, err
	}
	if req.VarMetadata, err = pipeline.Value[map[string]any](in, InputVarMetadata); err != nil {
		return nil, err
	}
	if req.CalculateVariance, err = pipeline.Value[bool](in, InputCalculateVariance); err != nil {
		return nil, err
	}
	if req.CalculateStokes, err = pipeline.Value[bool](in, InputCalculateStokes); err != nil {
		return nil, err
	}
	out, err := b.logic.GatherBitmaps(req)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *builder) moment2ToVariance(in pipeline.Inputs) (any, error) {
	stokes, err := pipeline.Value[bool](in, InputCalculateStokes)
	if err != nil {
		return nil, err
	}
	v := b.cfg.VarName
	return b.logic.Moment2ToVariance(in[v+"_raw"], in[v+"_m2_raw"], in[NodeSPP], stokes)
}

func (b *builder) aggregate(src string, isVariance bool) pipeline.Func {
	return func(in pipeline.Inputs) (any, error) {
		modeID, err := pipeline.Value[string](in, InputModeID)
		if err != nil {
			return nil, err
		}
		return b.logic.AggregateCKDQuad(modeID, in[src], in[InputSpectralGrid], in[InputCKDQuads], isVariance)
	}
}

func (b *builder) reflectance(radiance, irradiance string) pipeline.Func {
	return func(in pipeline.Inputs) (any, error) {
		stokes, err := pipeline.Value[bool](in, InputCalculateStokes)
		if err != nil {
			return nil, err
		}
		out, err := b.logic.BidirectionalReflectance(in[radiance], in[irradiance], stokes)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func unary(dep string, fn func(any) (any, error)) pipeline.Func {
	return func(in pipeline.Inputs) (any, error) {
		return fn(in[dep])
	}
}

func binary(a, b string, fn func(any, any) (any, error)) pipeline.Func {
	return func(in pipeline.Inputs) (any, error) {
		return fn(in[a], in[b])
	}
}

package postproc

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/pipeline"
)

// fakeLogic renders every call as a string so results show how they were derived.
type fakeLogic struct {
	calls  map[string]int
	gather GatherRequest
}

func newFakeLogic() *fakeLogic { return &fakeLogic{calls: make(map[string]int)} }

func (f *fakeLogic) ViewingAngles(angles any) (any, error) {
	f.calls["ViewingAngles"]++
	return fmt.Sprintf("va(%v)", angles), nil
}

func (f *fakeLogic) SpectralResponse(srf any) (any, error) {
	f.calls["SpectralResponse"]++
	return fmt.Sprintf("response(%v)", srf), nil
}

func (f *fakeLogic) ExtractIrradiance(modeID string, _, _ any) (map[string]any, error) {
	f.calls["ExtractIrradiance"]++
	return map[string]any{"irradiance": "irr", "solar_angles": "sa(" + modeID + ")"}, nil
}

func (f *fakeLogic) GatherBitmaps(req GatherRequest) (map[string]any, error) {
	f.calls["GatherBitmaps"]++
	f.gather = req
	out := map[string]any{"spp": 4, "weights_raw": "w", req.VarName + "_raw": "raw"}
	if req.CalculateVariance {
		out[req.VarName+"_m2_raw"] = "m2"
	}
	return out, nil
}

func (f *fakeLogic) Moment2ToVariance(raw, m2Raw, spp any, _ bool) (any, error) {
	f.calls["Moment2ToVariance"]++
	return fmt.Sprintf("var(%v,%v,%v)", raw, m2Raw, spp), nil
}

func (f *fakeLogic) AggregateCKDQuad(_ string, raw, _, _ any, isVariance bool) (any, error) {
	f.calls["AggregateCKDQuad"]++
	return fmt.Sprintf("agg(%v,%t)", raw, isVariance), nil
}

func (f *fakeLogic) Radiosity(sectorRadiosity any) (any, error) {
	f.calls["Radiosity"]++
	return fmt.Sprintf("rad(%v)", sectorRadiosity), nil
}

func (f *fakeLogic) ApplySpectralResponse(data, _ any) (any, error) {
	f.calls["ApplySpectralResponse"]++
	return fmt.Sprintf("srf(%v)", data), nil
}

func (f *fakeLogic) Albedo(radiosity, irradiance any) (any, error) {
	f.calls["Albedo"]++
	return fmt.Sprintf("albedo(%v,%v)", radiosity, irradiance), nil
}

func (f *fakeLogic) BidirectionalReflectance(radiance, irradiance any, _ bool) (map[string]any, error) {
	f.calls["BidirectionalReflectance"]++
	return map[string]any{
		"brdf": fmt.Sprintf("brdf(%v,%v)", radiance, irradiance),
		"brf":  fmt.Sprintf("brf(%v,%v)", radiance, irradiance),
	}, nil
}

func (f *fakeLogic) DegreeOfLinearPolarization(radiance any) (any, error) {
	f.calls["DegreeOfLinearPolarization"]++
	return fmt.Sprintf("dlp(%v)", radiance), nil
}

func sorted(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return s
}

func nodesOnly(p *pipeline.Pipeline) []string {
	var out []string
	for _, n := range p.ListNodes() {
		if !p.IsVirtualInput(n) {
			out = append(out, n)
		}
	}
	return sorted(out)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		mode string
		ckd  bool
	}{
		{"mono", false},
		{"mono_polarized", false},
		{"ckd", true},
		{"ckd_polarized", true},
	}
	for _, tc := range tests {
		if got := (Config{ModeID: tc.mode}).IsCKD(); got != tc.ckd {
			t.Errorf("IsCKD(%q) = %v, want %v", tc.mode, got, tc.ckd)
		}
	}

	in := Config{ModeID: "mono", VarName: "radiance", CalculateStokes: true}.Inputs()
	if v, ok := in[NodeViewingAngles]; !ok || v != nil {
		t.Errorf("expected viewing_angles set to nil, got %v", in)
	}
	if in[InputModeID] != "mono" || in[InputCalculateStokes] != true {
		t.Errorf("unexpected inputs %v", in)
	}
	in = Config{ModeID: "mono", VarName: "radiance", AddViewingAngles: true}.Inputs()
	if _, ok := in[NodeViewingAngles]; ok {
		t.Error("viewing_angles must not be an input when a node computes it")
	}
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(`
mode_id: ckd
measure_distant: true
var_name: radiance
var_metadata: {units: W/m2/sr/nm}
apply_spectral_response: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsCKD() || !c.MeasureDistant || !c.ApplySpectralResponse || c.VarMetadata["units"] != "W/m2/sr/nm" {
		t.Errorf("unexpected config %+v", c)
	}

	_, err = ParseConfig([]byte("mode_id: mono\n"))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected missing var_name to be rejected, got %v", err)
	}
	_, err = ParseConfig([]byte("mode_id: [\n"))
	if !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected malformed document to be rejected, got %v", err)
	}
}

func TestBuild_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		nodes      []string
		virtual    []string
		finalData  []string
		finalCoord []string
	}{
		{
			name: "mono distant radiance",
			cfg:  Config{ModeID: "mono", MeasureDistant: true, VarName: "radiance"},
			nodes: []string{
				"_brdf_brf", "_extract_irradiance", "_gather_bitmaps", "brdf", "brf",
				"irradiance", "radiance", "radiance_raw", "solar_angles", "spp", "weights_raw",
			},
			virtual: []string{
				"bitmaps", "calculate_stokes", "calculate_variance", "ckd_quads", "illumination",
				"mode_id", "spectral_grid", "var_metadata", "var_name", "viewing_angles",
			},
			finalData:  []string{"brdf", "brf", "irradiance", "radiance"},
			finalCoord: []string{"solar_angles"},
		},
		{
			name: "ckd distant radiance with every option",
			cfg: Config{
				ModeID: "ckd", MeasureDistant: true, AddViewingAngles: true, VarName: "radiance",
				ApplySpectralResponse: true, CalculateVariance: true, CalculateStokes: true,
			},
			nodes: []string{
				"_brdf_brf", "_brdf_brf_srf", "_extract_irradiance", "_gather_bitmaps",
				"brdf", "brdf_srf", "brf", "brf_srf", "dlp", "dlp_srf", "irradiance", "irradiance_srf",
				"radiance", "radiance_m2_raw", "radiance_raw", "radiance_srf", "radiance_var", "radiance_var_raw",
				"solar_angles", "spectral_response", "spp", "viewing_angles", "weights_raw",
			},
			virtual: []string{
				"angles", "bitmaps", "calculate_stokes", "calculate_variance", "ckd_quads", "illumination",
				"mode_id", "spectral_grid", "srf", "var_metadata", "var_name",
			},
			finalData: []string{
				"brdf", "brdf_srf", "brf", "brf_srf", "dlp", "dlp_srf", "irradiance", "irradiance_srf",
				"radiance", "radiance_srf", "radiance_var",
			},
			finalCoord: []string{"solar_angles", "viewing_angles"},
		},
		{
			name: "ckd distant sector radiosity with srf",
			cfg: Config{
				ModeID: "ckd", MeasureDistant: true, VarName: "sector_radiosity", ApplySpectralResponse: true,
			},
			nodes: []string{
				"_extract_irradiance", "_gather_bitmaps", "albedo", "albedo_srf", "irradiance", "irradiance_srf",
				"radiosity", "radiosity_srf", "sector_radiosity", "sector_radiosity_raw", "sector_radiosity_srf",
				"solar_angles", "spectral_response", "spp", "weights_raw",
			},
			virtual: []string{
				"bitmaps", "calculate_stokes", "calculate_variance", "ckd_quads", "illumination",
				"mode_id", "spectral_grid", "srf", "var_metadata", "var_name", "viewing_angles",
			},
			finalData: []string{
				"albedo", "albedo_srf", "irradiance", "irradiance_srf", "radiosity", "radiosity_srf",
				"sector_radiosity", "sector_radiosity_srf",
			},
			finalCoord: []string{"solar_angles"},
		},
		{
			name: "mono local sector radiosity",
			cfg:  Config{ModeID: "mono", VarName: "sector_radiosity", ApplySpectralResponse: true},
			nodes: []string{
				"_extract_irradiance", "_gather_bitmaps", "irradiance", "radiosity", "sector_radiosity",
				"sector_radiosity_raw", "solar_angles", "spectral_response", "spp", "weights_raw",
			},
			virtual: []string{
				"bitmaps", "calculate_stokes", "calculate_variance", "ckd_quads", "illumination",
				"mode_id", "spectral_grid", "srf", "var_metadata", "var_name", "viewing_angles",
			},
			finalData:  []string{"irradiance", "radiosity", "sector_radiosity"},
			finalCoord: []string{"solar_angles"},
		},
		{
			name: "mono stokes without srf node for radiance",
			cfg:  Config{ModeID: "mono", VarName: "radiance", CalculateStokes: true, ApplySpectralResponse: true},
			nodes: []string{
				"_extract_irradiance", "_gather_bitmaps", "dlp", "dlp_srf", "irradiance", "radiance",
				"radiance_raw", "solar_angles", "spectral_response", "spp", "weights_raw",
			},
			virtual: []string{
				"bitmaps", "calculate_stokes", "calculate_variance", "ckd_quads", "illumination",
				"mode_id", "radiance_srf", "spectral_grid", "srf", "var_metadata", "var_name", "viewing_angles",
			},
			finalData:  []string{"dlp", "dlp_srf", "irradiance", "radiance"},
			finalCoord: []string{"solar_angles"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Build(tc.cfg, UnimplementedLogic{}, pipeline.WithLogger(logger.Nop()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := nodesOnly(p); !reflect.DeepEqual(got, tc.nodes) {
				t.Errorf("nodes:\n got %v\nwant %v", got, tc.nodes)
			}
			if got := p.GetVirtualInputs(); !reflect.DeepEqual(got, tc.virtual) {
				t.Errorf("virtual inputs:\n got %v\nwant %v", got, tc.virtual)
			}
			if got := sorted(FinalOutputs(p)); !reflect.DeepEqual(got, tc.finalData) {
				t.Errorf("final data:\n got %v\nwant %v", got, tc.finalData)
			}
			if got := sorted(FinalCoordinates(p)); !reflect.DeepEqual(got, tc.finalCoord) {
				t.Errorf("final coords:\n got %v\nwant %v", got, tc.finalCoord)
			}
		})
	}
}

func simulationInputs(cfg Config) map[string]any {
	in := cfg.Inputs()
	in[InputBitmaps] = "bitmaps"
	in[InputIllumination] = "illumination"
	in[InputSpectralGrid] = "grid"
	in[InputCKDQuads] = "quads"
	if cfg.ApplySpectralResponse {
		in[InputSRF] = "band"
	}
	if cfg.AddViewingAngles {
		in[InputAngles] = "angles"
	}
	return in
}

func TestBuild_ExecuteFullGraph(t *testing.T) {
	cfg := Config{
		ModeID: "ckd", MeasureDistant: true, AddViewingAngles: true, VarName: "radiance",
		VarMetadata:           map[string]any{"units": "W/m2/sr/nm"},
		ApplySpectralResponse: true, CalculateVariance: true, CalculateStokes: true,
	}
	logic := newFakeLogic()
	p, err := Build(cfg, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := simulationInputs(cfg)
	delete(in, InputSRF)
	if _, err := p.Execute(FinalOutputs(p), in); !errors.HasCode(err, errors.ErrCodeMissingInputs) {
		t.Fatalf("expected missing srf to be reported, got %v", err)
	}

	out, err := p.Execute(FinalOutputs(p), simulationInputs(cfg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"irradiance":     "irr",
		"irradiance_srf": "srf(irr)",
		"radiance":       "agg(raw,false)",
		"radiance_var":   "agg(var(raw,m2,4),true)",
		"radiance_srf":   "srf(agg(raw,false))",
		"brdf":           "brdf(agg(raw,false),irr)",
		"brf":            "brf(agg(raw,false),irr)",
		"brdf_srf":       "brdf(srf(agg(raw,false)),srf(irr))",
		"brf_srf":        "brf(srf(agg(raw,false)),srf(irr))",
		"dlp":            "dlp(agg(raw,false))",
		"dlp_srf":        "dlp(srf(agg(raw,false)))",
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v\nwant %v", out, want)
	}

	if logic.calls["ExtractIrradiance"] != 1 || logic.calls["GatherBitmaps"] != 1 || logic.calls["BidirectionalReflectance"] != 2 {
		t.Errorf("unexpected call counts %v", logic.calls)
	}
	if logic.calls["SpectralResponse"] != 0 {
		t.Error("spectral_response is not a final output and must not be computed")
	}
	g := logic.gather
	if g.ViewingAngles != "va(angles)" || g.SolarAngles != "sa(ckd)" || g.VarMetadata["units"] != "W/m2/sr/nm" {
		t.Errorf("unexpected gather request %+v", g)
	}
	if !g.CalculateVariance || !g.CalculateStokes || g.VarName != "radiance" || g.ModeID != "ckd" {
		t.Errorf("unexpected gather flags %+v", g)
	}
}

func TestBuild_ViewingAnglesDefaultToNil(t *testing.T) {
	cfg := Config{ModeID: "mono", VarName: "radiance"}
	logic := newFakeLogic()
	p, err := Build(cfg, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := p.Execute([]string{"radiance"}, simulationInputs(cfg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["radiance"] != "agg(raw,false)" {
		t.Errorf("unexpected radiance %v", out["radiance"])
	}
	if logic.gather.ViewingAngles != nil {
		t.Errorf("expected nil viewing angles, got %v", logic.gather.ViewingAngles)
	}
}

func TestBuild_BypassRawData(t *testing.T) {
	cfg := Config{ModeID: "mono", MeasureDistant: true, VarName: "radiance"}
	logic := newFakeLogic()
	p, err := Build(cfg, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	required, err := p.GetRequiredInputs([]string{"brdf"}, map[string]any{"radiance": nil, "irradiance": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(required, []string{InputCalculateStokes}) {
		t.Errorf("bypassing radiance and irradiance should leave only calculate_stokes, got %v", required)
	}

	out, err := p.Execute([]string{"brdf"}, map[string]any{"radiance": "L", "irradiance": "E", InputCalculateStokes: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["brdf"] != "brdf(L,E)" {
		t.Errorf("unexpected brdf %v", out["brdf"])
	}
	if logic.calls["GatherBitmaps"] != 0 || logic.calls["ExtractIrradiance"] != 0 {
		t.Errorf("bypassed branches were computed: %v", logic.calls)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		logic Logic
		code  errors.ErrorCode
	}{
		{"nil logic", Config{ModeID: "mono", VarName: "radiance"}, nil, errors.ErrCodeInvalidInput},
		{"missing mode", Config{VarName: "radiance"}, UnimplementedLogic{}, errors.ErrCodeInvalidInput},
		{"bad variable name", Config{ModeID: "mono", VarName: "bad name"}, UnimplementedLogic{}, errors.ErrCodeInvalidInput},
		{"variable clashes with a node", Config{ModeID: "mono", VarName: "irradiance"}, UnimplementedLogic{}, errors.ErrCodeNamingConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.cfg, tc.logic)
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestUnimplementedLogic(t *testing.T) {
	cfg := Config{ModeID: "mono", VarName: "radiance"}
	p, err := Build(cfg, UnimplementedLogic{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Execute([]string{"radiance"}, simulationInputs(cfg))
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "ExtractIrradiance") && !strings.Contains(err.Error(), "GatherBitmaps") {
		t.Errorf("expected the failing method in %q", err.Error())
	}
}

func TestBuild_StokesWarning(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.GetGlobalLogger()
	logger.SetGlobalLogger(logger.NewWithWriter(&logger.Config{Level: "warn", Format: "json"}, "test", &buf))
	defer logger.SetGlobalLogger(prev)

	if _, err := Build(Config{ModeID: "mono", VarName: "radiance", CalculateStokes: true}, UnimplementedLogic{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("no warning expected for radiance, got %s", buf.String())
	}

	if _, err := Build(Config{ModeID: "mono", VarName: "sector_radiosity", CalculateStokes: true}, UnimplementedLogic{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Stokes") || !strings.Contains(buf.String(), `"var_name":"sector_radiosity"`) {
		t.Errorf("expected Stokes warning, got %s", buf.String())
	}
}

// Package postproc assembles the Eradiate postprocessing pipeline.
//
// Build turns a Config describing the measure, the mode and the
// integrator options into a pipeline whose nodes call an injected Logic.
// Simulation data enters through virtual inputs: bitmaps, illumination,
// spectral_grid, ckd_quads, angles and srf, plus the values returned by
// Config.Inputs.
//
//	p, err := postproc.Build(cfg, logic)
//	inputs := cfg.Inputs()
//	inputs["bitmaps"] = bitmaps
//	// ... remaining simulation inputs
//	results, err := p.Execute(postproc.FinalOutputs(p), inputs)
//
// Final results are tagged {final: true, kind: data}; coordinate
// datasets are tagged {final: true, kind: coord}.
package postproc

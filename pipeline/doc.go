// Package pipeline provides a mutable DAG of named computation nodes with
// lazy, cached, synchronous execution.
//
// Each node wraps a function that receives its dependencies by name. A
// dependency that is not a node becomes a virtual input: a placeholder that
// must be supplied when executing, or that is promoted in place when a node of
// the same name is added later.
//
// Execution is demand driven: only the ancestors of the requested outputs are
// computed, each at most once per call. Supplying a value for a node in the
// inputs bypasses it, so neither the node nor its exclusive ancestors run.
//
// # Usage
//
//	p := pipeline.New()
//	p.MustAddNode("spp", sppFunc, pipeline.DependsOn("bitmaps"))
//	p.MustAddNode("radiance", radianceFunc, pipeline.DependsOn("spp", "bitmaps"))
//
//	out, err := p.Execute([]string{"radiance"}, map[string]any{"bitmaps": bitmaps})
//
// Split outputs derive several nodes from one map-valued result:
//
//	p.MustAddNode("_brdf_brf", brdfBRF,
//	    pipeline.DependsOn("radiance", "irradiance"),
//	    pipeline.WithOutputs(pipeline.Fields("brdf", "brf")))
//
// A Pipeline is not safe for concurrent use. Build independent instances for
// parallel work.
package pipeline

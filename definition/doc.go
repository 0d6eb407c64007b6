// Package definition builds pipelines from YAML documents.
//
// A document names its nodes and the registered components that compute
// them:
//
//	name: radiance
//	includes: [common]
//	nodes:
//	  - name: _brdf_brf
//	    component: brdf_brf
//	    depends_on: [radiance, irradiance]
//	    outputs: [brdf, brf]
//	    metadata: {final: true}
//
// Included documents are resolved recursively through a Loader and their
// nodes are added before the including document's own. A document reached
// twice through different includes is added once.
//
// A Watcher reports edits to the documents under a set of directories so
// that callers can rebuild.
package definition

// Package util provides small generic helpers shared by the pipeline packages:
// deterministic map iteration, slice deduplication and command-line value
// parsing.
package util

// Command eradiate-pp inspects Eradiate postprocessing pipelines and
// pipeline definition files.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Command termindex loads clauses from YAML, indexes them and runs
// retrieval and unification queries against the index.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

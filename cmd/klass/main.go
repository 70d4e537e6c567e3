// Command klass inspects type hierarchies: it builds a registry from a
// hierarchy.toml manifest, a SQLite definition store or a CBOR snapshot and
// answers subtype queries against it.
package main

import (
	"fmt"
	"os"
)

// version is overridden at link time.
var version = "0.1.0"

func main() {
	if err := newApp().execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package ir

import (
	"encoding/json"
	"io"
)

// Encode writes mod as deterministic, indented JSON (component of spec §6's
// CLI surface: "a deterministic JSON rendering of the IR per module").
// encoding/json already renders map keys in sorted order, which is what
// keeps two runs over the same AST byte-identical — no custom canonicalizer
// is needed on top of it.
func Encode(w io.Writer, mod *Module) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(mod)
}

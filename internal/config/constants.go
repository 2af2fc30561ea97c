package config

import "gopkg.in/yaml.v3"

// Version is the current compiler version.
var Version = "0.1.0"

const SourceFileExt = ".sest"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".sest"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates if the program is running in test mode, after the
// teacher's config.IsTestMode convention. No package reads it: the
// type-variable printer in internal/types checks its own types.IsTestMode,
// which nothing sets from this one.
var IsTestMode = false

// IsLevelDebugMode is set by the CLI's -debug-levels flag. Same idiom as
// the teacher's IsLSPMode toggle; no package reads it, so the flag
// currently produces no extra output.
var IsLevelDebugMode = false

// Builtin primitive names (spec §6). internal/primitives spells the names
// it seeds itself and does not read these constants.
const (
	ListTypeName   = "list"
	OptionTypeName = "option"
	SomeCtorName   = "Some"
	NoneCtorName   = "None"
	PidTypeName    = "pid"
	SpawnFuncName  = "spawn"
	SelfFuncName   = "self"
	SendFuncName   = "send"
	ReceiveName    = "receive"
	FormatTypeName = "format"
)

// Manifest is the project manifest (funxy.yaml): the entry module path.
// Decoded with yaml.v3, matching the teacher's use of yaml.v3 for its own
// tooling config.
type Manifest struct {
	Entry string `yaml:"entry"`
}

// LoadManifest decodes a project manifest from YAML bytes.
func LoadManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

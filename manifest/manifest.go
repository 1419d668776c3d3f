// Package manifest reads and validates plugin declaration files.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/version"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrUnreadable      = errors.New("manifest unreadable")
	ErrMalformed       = errors.New("malformed manifest")
	ErrInvalidSourceID = errors.New("invalid source id")
)

// Manifest is the parsed declaration of a plugin. It is never mutated after Load returns.
type Manifest struct {
	Name        string `toml:"name" json:"name" jsonschema:"required,description=Display name unique among loaded plugins"`
	Version     string `toml:"version" json:"version" jsonschema:"required,description=Semantic version of the plugin itself"`
	Protocol    string `toml:"protocol" json:"protocol" jsonschema:"required,description=Host protocol major.minor the plugin was built against"`
	Runtime     string `toml:"runtime" json:"runtime,omitempty" jsonschema:"enum=go,enum=lua,description=Defaults to lua when the entry is a .lua script or the directory holds main.lua and to go otherwise"`
	Entry       string `toml:"entry" json:"entry,omitempty" jsonschema:"description=Factory id for go plugins or script path for lua plugins"`
	Description string `toml:"description" json:"description,omitempty"`

	Sources      []string            `toml:"sources" json:"sources" jsonschema:"required,minItems=1"`
	Capabilities map[string][]string `toml:"capabilities" json:"capabilities,omitempty" jsonschema:"description=Capability name to the form fields it requires"`
}

// Fields returns the form fields the plugin declares for capability n.
func (m *Manifest) Fields(n capability.Name) ([]string, bool) {
	fields, ok := m.Capabilities[string(n)]
	return fields, ok
}

// Load parses the manifest at path. A manifest without a runtime next to a main.lua script
// is a lua plugin.
func Load(path string) (*Manifest, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	dir := filepath.Dir(path)
	hasScript, _ := filesystem.API().Exists(filepath.Join(dir, constant.DefaultScript))

	return parse(data, filepath.Base(dir), hasScript)
}

// Parse decodes and validates manifest content. dir is the plugin directory name and supplies
// the default entry of go plugins.
func Parse(data []byte, dir string) (*Manifest, error) {
	return parse(data, dir, false)
}

func parse(data []byte, dir string, hasScript bool) (*Manifest, error) {
	var m Manifest
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	if m.Runtime == "" {
		switch {
		case strings.HasSuffix(m.Entry, ".lua"), m.Entry == "" && hasScript:
			m.Runtime = constant.RuntimeLua
		default:
			m.Runtime = constant.RuntimeGo
		}
	}

	if m.Entry == "" {
		switch m.Runtime {
		case constant.RuntimeLua:
			m.Entry = constant.DefaultScript
		default:
			m.Entry = dir
		}
	}

	return &m, nil
}

func (m *Manifest) validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrMalformed)
	case m.Version == "":
		return fmt.Errorf("%w: version is required", ErrMalformed)
	case !version.Valid(m.Version):
		return fmt.Errorf("%w: version %q is not a semantic version", ErrMalformed, m.Version)
	case m.Protocol == "":
		return fmt.Errorf("%w: protocol is required", ErrMalformed)
	case !version.Valid(m.Protocol):
		return fmt.Errorf("%w: protocol %q is not major.minor", ErrMalformed, m.Protocol)
	case len(m.Sources) == 0:
		return fmt.Errorf("%w: at least one source is required", ErrMalformed)
	}

	switch m.Runtime {
	case "", constant.RuntimeGo, constant.RuntimeLua:
	default:
		return fmt.Errorf("%w: unknown runtime %q", ErrMalformed, m.Runtime)
	}

	seen := make(map[string]struct{}, len(m.Sources))
	for _, src := range m.Sources {
		if err := ValidateSourceID(src); err != nil {
			return err
		}
		if _, dup := seen[src]; dup {
			return fmt.Errorf("%w: source %q declared twice", ErrMalformed, src)
		}
		seen[src] = struct{}{}
	}

	for n := range m.Capabilities {
		if !capability.Known(capability.Name(n)) {
			return fmt.Errorf("%w: unknown capability %q", ErrMalformed, n)
		}
	}

	return nil
}

// ValidateSourceID checks the length bound of a source identifier.
func ValidateSourceID(id string) error {
	if id == "" || len(id) > constant.SourceIDMaxLen {
		return fmt.Errorf("%w: %q must be 1 to %d characters", ErrInvalidSourceID, id, constant.SourceIDMaxLen)
	}
	return nil
}

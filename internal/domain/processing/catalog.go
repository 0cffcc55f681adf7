package processing

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// InputKind is the closed set of subprocess inputs the composer and request
// submission know about.
type InputKind string

const (
	InputRandomSeed      InputKind = "random_seed"
	InputClusterCount    InputKind = "cluster_count"
	InputBurnin          InputKind = "burnin"
	InputIterationCount  InputKind = "iteration_count"
	InputFilterParameter InputKind = "filter_parameter"
)

// HDPInputs are the clustering hyperparameters every stage-2 request carries,
// in the order they are written.
var HDPInputs = []InputKind{InputRandomSeed, InputClusterCount, InputBurnin, InputIterationCount}

var allInputKinds = []InputKind{InputRandomSeed, InputClusterCount, InputBurnin, InputIterationCount, InputFilterParameter}

func ParseInputKind(raw string) (InputKind, bool) {
	k := InputKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range allInputKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Definition identifies a subprocess input row.
type Definition struct {
	Category       string
	Implementation string
	Name           string
}

func (d Definition) String() string {
	return d.Category + "." + d.Implementation + "." + d.Name
}

// InputSpec is the catalog entry of one InputKind.
type InputSpec struct {
	Kind        InputKind
	Definition  Definition
	ValueType   string
	Min         *int
	Description string
}

// Validate checks a raw value against the spec's type and bounds.
func (s InputSpec) Validate(value string) error {
	value = strings.TrimSpace(value)
	switch s.ValueType {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", s.Kind)
		}
		if s.Min != nil && n < *s.Min {
			return fmt.Errorf("%s must be >= %d", s.Kind, *s.Min)
		}
	case "string":
		if value == "" {
			return fmt.Errorf("%s must not be empty", s.Kind)
		}
	}
	return nil
}

//go:embed catalog.yaml
var catalogYAML []byte

type yamlCatalog struct {
	Catalog string                   `yaml:"catalog"`
	Version int                      `yaml:"version"`
	Inputs  map[string]yamlInputSpec `yaml:"inputs"`
}

type yamlInputSpec struct {
	Category       string `yaml:"category"`
	Implementation string `yaml:"implementation"`
	Name           string `yaml:"name"`
	ValueType      string `yaml:"value_type"`
	Min            *int   `yaml:"min"`
	Description    string `yaml:"description"`
}

var (
	catalogOnce sync.Once
	catalog     map[InputKind]InputSpec
	catalogErr  error
)

// Catalog returns the compiled subprocess input catalog. It panics if the
// embedded file disagrees with the InputKind constants, which can only happen
// at build time.
func Catalog() map[InputKind]InputSpec {
	catalogOnce.Do(func() {
		catalog, catalogErr = parseCatalog(catalogYAML)
	})
	if catalogErr != nil {
		panic(catalogErr)
	}
	return catalog
}

// Spec looks up one kind in the catalog.
func Spec(kind InputKind) (InputSpec, bool) {
	s, ok := Catalog()[kind]
	return s, ok
}

// CatalogSpecs returns every entry sorted by kind.
func CatalogSpecs() []InputSpec {
	c := Catalog()
	out := make([]InputSpec, 0, len(c))
	for _, s := range c {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func parseCatalog(data []byte) (map[InputKind]InputSpec, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("subprocess input catalog: %w", err)
	}
	out := make(map[InputKind]InputSpec, len(raw.Inputs))
	seen := map[Definition]InputKind{}
	for key, in := range raw.Inputs {
		kind, ok := ParseInputKind(key)
		if !ok {
			return nil, fmt.Errorf("subprocess input catalog: unknown kind %q", key)
		}
		def := Definition{
			Category:       strings.TrimSpace(in.Category),
			Implementation: strings.TrimSpace(in.Implementation),
			Name:           strings.TrimSpace(in.Name),
		}
		if def.Category == "" || def.Implementation == "" || def.Name == "" {
			return nil, fmt.Errorf("subprocess input catalog: %s has an incomplete definition", kind)
		}
		if prev, dup := seen[def]; dup {
			return nil, fmt.Errorf("subprocess input catalog: %s and %s share definition %s", prev, kind, def)
		}
		seen[def] = kind
		switch in.ValueType {
		case "int", "string":
		default:
			return nil, fmt.Errorf("subprocess input catalog: %s has unsupported value_type %q", kind, in.ValueType)
		}
		out[kind] = InputSpec{
			Kind:        kind,
			Definition:  def,
			ValueType:   in.ValueType,
			Min:         in.Min,
			Description: strings.TrimSpace(in.Description),
		}
	}
	for _, kind := range allInputKinds {
		if _, ok := out[kind]; !ok {
			return nil, fmt.Errorf("subprocess input catalog: missing %s", kind)
		}
	}
	return out, nil
}

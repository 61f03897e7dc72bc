// Package pipeline loads pipeline files: a set of kernels written in kernel
// assembly plus named composition expressions over them.
//
// A YAML pipeline file looks like this:
//
//	optimize: true
//	kernels:
//	  scale:
//	    file: scale.kasm
//	  bias:
//	    source: |
//	      input x:4
//	      output y:4
//	      y = add x, 1
//	pipelines:
//	  main: scale >> bias
//
// Files ending in .toml hold the same keys.
package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/naoina/toml"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v2"
)

// Format is the encoding of a pipeline file.
type Format string

const (
	// FormatYAML is the default format.
	FormatYAML Format = "yaml"
	// FormatTOML is selected by the .toml extension.
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the extension of path.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Kernel is one kernel of a pipeline file. Exactly one of Source and File
// is set; File is relative to the directory of the pipeline file.
type Kernel struct {
	Source string `yaml:"source" toml:"source"`
	File   string `yaml:"file" toml:"file"`

	// Target replaces the target line of the source.
	Target string `yaml:"target" toml:"target"`
}

// Config is a parsed pipeline file.
type Config struct {
	// Optimize overrides the optimize setting of the composer when set.
	Optimize *bool `yaml:"optimize" toml:"optimize"`

	Kernels   map[string]Kernel `yaml:"kernels" toml:"kernels"`
	Pipelines map[string]string `yaml:"pipelines" toml:"pipelines"`

	fs  afero.Fs
	dir string
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return strings.ToLower(field)
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Parse decodes data in the given format. Unknown keys are errors. Kernels
// with a File need a config from Load.
func Parse(data []byte, format Format) (*Config, error) {
	c := &Config{}
	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, c); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := tomlSettings.NewDecoder(bytes.NewReader(data)).Decode(c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown pipeline format %q", format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the pipeline file at path from fs.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read pipeline file")
	}
	c, err := Parse(data, FormatOf(path))
	if err != nil {
		// Add file name to errors that have a line number.
		if _, ok := err.(*toml.LineError); ok {
			return nil, fmt.Errorf("%s, %v", path, err)
		}
		return nil, errwrap.Wrapf(err, "can't parse %s", path)
	}
	c.fs = fs
	c.dir = filepath.Dir(path)
	return c, nil
}

// Validate checks the shape of the config. Expressions are only parsed by
// Build.
func (c *Config) Validate() error {
	var reterr error
	if len(c.Pipelines) == 0 {
		reterr = errwrap.Append(reterr, fmt.Errorf("no pipelines defined"))
	}
	for _, name := range sortedKeys(c.Kernels) {
		k := c.Kernels[name]
		if (k.Source == "") == (k.File == "") {
			reterr = errwrap.Append(reterr, fmt.Errorf("kernel %s needs exactly one of source and file", name))
		}
	}
	for _, name := range sortedKeys(c.Pipelines) {
		if _, exists := c.Kernels[name]; exists {
			reterr = errwrap.Append(reterr, fmt.Errorf("pipeline %s shadows a kernel", name))
		}
		if strings.TrimSpace(c.Pipelines[name]) == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("pipeline %s is empty", name))
		}
	}
	return reterr
}

// source returns the kernel assembly of k.
func (c *Config) source(name string, k Kernel) (string, error) {
	if k.File == "" {
		return k.Source, nil
	}
	if c.fs == nil {
		return "", fmt.Errorf("kernel %s: file %s needs a config loaded from a filesystem", name, k.File)
	}
	path := k.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", errwrap.Wrapf(err, "kernel %s", name)
	}
	return string(data), nil
}

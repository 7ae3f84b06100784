// Package printers загружает таблицу возможностей принтеров:
// для каждого принтера список поддерживаемых слайсеров и сопел.
package printers

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/model"
)

// Printer возможности одного принтера
type Printer struct {
	Name    string
	Slicers []string
	Nozzles []string // как в файле: "0.4" или "0.4mm"
}

// Supports поддерживает ли принтер слайсер
func (p Printer) Supports(slicer string) bool {
	return slices.ContainsFunc(p.Slicers, func(s string) bool {
		return strings.EqualFold(s, slicer)
	})
}

// Table принтеры в порядке, в котором они описаны в файле
type Table struct {
	Printers []Printer
}

type capabilities struct {
	Slicers []string `json:"slicers" yaml:"slicers" toml:"slicers"`
	Nozzles []string `json:"nozzles" yaml:"nozzles" toml:"nozzles"`
}

// Load читает таблицу из .json, .yaml/.yml или .toml
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}

	var t *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		t, err = ParseJSON(b)
	case ".yaml", ".yml":
		t, err = ParseYAML(b)
	case ".toml":
		t, err = ParseTOML(b)
	default:
		return nil, fmt.Errorf("неподдерживаемый формат таблицы принтеров: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	return t, nil
}

// ParseJSON { "Printer": { "slicers": [...], "nozzles": [...] } }
func ParseJSON(b []byte) (*Table, error) {
	root, err := document.DecodeObject(b)
	if err != nil {
		return nil, err
	}

	t := &Table{}
	for _, name := range root.Keys() {
		entry, ok := root.Object(name)
		if !ok {
			return nil, fmt.Errorf("принтер %q: ожидался объект", name)
		}
		p := Printer{Name: name}
		if p.Slicers, err = stringList(entry, "slicers"); err != nil {
			return nil, fmt.Errorf("принтер %q: %w", name, err)
		}
		if p.Nozzles, err = stringList(entry, "nozzles"); err != nil {
			return nil, fmt.Errorf("принтер %q: %w", name, err)
		}
		t.Printers = append(t.Printers, p)
	}
	return t, nil
}

func stringList(obj *document.Object, key string) ([]string, error) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: ожидался массив, получено %s", key, document.TypeName(v))
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, err := scalarString(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		// json.Number: сопла иногда записаны числом
		return t.String(), nil
	default:
		return "", fmt.Errorf("ожидалась строка, получено %s", document.TypeName(v))
	}
}

// ParseYAML тот же формат в YAML. Порядок берётся из yaml.Node.
func ParseYAML(b []byte) (*Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}

	t := &Table{}
	if len(root.Content) == 0 {
		return t, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("ожидался mapping на верхнем уровне")
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		var c capabilities
		if err := doc.Content[i+1].Decode(&c); err != nil {
			return nil, fmt.Errorf("принтер %q: %w", name, err)
		}
		t.Printers = append(t.Printers, Printer{Name: name, Slicers: c.Slicers, Nozzles: c.Nozzles})
	}
	return t, nil
}

// ParseTOML таблица на принтер: ["Bambu Lab X1"] slicers = [...]. Порядок берётся из MetaData.Keys.
func ParseTOML(b []byte) (*Table, error) {
	var raw map[string]capabilities
	md, err := toml.Decode(string(b), &raw)
	if err != nil {
		return nil, err
	}

	t := &Table{}
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		c, ok := raw[name]
		if !ok {
			continue
		}
		t.Printers = append(t.Printers, Printer{Name: name, Slicers: c.Slicers, Nozzles: c.Nozzles})
	}
	return t, nil
}

// Printer ищет принтер по имени
func (t *Table) Printer(name string) (Printer, bool) {
	if t == nil {
		return Printer{}, false
	}
	for _, p := range t.Printers {
		if p.Name == name {
			return p, true
		}
	}
	return Printer{}, false
}

// Supporting принтеры, поддерживающие слайсер
func (t *Table) Supporting(slicer string) []Printer {
	if t == nil {
		return nil
	}
	var out []Printer
	for _, p := range t.Printers {
		if p.Supports(slicer) {
			out = append(out, p)
		}
	}
	return out
}

// Identifiers идентификаторы "{printer} {size} nozzle" для всех пар принтер/сопло слайсера
func (t *Table) Identifiers(slicer string) []string {
	var out []string
	for _, p := range t.Supporting(slicer) {
		for _, n := range p.Nozzles {
			out = append(out, model.Identifier(p.Name, n))
		}
	}
	return out
}

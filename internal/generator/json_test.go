package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/merge"
	"github.com/vovanwin/slicergen/internal/model"
	"github.com/vovanwin/slicergen/internal/printers"
)

func bambuFS() fstest.MapFS {
	return fstest.MapFS{
		"pla/bambustudio/base.json":     {Data: []byte(`{"compatible_printers": ["X"], "filament_type": ["PLA"]}`)},
		"pla/bambustudio/printers.json": {Data: []byte(`{"X": {"nozzle_temperature": [200, 200]}}`)},
		"pla/bambustudio/nozzles.json":  {Data: []byte(`{"0.4mm": {"perimeter_speed": 50}}`)},
	}
}

func tableOf(slicer string, names ...string) *printers.Table {
	t := &printers.Table{}
	for _, n := range names {
		t.Printers = append(t.Printers, printers.Printer{Name: n, Slicers: []string{slicer}, Nozzles: []string{"0.4"}})
	}
	return t
}

func generateJSON(t *testing.T, fsys fstest.MapFS, table *printers.Table, strategy merge.ArrayStrategy) []model.Artifact {
	t.Helper()
	store := loader.NewStoreFS(fsys)
	base, err := store.LoadBase("pla", "bambustudio")
	require.NoError(t, err)

	g, err := For(model.FormatJSON, Options{Store: store, Printers: table, Strategy: strategy})
	require.NoError(t, err)

	arts, err := g.Generate(context.Background(), Request{Material: "pla", Slicer: "bambustudio", Version: "1.0.0", Base: base})
	require.NoError(t, err)
	return arts
}

func decode(t *testing.T, a model.Artifact) *document.Object {
	t.Helper()
	obj, err := document.DecodeObject(a.Content)
	require.NoError(t, err)
	return obj
}

func TestJSONGenerateLayers(t *testing.T) {
	arts := generateJSON(t, bambuFS(), tableOf("bambustudio", "X"), merge.Replace)
	require.Len(t, arts, 1)

	a := arts[0]
	assert.Equal(t, "addnorth_pla_X_0.4mm_1.0.0.json", a.Filename)
	assert.Equal(t, "X", a.Printer)
	assert.Equal(t, "0.4mm", a.Nozzle)

	obj := decode(t, a)
	cp, _ := obj.Get("compatible_printers")
	assert.Equal(t, []any{"X 0.4 nozzle"}, cp)
	temp, _ := obj.Get("nozzle_temperature")
	assert.Equal(t, []any{json.Number("200"), json.Number("200")}, temp)
	speed, _ := obj.Get("perimeter_speed")
	assert.Equal(t, json.Number("50"), speed)

	assert.Equal(t, []string{"compatible_printers", "filament_type", "nozzle_temperature", "perimeter_speed"}, obj.Keys())
}

func TestJSONGenerateFanOut(t *testing.T) {
	arts := generateJSON(t, bambuFS(), tableOf("bambustudio", "A", "B"), merge.Replace)
	require.Len(t, arts, 2)

	assert.NotEqual(t, arts[0].Filename, arts[1].Filename)
	for _, a := range arts {
		cp, _ := decode(t, a).Get("compatible_printers")
		require.Len(t, cp, 1)
		assert.Equal(t, model.Identifier(a.Printer, a.Nozzle), cp.([]any)[0])
	}
}

func TestJSONGenerateCombinationWins(t *testing.T) {
	fsys := bambuFS()
	fsys["pla/bambustudio/printers.json"] = &fstest.MapFile{Data: []byte(`{"X": {"perimeter_speed": 30, "fan": 1}}`)}
	fsys["pla/bambustudio/combinations/X-0.4mm.json"] = &fstest.MapFile{Data: []byte(`{"perimeter_speed": 45}`)}

	arts := generateJSON(t, fsys, tableOf("bambustudio", "X"), merge.Replace)
	require.Len(t, arts, 1)

	obj := decode(t, arts[0])
	speed, _ := obj.Get("perimeter_speed")
	assert.Equal(t, json.Number("45"), speed)
	fan, _ := obj.Get("fan")
	assert.Equal(t, json.Number("1"), fan)
}

func TestJSONGenerateVersionField(t *testing.T) {
	fsys := bambuFS()
	fsys["pla/bambustudio/base.json"] = &fstest.MapFile{Data: []byte(`{"version": "0.0.0", "filament_type": ["PLA"]}`)}

	arts := generateJSON(t, fsys, tableOf("bambustudio", "X"), merge.Replace)
	v, _ := decode(t, arts[0]).Get("version")
	assert.Equal(t, "1.0.0", v)

	noVersion := generateJSON(t, bambuFS(), tableOf("bambustudio", "X"), merge.Replace)
	assert.False(t, decode(t, noVersion[0]).Has("version"))
}

func TestJSONGenerateArrayStrategy(t *testing.T) {
	fsys := bambuFS()
	fsys["pla/bambustudio/base.json"] = &fstest.MapFile{Data: []byte(`{"filament_type": ["PLA"], "nozzle_temperature": [190]}`)}

	arts := generateJSON(t, fsys, tableOf("bambustudio", "X"), merge.Concat)
	temp, _ := decode(t, arts[0]).Get("nozzle_temperature")
	assert.Equal(t, []any{json.Number("190"), json.Number("200"), json.Number("200")}, temp)
}

// TestJSONGenerateKeepsBaseIntact переопределения накладываются на копию базы:
// нетронутые массивы не схлопываются, null ключи остаются
func TestJSONGenerateKeepsBaseIntact(t *testing.T) {
	for _, strategy := range []merge.ArrayStrategy{merge.Replace, merge.Unique} {
		strategy := strategy
		t.Run(strategy.String(), func(t *testing.T) {
			fsys := fstest.MapFS{
				"pla/bambustudio/base.json":    {Data: []byte(`{"compatible_printers": ["X"], "filament_type": ["PLA"], "nozzle_temperature": ["220", "220"], "note": null}`)},
				"pla/bambustudio/nozzles.json": {Data: []byte(`{"0.4mm": {"filament_type": ["PLA", "PLA"]}}`)},
			}

			arts := generateJSON(t, fsys, tableOf("bambustudio", "X"), strategy)
			require.Len(t, arts, 1)
			obj := decode(t, arts[0])

			temp, _ := obj.Get("nozzle_temperature")
			assert.Equal(t, []any{"220", "220"}, temp)

			note, ok := obj.Get("note")
			assert.True(t, ok, "null ключ базы потерян")
			assert.Nil(t, note)
			assert.Contains(t, string(arts[0].Content), `"note": null`)

			ft, _ := obj.Get("filament_type")
			if strategy == merge.Unique {
				assert.Equal(t, []any{"PLA"}, ft)
			} else {
				assert.Equal(t, []any{"PLA", "PLA"}, ft)
			}
		})
	}
}

func TestJSONGenerateMissingBaseSkips(t *testing.T) {
	g := &JSONGenerator{opts: Options{Store: loader.NewStoreFS(fstest.MapFS{}), Printers: tableOf("bambustudio", "X")}}

	arts, err := g.Generate(context.Background(), Request{Material: "pla", Slicer: "bambustudio", Version: "1"})
	assert.NoError(t, err)
	assert.Empty(t, arts)
}

func TestJSONGenerateBadIdentifier(t *testing.T) {
	table := &printers.Table{Printers: []printers.Printer{
		{Name: "X", Slicers: []string{"bambustudio"}, Nozzles: []string{"standard"}},
	}}

	store := loader.NewStoreFS(bambuFS())
	base, err := store.LoadBase("pla", "bambustudio")
	require.NoError(t, err)

	g := &JSONGenerator{opts: Options{Store: store, Printers: table}}
	_, err = g.Generate(context.Background(), Request{Material: "pla", Slicer: "bambustudio", Version: "1", Base: base})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNoNozzleSize))
	assert.Contains(t, err.Error(), "X standard nozzle")
}

func TestJSONGenerateIsIdempotent(t *testing.T) {
	store := loader.NewStoreFS(bambuFS())
	base, err := store.LoadBase("pla", "bambustudio")
	require.NoError(t, err)
	before := base.Config.Clone()

	g := &JSONGenerator{opts: Options{Store: store, Printers: tableOf("bambustudio", "X", "Y")}}
	req := Request{Material: "pla", Slicer: "bambustudio", Version: "1.0.0", Base: base}

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, base.Config)
}

func TestJSONOutputIndent(t *testing.T) {
	arts := generateJSON(t, bambuFS(), tableOf("bambustudio", "X"), merge.Replace)

	want := `{
    "compatible_printers": [
        "X 0.4 nozzle"
    ],
    "filament_type": [
        "PLA"
    ],
    "nozzle_temperature": [
        200,
        200
    ],
    "perimeter_speed": 50
}`
	assert.Equal(t, want, string(arts[0].Content))
}

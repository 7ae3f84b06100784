package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/model"
	"github.com/vovanwin/slicergen/internal/printers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	prusaBase = "[vendor]\nname = addnorth\nconfig_version = 0.0.1\n\n[filament:addnorth PLA @MK4]\ntemperature = 215\n"
	bambuBase = `{"type": "filament", "version": "0.0.1", "compatible_printers": [], "filament_settings_id": ["addnorth PLA"], "filament_type": ["PLA"]}`
)

func materialsFS() fstest.MapFS {
	return fstest.MapFS{
		"pla/prusaslicer/base.ini":       {Data: []byte(prusaBase)},
		"pla/bambustudio/base.json":      {Data: []byte(bambuBase)},
		"pla/bambustudio/nozzles.json":   {Data: []byte(`{"0.6mm": {"filament_flow_ratio": [0.98]}}`)},
		"petg/bambustudio/printers.json": {Data: []byte(`{}`)},
	}
}

func testTable() *printers.Table {
	return &printers.Table{Printers: []printers.Printer{
		{Name: "MK4", Slicers: []string{"prusaslicer"}, Nozzles: []string{"0.4"}},
		{Name: "X", Slicers: []string{"bambustudio"}, Nozzles: []string{"0.4", "0.6"}},
	}}
}

func testOptions(t *testing.T, fsys fstest.MapFS) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		OutputDir:  filepath.Join(dir, "configs"),
		ReleaseDir: filepath.Join(dir, "release"),
		Version:    "1.0",
		Store:      loader.NewStoreFS(fsys),
		Printers:   testTable(),
	}
}

func filenames(arts []model.Artifact) []string {
	var out []string
	for _, a := range arts {
		out = append(out, a.Filename)
	}
	return out
}

func TestGenerateWritesAllConfigs(t *testing.T) {
	opts := testOptions(t, materialsFS())

	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"addnorth_pla_X_0.4mm_1.0.json",
		"addnorth_pla_X_0.6mm_1.0.json",
		"addnorth_pla_1.0.ini",
	}, filenames(res.Artifacts))

	require.Len(t, res.Paths, 3)
	assert.Equal(t, filepath.Join(opts.OutputDir, "prusaslicer", "addnorth_pla_1.0.ini"), res.Paths[2])
	for _, p := range res.Paths {
		assert.FileExists(t, p)
	}

	data, err := os.ReadFile(res.Paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compatible_printers": [
        "X 0.6 nozzle"
    ]`)
	assert.Contains(t, string(data), `"version": "1.0"`)
}

func TestGenerateFilters(t *testing.T) {
	tests := []struct {
		name     string
		printer  string
		nozzle   string
		expected []string
	}{
		{"сопло", "", "0.6mm", []string{"addnorth_pla_X_0.6mm_1.0.json", "addnorth_pla_1.0.ini"}},
		{"сопло без mm", "", "0.4", []string{"addnorth_pla_X_0.4mm_1.0.json", "addnorth_pla_1.0.ini"}},
		{"чужой принтер", "Y", "", []string{"addnorth_pla_1.0.ini"}},
		{"принтер и сопло", "x", "0.6", []string{"addnorth_pla_X_0.6mm_1.0.json", "addnorth_pla_1.0.ini"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, materialsFS())
			opts.Printer = tt.printer
			opts.Nozzle = tt.nozzle
			opts.DryRun = true

			res, err := Generate(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filenames(res.Artifacts))
		})
	}
}

func TestGenerateMaterialAndSlicerFilter(t *testing.T) {
	opts := testOptions(t, materialsFS())
	opts.Materials = []string{"pla"}
	opts.Slicers = []string{"prusaslicer"}

	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"addnorth_pla_1.0.ini"}, filenames(res.Artifacts))
}

func TestGenerateDryRunCollectsErrors(t *testing.T) {
	fsys := materialsFS()
	fsys["abs/bambustudio/base.json"] = &fstest.MapFile{Data: []byte(`{"compatible_printers": [`)}
	fsys["asa/prusaslicer/base.ini"] = &fstest.MapFile{Data: []byte("[vendor\n")}

	opts := testOptions(t, fsys)
	opts.DryRun = true

	res, err := Generate(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abs/bambustudio/base.json")
	assert.Contains(t, err.Error(), "asa/prusaslicer/base.ini")

	require.NotNil(t, res)
	assert.Len(t, res.Artifacts, 3, "остальные материалы обработаны")
	for _, p := range res.Paths {
		assert.NoFileExists(t, p)
	}
}

func TestGenerateAbortsWithoutDryRun(t *testing.T) {
	fsys := materialsFS()
	fsys["abs/bambustudio/base.json"] = &fstest.MapFile{Data: []byte(`{"compatible_printers": [`)}

	opts := testOptions(t, fsys)
	res, err := Generate(context.Background(), opts)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.NoDirExists(t, opts.OutputDir)
}

func TestGenerateWithoutPrintersFile(t *testing.T) {
	opts := testOptions(t, materialsFS())
	opts.Printers = nil
	opts.PrintersFile = filepath.Join(t.TempDir(), "missing.json")

	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"addnorth_pla_1.0.ini"}, filenames(res.Artifacts))
}

func TestGenerateLoadsPrintersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("X:\n  slicers: [bambustudio]\n  nozzles: [\"0.4\"]\n"), 0o644))

	opts := testOptions(t, materialsFS())
	opts.Printers = nil
	opts.PrintersFile = path
	opts.Slicers = []string{"bambustudio"}

	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"addnorth_pla_X_0.4mm_1.0.json"}, filenames(res.Artifacts))
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, testOptions(t, materialsFS()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	a := model.Artifact{Filename: "addnorth_pla_1.0.ini", Slicer: "prusaslicer", Content: []byte("[vendor]\n")}

	path, err := SaveConfig(a, dir, SaveOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prusaslicer", "addnorth_pla_1.0.ini"), path)
	assert.NoFileExists(t, path)

	path, err = SaveConfig(a, dir, SaveOptions{})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[vendor]\n", string(data))
}

func TestFilterArtifactsKeepsINI(t *testing.T) {
	arts := []model.Artifact{
		{Filename: "a.ini", Format: model.FormatINI},
		{Filename: "b.json", Format: model.FormatJSON, Printer: "X", Nozzle: "0.4mm"},
	}
	assert.Equal(t, arts, filterArtifacts(arts, "", ""))
	assert.Equal(t, arts[:1], filterArtifacts(arts, "Y", "0.6"))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "slicergen" {
		t.Errorf("Use = %q, ожидалось slicergen", cmd.Use)
	}
	if !cmd.SilenceUsage {
		t.Error("ожидалось SilenceUsage = true")
	}

	found := make(map[string]bool)
	for _, c := range cmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"generate", "validate", "release", "init"} {
		if !found[name] {
			t.Errorf("нет команды %s", name)
		}
	}
}

func TestVersionTemplate(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if out != "slicergen version dev\n" {
		t.Errorf("вывод %q", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"ini", false},
		{"JSON", false},
		{"yaml", true},
	}
	for _, tt := range tests {
		_, err := parseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormat(%q) err = %v", tt.in, err)
		}
	}
}

// workspace материалы на диске и таблица принтеров
func workspace(t *testing.T) (dir string, common []string) {
	t.Helper()
	dir = t.TempDir()
	materials := filepath.Join(dir, "materials")
	printers := filepath.Join(dir, "printers.toml")

	table := `["Prusa MK4"]
slicers = ["prusaslicer"]
nozzles = ["0.4"]

["Bambu X1C"]
slicers = ["bambustudio"]
nozzles = ["0.4", "0.6"]
`
	if err := os.WriteFile(printers, []byte(table), 0o644); err != nil {
		t.Fatalf("не удалось создать таблицу: %v", err)
	}

	common = []string{
		"--config", filepath.Join(dir, "slicergen.toml"),
		"--materials", materials,
		"--printers", printers,
		"--release-version", "1.0",
	}
	for _, args := range [][]string{
		{"init", "pla", "prusaslicer", "--format", "ini"},
		{"init", "pla", "bambustudio"},
	} {
		if _, err := execute(t, append(args, common...)...); err != nil {
			t.Fatalf("init %v: %v", args, err)
		}
	}
	return dir, common
}

func TestGenerateCommand(t *testing.T) {
	dir, common := workspace(t)
	output := filepath.Join(dir, "out")

	out, err := execute(t, append([]string{"generate", "-o", output}, common...)...)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v\n%s", err, out)
	}

	for _, rel := range []string{
		"prusaslicer/addnorth_pla_1.0.ini",
		"bambustudio/addnorth_pla_Bambu-X1C_0.4mm_1.0.json",
		"bambustudio/addnorth_pla_Bambu-X1C_0.6mm_1.0.json",
	} {
		if _, err := os.Stat(filepath.Join(output, rel)); err != nil {
			t.Errorf("нет файла %s: %v", rel, err)
		}
	}
	if !strings.Contains(out, "Сгенерировано: 3") {
		t.Errorf("вывод:\n%s", out)
	}
}

func TestGenerateNozzleFilter(t *testing.T) {
	dir, common := workspace(t)
	output := filepath.Join(dir, "out")

	args := append([]string{"generate", "-o", output, "--nozzle", "0.6", "--dry-run"}, common...)
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !strings.Contains(out, "addnorth_pla_Bambu-X1C_0.6mm_1.0.json") || strings.Contains(out, "0.4mm") {
		t.Errorf("фильтр сопла не применён:\n%s", out)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("dry-run не должен создавать %s", output)
	}
}

func TestValidateCommand(t *testing.T) {
	dir, common := workspace(t)

	out, err := execute(t, append([]string{"validate"}, common...)...)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v\n%s", err, out)
	}

	bad := filepath.Join(dir, "materials", "pla", "bambustudio", "nozzles.json")
	if err := os.WriteFile(bad, []byte(`{"0.4mm": `), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, append([]string{"validate"}, common...)...)
	if err == nil {
		t.Fatal("ожидалась ошибка проверки")
	}
	if !strings.Contains(out, "nozzles.json") {
		t.Errorf("в выводе нет битого файла:\n%s", out)
	}
}

func TestReleaseCommand(t *testing.T) {
	dir, common := workspace(t)
	releaseDir := filepath.Join(dir, "release")

	out, err := execute(t, append([]string{"release", "-o", releaseDir}, common...)...)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v\n%s", err, out)
	}
	for _, name := range []string{"addnorth_Prusa-MK4_1.0.zip", "addnorth_Bambu-X1C_1.0.zip", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(releaseDir, name)); err != nil {
			t.Errorf("нет файла %s: %v", name, err)
		}
	}
}

func TestSettingsFileAndFlagPrecedence(t *testing.T) {
	dir, common := workspace(t)
	fromFile := filepath.Join(dir, "from-file")
	fromFlag := filepath.Join(dir, "from-flag")

	settings := "[paths]\noutput = \"" + filepath.ToSlash(fromFile) + "\"\n\n[generate]\narray_strategy = \"unique\"\n"
	if err := os.WriteFile(filepath.Join(dir, "slicergen.toml"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, append([]string{"generate", "-m", "pla", "-s", "prusaslicer"}, common...)...); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fromFile, "prusaslicer", "addnorth_pla_1.0.ini")); err != nil {
		t.Errorf("путь из файла настроек не применён: %v", err)
	}

	if _, err := execute(t, append([]string{"generate", "-m", "pla", "-s", "prusaslicer", "-o", fromFlag}, common...)...); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fromFlag, "prusaslicer", "addnorth_pla_1.0.ini")); err != nil {
		t.Errorf("флаг должен перекрывать файл настроек: %v", err)
	}
}

func TestBadArrayStrategy(t *testing.T) {
	_, common := workspace(t)
	_, err := execute(t, append([]string{"generate", "--array-strategy", "zip", "--dry-run"}, common...)...)
	if err == nil {
		t.Error("ожидалась ошибка для неизвестной стратегии")
	}
}

func TestInitRequiresArgs(t *testing.T) {
	cmd := newRootCmd()
	var initCmd *cobra.Command
	for _, c := range cmd.Commands() {
		if c.Name() == "init" {
			initCmd = c
		}
	}
	if initCmd == nil {
		t.Fatal("нет команды init")
	}
	if err := initCmd.Args(initCmd, []string{"pla"}); err == nil {
		t.Error("ожидалась ошибка для одного аргумента")
	}
}

package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/inifile"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/model"
)

// InitResult созданные и пропущенные файлы
type InitResult struct {
	Created []string
	Skipped []string
}

// initFiles содержимое заготовки материала
func initFiles(material string, format model.Format) (map[string][]byte, error) {
	var (
		baseName string
		base     []byte
		err      error
	)
	switch format {
	case model.FormatINI:
		baseName = loader.BaseINI
		base, err = inifile.Serialize(starterINI(material))
	case model.FormatJSON:
		baseName = loader.BaseJSON
		base, err = document.Marshal(starterJSON(material))
	default:
		return nil, fmt.Errorf("неизвестный формат %s", format)
	}
	if err != nil {
		return nil, err
	}

	return map[string][]byte{
		baseName:            base,
		loader.PrintersFile: []byte("{}\n"),
		loader.NozzlesFile:  []byte("{}\n"),
	}, nil
}

func starterINI(material string) *document.Object {
	filamentType := strings.ToUpper(material)
	return document.FromPairs(
		"vendor", document.FromPairs(
			"name", model.Vendor,
			"config_version", "0.0.0",
		),
		"filament:"+model.Vendor+" "+filamentType, document.FromPairs(
			"filament_type", filamentType,
			"filament_vendor", model.Vendor,
			"compatible_printers_condition", "",
		),
	)
}

func starterJSON(material string) *document.Object {
	filamentType := strings.ToUpper(material)
	return document.FromPairs(
		"type", "filament",
		"name", model.Vendor+" "+filamentType,
		"version", "0.0.0",
		"filament_type", []any{filamentType},
		"filament_settings_id", []any{model.Vendor + " " + filamentType},
		"compatible_printers", []any{},
	)
}

// Init создаёт заготовку {materialsDir}/{material}/{slicer}: базовый конфиг,
// пустые printers.json/nozzles.json и директорию combinations.
// Существующие файлы не перезаписываются.
func Init(materialsDir, material, slicer string, format model.Format) (*InitResult, error) {
	if material == "" || slicer == "" {
		return nil, fmt.Errorf("не заданы материал или слайсер")
	}
	files, err := initFiles(material, format)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(materialsDir, material, slicer)
	if err := os.MkdirAll(filepath.Join(dir, loader.CombinationsDir), 0o755); err != nil {
		return nil, fmt.Errorf("создание директории %s: %w", dir, err)
	}

	res := &InitResult{}
	for _, name := range []string{loader.BaseINI, loader.BaseJSON, loader.PrintersFile, loader.NozzlesFile} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			res.Skipped = append(res.Skipped, path)
			continue
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, fmt.Errorf("запись %s: %w", name, err)
		}
		res.Created = append(res.Created, path)
	}
	return res, nil
}

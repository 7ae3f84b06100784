// Package release упаковывает сгенерированные конфиги в архивы по принтерам
// и пишет manifest.json.
package release

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/model"
	"github.com/vovanwin/slicergen/internal/printers"
)

// ManifestFile имя манифеста в директории релиза
const ManifestFile = "manifest.json"

// Bundle артефакты одного принтера
type Bundle struct {
	Printer   string
	Artifacts []model.Artifact
}

// Archive запись манифеста
type Archive struct {
	Printer string   `json:"printer"`
	File    string   `json:"file"`
	Configs []string `json:"configs"`
}

// Manifest содержимое manifest.json
type Manifest struct {
	Version  string    `json:"version"`
	Archives []Archive `json:"archives"`
}

// Group раскладывает артефакты по принтерам в порядке таблицы.
// JSON артефакт попадает к своему принтеру, INI ко всем принтерам,
// поддерживающим его слайсер. Принтеры без артефактов пропускаются.
func Group(table *printers.Table, artifacts []model.Artifact) []Bundle {
	if table == nil {
		return nil
	}
	var out []Bundle
	for _, p := range table.Printers {
		b := Bundle{Printer: p.Name}
		for _, a := range artifacts {
			switch a.Format {
			case model.FormatJSON:
				if a.Printer == p.Name {
					b.Artifacts = append(b.Artifacts, a)
				}
			case model.FormatINI:
				if p.Supports(a.Slicer) {
					b.Artifacts = append(b.Artifacts, a)
				}
			}
		}
		if len(b.Artifacts) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// WriteArchive пишет zip с записями {slicer}/{filename}.
// Время модификации нулевое, одинаковый вход даёт одинаковые байты.
func WriteArchive(w io.Writer, artifacts []model.Artifact) error {
	zw := zip.NewWriter(w)
	for _, a := range artifacts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   a.RelPath(),
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("запись %s: %w", a.RelPath(), err)
		}
		if _, err := fw.Write(a.Content); err != nil {
			return fmt.Errorf("запись %s: %w", a.RelPath(), err)
		}
	}
	return zw.Close()
}

// Plan манифест без записи на диск
func Plan(version string, bundles []Bundle) *Manifest {
	manifest := &Manifest{Version: version, Archives: []Archive{}}
	for _, b := range bundles {
		entry := Archive{
			Printer: b.Printer,
			File:    model.ArchiveFilename(b.Printer, version),
			Configs: make([]string, 0, len(b.Artifacts)),
		}
		for _, a := range b.Artifacts {
			entry.Configs = append(entry.Configs, a.RelPath())
		}
		manifest.Archives = append(manifest.Archives, entry)
	}
	return manifest
}

// Write создаёт архивы в dir и manifest.json
func Write(dir, version string, bundles []Bundle) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание директории %s: %w", dir, err)
	}

	manifest := Plan(version, bundles)
	for i, b := range bundles {
		name := manifest.Archives[i].File

		var buf bytes.Buffer
		if err := WriteArchive(&buf, b.Artifacts); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("запись %s: %w", name, err)
		}
	}

	data, err := json.MarshalIndent(manifest, "", document.Indent)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("запись %s: %w", ManifestFile, err)
	}
	return manifest, nil
}

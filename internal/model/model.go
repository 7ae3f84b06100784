package model

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Vendor префикс всех генерируемых файлов
const Vendor = "addnorth"

// Format представляет формат конфига слайсера
type Format int

const (
	FormatUnknown Format = iota
	FormatINI            // PrusaSlicer: секции с шаблонами имён
	FormatJSON           // Bambu Studio / Orca: вложенный JSON
)

func (f Format) String() string {
	switch f {
	case FormatINI:
		return "ini"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Ext расширение файла формата
func (f Format) Ext() string {
	switch f {
	case FormatINI:
		return ".ini"
	case FormatJSON:
		return ".json"
	default:
		return ""
	}
}

// FormatFromExt определяет формат по расширению пути
func FormatFromExt(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return FormatINI
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Artifact один сгенерированный файл конфига
type Artifact struct {
	Filename string // Имя файла без директории
	Content  []byte // Сериализованное содержимое
	Material string
	Slicer   string
	Format   Format
	Printer  string // Пусто для INI: один файл на все принтеры
	Nozzle   string // В виде "0.4mm", пусто для INI
}

// RelPath путь артефакта относительно директории вывода, всегда через "/":
// он же имя записи в zip и строка в manifest.json
func (a Artifact) RelPath() string {
	return path.Join(a.Slicer, a.Filename)
}

// ErrNoNozzleSize идентификатор принтера не содержит размера сопла
var ErrNoNozzleSize = errors.New("не удалось извлечь размер сопла")

var identifierRe = regexp.MustCompile(`^(.*?)\s+(\d+(?:\.\d+)?)\s+nozzle$`)

// Identifier строит идентификатор совместимого принтера: "Bambu Lab X1 0.4 nozzle"
func Identifier(printer, nozzle string) string {
	return fmt.Sprintf("%s %s nozzle", printer, NozzleSize(nozzle))
}

// ParseIdentifier разбирает идентификатор на имя принтера и размер сопла ("0.4")
func ParseIdentifier(id string) (printer, size string, err error) {
	m := identifierRe.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil || m[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrNoNozzleSize, id)
	}
	return m[1], m[2], nil
}

// NozzleSize убирает суффикс mm: "0.4mm" -> "0.4"
func NozzleSize(nozzle string) string {
	s := strings.TrimSpace(nozzle)
	s = strings.TrimSuffix(strings.ToLower(s), "mm")
	return strings.TrimSpace(s)
}

// NozzleKey ключ сопла в nozzles.json: "0.4" -> "0.4mm"
func NozzleKey(nozzle string) string {
	return NozzleSize(nozzle) + "mm"
}

// Dashed заменяет пробелы на дефисы для имён файлов
func Dashed(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}

// INIFilename addnorth_{material}_{version}.ini
func INIFilename(material, version string) string {
	return fmt.Sprintf("%s_%s_%s.ini", Vendor, material, version)
}

// JSONFilename addnorth_{material}_{printer}_{nozzle}mm_{version}.json
func JSONFilename(material, printer, nozzle, version string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s.json", Vendor, material, Dashed(printer), NozzleKey(nozzle), version)
}

// ArchiveFilename addnorth_{printer}_{version}.zip
func ArchiveFilename(printer, version string) string {
	return fmt.Sprintf("%s_%s_%s.zip", Vendor, Dashed(printer), version)
}

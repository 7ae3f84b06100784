// Package settings читает файл настроек slicergen.toml.
//
// Слои: значения по умолчанию, файл, переменные окружения вида
// SLICERGEN_PATHS__MATERIALS. Отсутствующий файл не ошибка, файл, который
// есть, но не разбирается, всегда ошибка.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile имя файла настроек в текущей директории
const DefaultFile = "slicergen.toml"

// EnvPrefix префикс переменных окружения
const EnvPrefix = "SLICERGEN_"

// Settings итоговые настройки
type Settings struct {
	MaterialsDir  string // Корень материалов
	OutputDir     string // Куда писать конфиги
	PrintersFile  string // Таблица возможностей принтеров
	ReleaseDir    string // Куда писать архивы и manifest.json
	ArrayStrategy string // replace, merge, unique
	LogLevel      string // debug, info, warn, error
}

// Default настройки по умолчанию
func Default() Settings {
	return Settings{
		MaterialsDir:  "./materials",
		OutputDir:     "./dist/configs",
		PrintersFile:  "./printers.json",
		ReleaseDir:    "./dist/release",
		ArrayStrategy: "replace",
		LogLevel:      "info",
	}
}

type fileDTO struct {
	Paths struct {
		Materials *string `toml:"materials"`
		Output    *string `toml:"output"`
		Printers  *string `toml:"printers"`
		Release   *string `toml:"release"`
	} `toml:"paths"`
	Generate struct {
		ArrayStrategy *string `toml:"array_strategy"`
	} `toml:"generate"`
	Log struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

// update применяет заданные в файле значения
func (s *Settings) update(dto fileDTO) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.MaterialsDir, dto.Paths.Materials)
	set(&s.OutputDir, dto.Paths.Output)
	set(&s.PrintersFile, dto.Paths.Printers)
	set(&s.ReleaseDir, dto.Paths.Release)
	set(&s.ArrayStrategy, dto.Generate.ArrayStrategy)
	set(&s.LogLevel, dto.Log.Level)
}

// envKeys переменная окружения -> поле
func (s *Settings) envKeys() map[string]*string {
	return map[string]*string{
		"PATHS__MATERIALS":         &s.MaterialsDir,
		"PATHS__OUTPUT":            &s.OutputDir,
		"PATHS__PRINTERS":          &s.PrintersFile,
		"PATHS__RELEASE":           &s.ReleaseDir,
		"GENERATE__ARRAY_STRATEGY": &s.ArrayStrategy,
		"LOG__LEVEL":               &s.LogLevel,
	}
}

// ApplyEnv накладывает переменные окружения. lookup обычно os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	for key, dst := range s.envKeys() {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
}

// Parse накладывает TOML поверх значений по умолчанию
func Parse(data string) (Settings, error) {
	s := Default()
	var dto fileDTO
	md, err := toml.Decode(data, &dto)
	if err != nil {
		return s, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return s, fmt.Errorf("неизвестный ключ %s", undecoded[0])
	}
	s.update(dto)
	return s, nil
}

// Load читает файл настроек и окружение
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("чтение %s: %w", path, err)
	default:
		s, err = Parse(string(data))
		if err != nil {
			return Default(), fmt.Errorf("разбор %s: %w", path, err)
		}
	}

	s.ApplyEnv(os.LookupEnv)
	return s, nil
}

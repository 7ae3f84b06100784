// Package validate проверяет синтаксис исходных файлов и обязательные поля
// сгенерированных конфигов. Ошибки и предупреждения собираются полностью,
// проверка не останавливается на первой проблеме.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/vovanwin/slicergen/internal/inifile"
	"github.com/vovanwin/slicergen/internal/model"
)

// SyntaxError файл не разбирается как INI/JSON
type SyntaxError struct {
	Path    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result итог проверки одного файла
type Result struct {
	Errors   []string
	Warnings []string
}

// Valid нет ошибок; предупреждения не мешают
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// In добавляет к сообщениям префикс с именем файла
func (r Result) In(name string) Result {
	out := Result{}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, name+": "+e)
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, name+": "+w)
	}
	return out
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Syntax проверяет, что данные разбираются в формате по расширению пути.
// Файлы с другим расширением не проверяются.
func Syntax(path string, data []byte) error {
	var err error
	switch model.FormatFromExt(path) {
	case model.FormatJSON:
		_, err = oj.Parse(data)
	case model.FormatINI:
		_, err = inifile.Parse(data)
	default:
		return nil
	}
	if err != nil {
		return &SyntaxError{Path: path, Message: err.Error()}
	}
	return nil
}

// File читает файл и проверяет синтаксис. Отсутствующий файл не ошибка.
func File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("чтение %s: %w", path, err)
	}
	return Syntax(path, data)
}

// requiredJSONFields обязательные массивы в JSON конфиге
var requiredJSONFields = []string{"compatible_printers", "filament_settings_id", "filament_type"}

// BambuConfig проверяет сгенерированный JSON конфиг
func BambuConfig(content []byte) Result {
	var r Result

	data, err := oj.Parse(content)
	if err != nil {
		r.errorf("некорректный JSON: %v", err)
		return r
	}
	if _, ok := data.(map[string]any); !ok {
		r.errorf("корень JSON должен быть объектом")
		return r
	}

	for _, field := range requiredJSONFields {
		found := jp.C(field).Get(data)
		if len(found) == 0 {
			r.errorf("отсутствует обязательное поле %s", field)
			continue
		}
		if _, ok := found[0].([]any); !ok {
			r.errorf("поле %s должно быть массивом", field)
		}
	}

	if printers, ok := firstArray(data, "compatible_printers"); ok && len(printers) != 1 {
		r.warnf("compatible_printers содержит %d записей, ожидалась одна", len(printers))
	}
	return r
}

func firstArray(data any, field string) ([]any, bool) {
	found := jp.C(field).Get(data)
	if len(found) == 0 {
		return nil, false
	}
	arr, ok := found[0].([]any)
	return arr, ok
}

// PrusaConfig проверяет сгенерированный INI конфиг
func PrusaConfig(content []byte) Result {
	var r Result

	cfg, err := inifile.Parse(content)
	if err != nil {
		r.errorf("некорректный INI: %v", err)
		return r
	}

	vendor, ok := cfg.Object("vendor")
	switch {
	case !ok:
		r.errorf("отсутствует секция [vendor]")
	case !vendor.Has("name"):
		r.errorf("в секции [vendor] нет поля name")
	}
	if ok && !vendor.Has("config_version") {
		r.warnf("в секции [vendor] нет поля config_version")
	}

	hasFilament := false
	for _, name := range cfg.Keys() {
		if strings.HasPrefix(name, "filament:") {
			hasFilament = true
			break
		}
	}
	if !hasFilament {
		r.warnf("нет ни одной секции [filament:*]")
	}
	return r
}

// Artifact проверяет артефакт по его формату
func Artifact(a model.Artifact) Result {
	switch a.Format {
	case model.FormatJSON:
		return BambuConfig(a.Content)
	case model.FormatINI:
		return PrusaConfig(a.Content)
	default:
		var r Result
		r.errorf("%s: неизвестный формат %s", a.Filename, a.Format)
		return r
	}
}

// Report сводка по всем материалам
type Report struct {
	Errors   []string
	Warnings []string
}

// Add добавляет результат с префиксом [material]
func (rep *Report) Add(material string, r Result) {
	for _, e := range r.Errors {
		rep.Errors = append(rep.Errors, fmt.Sprintf("[%s] %s", material, e))
	}
	for _, w := range r.Warnings {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("[%s] %s", material, w))
	}
}

// AddError добавляет ошибку материала
func (rep *Report) AddError(material string, err error) {
	rep.Errors = append(rep.Errors, fmt.Sprintf("[%s] %v", material, err))
}

// Valid нет ни одной ошибки
func (rep *Report) Valid() bool {
	return len(rep.Errors) == 0
}

// Package inifile читает и пишет INI конфиги в стиле PrusaSlicer.
//
// Конфиг представлен как document.Object: имя секции -> объект настроек.
// Порядок секций и ключей сохраняется.
package inifile

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/vovanwin/slicergen/internal/document"
)

// ArraySeparator разделитель элементов массива в значении
const ArraySeparator = "; "

var loadOptions = ini.LoadOptions{
	// ';' в значениях встречается постоянно (G-code, списки)
	IgnoreInlineComment: true,
	// строки G-code хранятся в кавычках, слайсеру они нужны как есть
	PreserveSurroundedQuote: true,
	IgnoreContinuation:      true,
	KeyValueDelimiters:      "=",
}

// Parse разбирает INI текст
func Parse(data []byte) (*document.Object, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}

	out := document.New()
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		settings := document.New()
		for _, key := range keys {
			settings.Set(key.Name(), key.Value())
		}
		out.Set(sec.Name(), settings)
	}
	return out, nil
}

// Serialize пишет секции в порядке вставки: заголовок, строки key = value, пустая строка
func Serialize(cfg *document.Object) ([]byte, error) {
	var b strings.Builder
	for _, name := range cfg.Keys() {
		sec, ok := cfg.Object(name)
		if !ok {
			v, _ := cfg.Get(name)
			return nil, fmt.Errorf("секция [%s]: ожидался объект, получено %s", name, document.TypeName(v))
		}

		fmt.Fprintf(&b, "[%s]\n", name)
		for _, key := range sec.Keys() {
			val, _ := sec.Get(key)
			s, err := FormatValue(val)
			if err != nil {
				return nil, fmt.Errorf("[%s] %s: %w", name, key, err)
			}
			fmt.Fprintf(&b, "%s = %s\n", key, s)
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// FormatValue превращает значение дерева в строку INI
func FormatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := FormatValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ArraySeparator), nil
	case *document.Object:
		b, err := document.MarshalCompact(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// Package detect определяет формат базового конфига.
package detect

import (
	"strings"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/model"
)

// jsonMarkers ключи верхнего уровня, которые бывают только у JSON конфигов
var jsonMarkers = []string{"compatible_printers", "filament_settings_id", "filament_type"}

// Detect возвращает формат конфига или model.FormatUnknown
func Detect(cfg any, path string) model.Format {
	f, _ := Classify(cfg, path)
	return f
}

// Classify как Detect, дополнительно сообщает, был ли формат определён
// по надёжному признаку (расширение или характерные ключи), а не по умолчанию.
func Classify(cfg any, path string) (format model.Format, strong bool) {
	if path != "" {
		// расширение решает, остальные проверки не нужны
		if f := model.FormatFromExt(path); f != model.FormatUnknown {
			return f, true
		}
	}
	return FromContent(cfg)
}

// FromContent эвристика по ключам верхнего уровня
func FromContent(cfg any) (model.Format, bool) {
	keys, ok := topLevelKeys(cfg)
	if !ok {
		return model.FormatUnknown, false
	}

	for _, k := range keys {
		if strings.Contains(k, "vendor") || strings.HasPrefix(k, "filament:") {
			return model.FormatINI, true
		}
	}

	for _, k := range keys {
		for _, marker := range jsonMarkers {
			if k == marker {
				return model.FormatJSON, true
			}
		}
	}

	// любой объект без признаков считаем JSON
	return model.FormatJSON, false
}

func topLevelKeys(cfg any) ([]string, bool) {
	switch t := cfg.(type) {
	case *document.Object:
		if t == nil {
			return nil, false
		}
		return t.Keys(), true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		return keys, true
	default:
		return nil, false
	}
}

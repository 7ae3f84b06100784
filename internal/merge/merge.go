// Package merge реализует глубокое слияние слоёв конфигурации.
package merge

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vovanwin/slicergen/internal/document"
)

// ArrayStrategy определяет, как объединяются массивы при слиянии
type ArrayStrategy int

const (
	// Replace массив источника целиком заменяет массив цели
	Replace ArrayStrategy = iota
	// Concat массив цели, затем массив источника
	Concat
	// Unique как Concat, но без повторов (остаётся первое вхождение)
	Unique
)

func (s ArrayStrategy) String() string {
	switch s {
	case Replace:
		return "replace"
	case Concat:
		return "merge"
	case Unique:
		return "unique"
	default:
		return "unknown"
	}
}

// ParseArrayStrategy разбирает имя стратегии. Пустая строка означает replace.
func ParseArrayStrategy(s string) (ArrayStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return Replace, nil
	case "merge", "concat":
		return Concat, nil
	case "unique":
		return Unique, nil
	default:
		return Replace, fmt.Errorf("неизвестная стратегия массивов %q (replace, merge, unique)", s)
	}
}

// DeepMerge возвращает новый объект: target, поверх которого наложен source.
// Аргументы не изменяются.
func DeepMerge(target, source *document.Object, strategy ArrayStrategy) *document.Object {
	out := target.Clone()
	if out == nil {
		out = document.New()
	}
	mergeInto(out, source, strategy)
	return out
}

// MergeAll копирует первый фрагмент как основу и накладывает на него остальные
// слева направо, как цепочка DeepMerge. nil фрагменты пропускаются.
func MergeAll(strategy ArrayStrategy, fragments ...*document.Object) *document.Object {
	var out *document.Object
	for _, f := range fragments {
		if f == nil {
			continue
		}
		if out == nil {
			out = f.Clone()
			continue
		}
		mergeInto(out, f, strategy)
	}
	if out == nil {
		out = document.New()
	}
	return out
}

func mergeInto(target, source *document.Object, strategy ArrayStrategy) {
	for _, key := range source.Keys() {
		val, _ := source.Get(key)
		if val == nil {
			continue
		}

		switch sv := val.(type) {
		case []any:
			existing, _ := target.Get(key)
			target.Set(key, mergeArrays(existing, sv, strategy))

		case *document.Object:
			if tv, ok := target.Object(key); ok {
				mergeInto(tv, sv, strategy)
				continue
			}
			target.Set(key, sv.Clone())

		default:
			target.Set(key, val)
		}
	}
}

func mergeArrays(existing any, source []any, strategy ArrayStrategy) []any {
	src := document.CloneValue(source).([]any)
	if strategy == Replace {
		return src
	}

	var out []any
	if tv, ok := existing.([]any); ok {
		out = append(out, document.CloneValue(tv).([]any)...)
	}
	out = append(out, src...)

	if strategy == Unique {
		out = dedupe(out)
	}
	if out == nil {
		out = []any{}
	}
	return out
}

func dedupe(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		seen := false
		for _, kept := range out {
			if reflect.DeepEqual(kept, item) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return out
}

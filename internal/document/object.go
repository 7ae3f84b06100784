// Package document хранит конфиги слайсеров как дерево с сохранённым порядком ключей.
//
// Значения в дереве: *Object, []any, string, json.Number, bool и nil.
// Порядок ключей сохраняется таким, каким он был в исходном файле или
// в каком ключи добавлялись, поэтому сериализация детерминирована.
package document

// Object упорядоченный набор ключ -> значение
type Object struct {
	keys   []string
	values map[string]any
}

// New создаёт пустой Object
func New() *Object {
	return &Object{values: make(map[string]any)}
}

// Len возвращает количество ключей
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys возвращает копию ключей в порядке вставки
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get возвращает значение по ключу
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has проверяет наличие ключа
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Object возвращает вложенный объект по ключу, если значение им является
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Object)
	return child, ok
}

// Set записывает значение. Новый ключ добавляется в конец,
// существующий сохраняет свою позицию.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete удаляет ключ
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clone делает глубокую копию
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]any, len(o.values)),
	}
	copy(out.keys, o.keys)
	for k, v := range o.values {
		out.values[k] = CloneValue(v)
	}
	return out
}

// CloneValue делает глубокую копию произвольного значения дерева
func CloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// FromPairs собирает Object из пар ключ/значение, удобно в тестах
func FromPairs(pairs ...any) *Object {
	o := New()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		o.Set(key, pairs[i+1])
	}
	return o
}

package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Indent отступ, которым пишутся JSON конфиги
const Indent = "    "

// Decode разбирает JSON с сохранением порядка ключей.
// Объекты становятся *Object, числа json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("лишние данные после JSON значения (offset %d)", dec.InputOffset())
	}
	return v, nil
}

// DecodeObject разбирает JSON, корнем которого должен быть объект
func DecodeObject(data []byte) (*Object, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("ожидался JSON объект, получено %s", TypeName(v))
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := New()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("ключ объекта должен быть строкой, получено %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("неожиданный разделитель %q", delim)
}

// Marshal пишет значение как JSON с отступом в 4 пробела
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, Indent, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalCompact пишет значение как JSON в одну строку
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, "", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON реализует json.Marshaler
func (o *Object) MarshalJSON() ([]byte, error) {
	return MarshalCompact(o)
}

func writeValue(buf *bytes.Buffer, v any, indent string, depth int) error {
	switch t := v.(type) {
	case *Object:
		if t.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			if err := writeLeaf(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			if err := writeValue(buf, t.values[k], indent, depth+1); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte('}')
		return nil

	case []any:
		if len(t) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			if err := writeValue(buf, item, indent, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte(']')
		return nil

	default:
		return writeLeaf(buf, v)
	}
}

// writeLeaf кодирует скалярное значение без HTML-экранирования:
// в G-code шаблонах слайсеров часто встречаются < и >.
func writeLeaf(buf *bytes.Buffer, v any) error {
	var leaf bytes.Buffer
	enc := json.NewEncoder(&leaf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(leaf.Bytes(), "\n"))
	return nil
}

func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

// TypeName человекочитаемое имя типа значения дерева
func TypeName(v any) string {
	switch v.(type) {
	case *Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64, int, int64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Package loader читает базовые конфиги и слои переопределений материала.
//
// Раскладка под корнем материалов:
//
//	{material}/{slicer}/base.ini | base.json
//	{material}/{slicer}/printers.json
//	{material}/{slicer}/nozzles.json
//	{material}/{slicer}/combinations/{printer}-{nozzle}.json
//
// Отсутствующий файл не ошибка, а пустой слой. Файл, который есть,
// но не читается или не разбирается, всегда ошибка.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/inifile"
	"github.com/vovanwin/slicergen/internal/model"
)

const (
	BaseINI         = "base.ini"
	BaseJSON        = "base.json"
	PrintersFile    = "printers.json"
	NozzlesFile     = "nozzles.json"
	CombinationsDir = "combinations"
)

// baseCandidates порядок поиска базового конфига
var baseCandidates = []string{BaseINI, BaseJSON}

// ErrNoBaseConfig у материала нет base.ini/base.json для слайсера
var ErrNoBaseConfig = errors.New("базовый конфиг не найден")

// Store доступ к корню материалов
type Store struct {
	root string
	fsys fs.FS
}

// NewStore хранилище поверх директории на диске
func NewStore(root string) *Store {
	return &Store{root: root, fsys: os.DirFS(root)}
}

// NewStoreFS хранилище поверх произвольной fs.FS (в тестах fstest.MapFS)
func NewStoreFS(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Root корневая директория, пусто для NewStoreFS
func (s *Store) Root() string {
	return s.root
}

// DisplayPath путь для сообщений об ошибках
func (s *Store) DisplayPath(name string) string {
	if s.root == "" {
		return name
	}
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Base базовый конфиг материала для одного слайсера
type Base struct {
	Path   string // Путь относительно корня
	Format model.Format
	Config *document.Object
	Found  bool
}

// Fragment один необязательный фрагмент переопределений
type Fragment struct {
	Path  string
	Value *document.Object
	Found bool
}

// Overrides файл переопределений: ключ измерения -> фрагмент
type Overrides struct {
	Path    string
	Entries *document.Object
	Found   bool
}

// Keys ключи в порядке файла
func (o Overrides) Keys() []string {
	return o.Entries.Keys()
}

// For фрагмент для ключа или nil
func (o Overrides) For(key string) *document.Object {
	frag, _ := o.Entries.Object(key)
	return frag
}

// Request координаты одного набора слоёв
type Request struct {
	Material string
	Slicer   string
	Printer  string
	Nozzle   string // "0.4mm"
}

// Layers все слои для Request
type Layers struct {
	Base        Base
	Printers    Overrides
	Nozzles     Overrides
	Combination Fragment
}

// Pair пара принтер/сопло для comb-файлов
type Pair struct {
	Printer string
	Nozzle  string // "0.4mm"
}

func (s *Store) dir(material, slicer string) string {
	return path.Join(material, slicer)
}

// readFile читает файл; отсутствие файла возвращает found=false без ошибки
func (s *Store) readFile(name string) (data []byte, found bool, err error) {
	data, err = fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("чтение %s: %w", s.DisplayPath(name), err)
	}
	return data, true, nil
}

// LoadBase ищет base.ini, затем base.json
func (s *Store) LoadBase(material, slicer string) (Base, error) {
	for _, candidate := range baseCandidates {
		name := path.Join(s.dir(material, slicer), candidate)
		data, found, err := s.readFile(name)
		if err != nil {
			return Base{}, err
		}
		if !found {
			continue
		}

		format := model.FormatFromExt(candidate)
		cfg, err := parse(format, data)
		if err != nil {
			return Base{}, fmt.Errorf("разбор %s: %w", s.DisplayPath(name), err)
		}
		return Base{Path: name, Format: format, Config: cfg, Found: true}, nil
	}
	return Base{}, nil
}

func parse(format model.Format, data []byte) (*document.Object, error) {
	switch format {
	case model.FormatINI:
		return inifile.Parse(data)
	case model.FormatJSON:
		return document.DecodeObject(data)
	default:
		return nil, fmt.Errorf("неизвестный формат %s", format)
	}
}

func (s *Store) loadObject(name string) (*document.Object, bool, error) {
	data, found, err := s.readFile(name)
	if err != nil || !found {
		return nil, found, err
	}
	obj, err := document.DecodeObject(data)
	if err != nil {
		return nil, true, fmt.Errorf("разбор %s: %w", s.DisplayPath(name), err)
	}
	return obj, true, nil
}

func (s *Store) loadOverrides(name string) (Overrides, error) {
	obj, found, err := s.loadObject(name)
	if err != nil {
		return Overrides{}, err
	}
	for _, key := range obj.Keys() {
		if v, _ := obj.Get(key); v == nil {
			// null: переопределения нет
			obj.Delete(key)
			continue
		}
		if _, ok := obj.Object(key); !ok {
			v, _ := obj.Get(key)
			return Overrides{}, fmt.Errorf("%s: запись %q должна быть объектом, получено %s",
				s.DisplayPath(name), key, document.TypeName(v))
		}
	}
	return Overrides{Path: name, Entries: obj, Found: found}, nil
}

// LoadPrinterOverrides printers.json
func (s *Store) LoadPrinterOverrides(material, slicer string) (Overrides, error) {
	return s.loadOverrides(path.Join(s.dir(material, slicer), PrintersFile))
}

// LoadNozzleOverrides nozzles.json
func (s *Store) LoadNozzleOverrides(material, slicer string) (Overrides, error) {
	return s.loadOverrides(path.Join(s.dir(material, slicer), NozzlesFile))
}

// CombinationPath combinations/{printer}-{nozzle}.json
func CombinationPath(material, slicer, printer, nozzle string) string {
	return path.Join(material, slicer, CombinationsDir, fmt.Sprintf("%s-%s.json", printer, model.NozzleKey(nozzle)))
}

// LoadCombination переопределение для одной пары принтер/сопло
func (s *Store) LoadCombination(material, slicer, printer, nozzle string) (Fragment, error) {
	name := CombinationPath(material, slicer, printer, nozzle)
	obj, found, err := s.loadObject(name)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Path: name, Value: obj, Found: found}, nil
}

// LoadOverrides читает printers.json и nozzles.json параллельно
func (s *Store) LoadOverrides(ctx context.Context, material, slicer string) (printers, nozzles Overrides, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		printers, err = s.LoadPrinterOverrides(material, slicer)
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		nozzles, err = s.LoadNozzleOverrides(material, slicer)
		return err
	})

	if err := g.Wait(); err != nil {
		return Overrides{}, Overrides{}, err
	}
	return printers, nozzles, nil
}

// Load читает базу, затем слои переопределений
func (s *Store) Load(ctx context.Context, req Request) (*Layers, error) {
	base, err := s.LoadBase(req.Material, req.Slicer)
	if err != nil {
		return nil, err
	}

	layers, err := s.LoadOverlays(ctx, req)
	if err != nil {
		return nil, err
	}
	layers.Base = base
	return layers, nil
}

// LoadOverlays параллельно читает переопределения принтера, сопла и комбинации.
// База не читается, Layers.Base остаётся пустым.
func (s *Store) LoadOverlays(ctx context.Context, req Request) (*Layers, error) {
	layers := &Layers{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		layers.Printers, layers.Nozzles, err = s.LoadOverrides(gctx, req.Material, req.Slicer)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		layers.Combination, err = s.LoadCombination(req.Material, req.Slicer, req.Printer, req.Nozzle)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

// LoadCombinations читает comb-файлы для всех пар параллельно, результат в порядке pairs
func (s *Store) LoadCombinations(ctx context.Context, material, slicer string, pairs []Pair) ([]Fragment, error) {
	out := make([]Fragment, len(pairs))
	g, ctx := errgroup.WithContext(ctx)

	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frag, err := s.LoadCombination(material, slicer, p.Printer, p.Nozzle)
			if err != nil {
				return err
			}
			out[i] = frag
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Materials директории материалов под корнем
func (s *Store) Materials() ([]string, error) {
	return s.listDirs(".")
}

// Slicers директории слайсеров материала
func (s *Store) Slicers(material string) ([]string, error) {
	return s.listDirs(material)
}

func (s *Store) listDirs(name string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("чтение директории %s: %w", s.DisplayPath(name), err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Source исходный файл материала для проверки синтаксиса
type Source struct {
	Path   string // Путь для сообщений
	Format model.Format
	Data   []byte
}

// Sources все существующие исходные файлы материала/слайсера
func (s *Store) Sources(material, slicer string) ([]Source, error) {
	dir := s.dir(material, slicer)
	names := []string{
		path.Join(dir, BaseINI),
		path.Join(dir, BaseJSON),
		path.Join(dir, PrintersFile),
		path.Join(dir, NozzlesFile),
	}

	combos, err := fs.Glob(s.fsys, path.Join(dir, CombinationsDir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(combos)
	names = append(names, combos...)

	var out []Source
	for _, name := range names {
		data, found, err := s.readFile(name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out = append(out, Source{Path: s.DisplayPath(name), Format: model.FormatFromExt(name), Data: data})
	}
	return out, nil
}

// Package generator запускает генерацию конфигов для всех материалов:
// обход материалов и слайсеров, фильтры, dry-run, сохранение, проверка,
// упаковка релиза и заготовка нового материала.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	gen "github.com/vovanwin/slicergen/internal/generator"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/merge"
	"github.com/vovanwin/slicergen/internal/model"
	"github.com/vovanwin/slicergen/internal/printers"
	"github.com/vovanwin/slicergen/internal/version"
)

// Options настройки запуска
type Options struct {
	MaterialsDir string // Корень материалов (default: ./materials)
	OutputDir    string // Куда писать конфиги (default: ./dist/configs)
	PrintersFile string // Таблица принтеров (default: ./printers.json)
	ReleaseDir   string // Архивы и manifest.json (default: ./dist/release)
	Version      string // Пусто: git тег или dev

	Materials []string // Только эти материалы
	Slicers   []string // Только эти слайсеры
	Printer   string   // Оставить артефакты одного принтера
	Nozzle    string   // Оставить артефакты одного сопла

	DryRun        bool
	ArrayStrategy merge.ArrayStrategy
	Logger        *zap.Logger

	// Store и Printers подменяют чтение с диска
	Store    *loader.Store
	Printers *printers.Table
}

// DefaultOptions настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		MaterialsDir: "./materials",
		OutputDir:    "./dist/configs",
		PrintersFile: "./printers.json",
		ReleaseDir:   "./dist/release",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaterialsDir == "" {
		o.MaterialsDir = def.MaterialsDir
	}
	if o.OutputDir == "" {
		o.OutputDir = def.OutputDir
	}
	if o.PrintersFile == "" {
		o.PrintersFile = def.PrintersFile
	}
	if o.ReleaseDir == "" {
		o.ReleaseDir = def.ReleaseDir
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result итог Generate
type Result struct {
	Artifacts []model.Artifact
	Paths     []string // Записанные пути, в dry-run только планируемые
}

// SaveOptions настройки SaveConfig
type SaveOptions struct {
	DryRun bool
}

// SaveConfig пишет артефакт в {outputDir}/{slicer}/{filename} и возвращает путь.
// В dry-run ничего не пишет.
func SaveConfig(a model.Artifact, outputDir string, opts SaveOptions) (string, error) {
	path := filepath.Join(outputDir, a.Slicer, a.Filename)
	if opts.DryRun {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("создание директории %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("запись %s: %w", path, err)
	}
	return path, nil
}

// Generate генерирует и сохраняет конфиги. В dry-run ошибки материалов
// собираются и обход продолжается, иначе первая ошибка прерывает запуск.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	r, err := newRun(ctx, opts)
	if err != nil {
		return nil, err
	}

	artifacts, genErr := r.collect(ctx)
	if genErr != nil && !r.opts.DryRun {
		return nil, genErr
	}

	res := &Result{Artifacts: artifacts}
	for _, a := range artifacts {
		path, err := SaveConfig(a, r.opts.OutputDir, SaveOptions{DryRun: r.opts.DryRun})
		if err != nil {
			return nil, err
		}
		if r.opts.DryRun {
			r.log.Info("dry-run, не записан", zap.String("path", path))
		} else {
			r.log.Debug("записан", zap.String("path", path))
		}
		res.Paths = append(res.Paths, path)
	}
	return res, genErr
}

// run состояние одного запуска
type run struct {
	opts   Options
	log    *zap.Logger
	store  *loader.Store
	table  *printers.Table
	engine *gen.Engine
}

func newRun(ctx context.Context, opts Options) (*run, error) {
	opts = opts.withDefaults()
	opts.Version = version.Resolve(ctx, opts.Version, ".")

	store := opts.Store
	if store == nil {
		store = loader.NewStore(opts.MaterialsDir)
	}

	table := opts.Printers
	if table == nil {
		var err error
		table, err = loadTable(opts.PrintersFile, opts.Logger)
		if err != nil {
			return nil, err
		}
	}

	return &run{
		opts:  opts,
		log:   opts.Logger.With(zap.String("version", opts.Version)),
		store: store,
		table: table,
		engine: gen.New(gen.Options{
			Store:    store,
			Printers: table,
			Strategy: opts.ArrayStrategy,
			Logger:   opts.Logger,
		}),
	}, nil
}

// loadTable без файла таблицы JSON конфиги не генерируются, это не ошибка
func loadTable(path string, log *zap.Logger) (*printers.Table, error) {
	table, err := printers.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("таблица принтеров не найдена, JSON конфиги не будут созданы", zap.String("path", path))
		return &printers.Table{}, nil
	}
	return table, err
}

// target пара материал/слайсер
type target struct {
	material string
	slicer   string
}

// targets обход с учётом фильтров Materials и Slicers
func (r *run) targets() ([]target, error) {
	materials := r.opts.Materials
	if len(materials) == 0 {
		var err error
		materials, err = r.store.Materials()
		if err != nil {
			return nil, err
		}
	}

	var out []target
	for _, m := range materials {
		slicers := r.opts.Slicers
		if len(slicers) == 0 {
			var err error
			slicers, err = r.store.Slicers(m)
			if err != nil {
				return nil, err
			}
		}
		for _, s := range slicers {
			out = append(out, target{material: m, slicer: s})
		}
	}
	return out, nil
}

// generate артефакты одной пары после фильтров. Без базового конфига пусто.
func (r *run) generate(ctx context.Context, t target) ([]model.Artifact, error) {
	log := r.log.With(zap.String("material", t.material), zap.String("slicer", t.slicer))

	arts, err := r.engine.GenerateAllConfigs(ctx, t.material, t.slicer, r.opts.Version)
	if errors.Is(err, loader.ErrNoBaseConfig) {
		log.Info("нет базового конфига, пропуск")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	filtered := filterArtifacts(arts, r.opts.Printer, r.opts.Nozzle)
	log.Debug("сгенерировано", zap.Int("artifacts", len(filtered)), zap.Int("filtered_out", len(arts)-len(filtered)))
	return filtered, nil
}

// collect артефакты всех пар
func (r *run) collect(ctx context.Context) ([]model.Artifact, error) {
	targets, err := r.targets()
	if err != nil {
		return nil, err
	}

	var (
		out  []model.Artifact
		errs error
	)
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		arts, err := r.generate(ctx, t)
		if err != nil {
			if !r.opts.DryRun {
				return nil, err
			}
			r.log.Error("ошибка генерации", zap.String("material", t.material), zap.String("slicer", t.slicer), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, arts...)
	}
	return out, errs
}

// filterArtifacts фильтр по принтеру и соплу. Артефакты без принтера/сопла
// (INI) проходят всегда.
func filterArtifacts(arts []model.Artifact, printer, nozzle string) []model.Artifact {
	if printer == "" && nozzle == "" {
		return arts
	}
	var out []model.Artifact
	for _, a := range arts {
		if printer != "" && a.Printer != "" && !strings.EqualFold(a.Printer, printer) {
			continue
		}
		if nozzle != "" && a.Nozzle != "" && a.Nozzle != model.NozzleKey(nozzle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

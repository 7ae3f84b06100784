// Package generator собирает конфиги слайсеров из базового конфига и слоёв
// переопределений. Для каждого формата свой Generator: INI (PrusaSlicer) даёт
// один файл на материал, JSON (Bambu Studio, Orca) по файлу на принтер и сопло.
package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/internal/detect"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/merge"
	"github.com/vovanwin/slicergen/internal/model"
	"github.com/vovanwin/slicergen/internal/printers"
)

// ErrUnresolvableFormat формат базового конфига не определён
var ErrUnresolvableFormat = errors.New("не удалось определить формат конфига")

// Options зависимости генераторов
type Options struct {
	Store    *loader.Store       // Корень материалов
	Printers *printers.Table     // Таблица возможностей принтеров
	Strategy merge.ArrayStrategy // Слияние массивов для JSON (по умолчанию replace)
	Logger   *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Request одна генерация: материал, слайсер, версия и загруженная база
type Request struct {
	Material string
	Slicer   string
	Version  string
	Base     loader.Base
}

// Generator генерирует артефакты одного формата
type Generator interface {
	Format() model.Format
	Generate(ctx context.Context, req Request) ([]model.Artifact, error)
}

// For выбирает генератор под формат
func For(format model.Format, opts Options) (Generator, error) {
	switch format {
	case model.FormatINI:
		return &INIGenerator{opts: opts}, nil
	case model.FormatJSON:
		return &JSONGenerator{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableFormat, format)
	}
}

// Engine загружает базу, определяет формат и вызывает нужный генератор
type Engine struct {
	opts Options
}

// New создаёт Engine
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// GenerateAllConfigs все артефакты материала для слайсера.
// Базовый конфиг читается заново на каждый вызов.
func (e *Engine) GenerateAllConfigs(ctx context.Context, material, slicer, version string) ([]model.Artifact, error) {
	log := e.opts.logger().With(zap.String("material", material), zap.String("slicer", slicer))

	base, err := e.opts.Store.LoadBase(material, slicer)
	if err != nil {
		return nil, err
	}
	if !base.Found {
		return nil, fmt.Errorf("%s/%s: %w", material, slicer, loader.ErrNoBaseConfig)
	}

	format, strong := detect.Classify(base.Config, base.Path)
	if format == model.FormatUnknown {
		return nil, fmt.Errorf("%s: %w", e.opts.Store.DisplayPath(base.Path), ErrUnresolvableFormat)
	}
	if !strong {
		log.Warn("формат определён по умолчанию", zap.String("format", format.String()), zap.String("path", base.Path))
	}

	g, err := For(format, e.opts)
	if err != nil {
		return nil, err
	}

	log.Debug("генерация", zap.String("format", format.String()))
	return g.Generate(ctx, Request{Material: material, Slicer: slicer, Version: version, Base: base})
}

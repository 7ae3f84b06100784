package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/inifile"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/model"
)

// INIGenerator конфиги PrusaSlicer: один файл на материал, переопределения
// применяются к секциям, имя которых совпадает с принтером/соплом.
type INIGenerator struct {
	opts Options
}

func (g *INIGenerator) Format() model.Format { return model.FormatINI }

func (g *INIGenerator) Generate(ctx context.Context, req Request) ([]model.Artifact, error) {
	if !req.Base.Found || req.Base.Config == nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Material, req.Slicer, loader.ErrNoBaseConfig)
	}
	log := g.opts.logger().With(zap.String("material", req.Material), zap.String("slicer", req.Slicer))
	store := g.opts.Store

	cfg := req.Base.Config.Clone()

	printerOv, nozzleOv, err := store.LoadOverrides(ctx, req.Material, req.Slicer)
	if err != nil {
		return nil, err
	}

	for _, p := range printerOv.Keys() {
		p := p
		n := applyToSections(cfg, printerOv.For(p), func(section string) bool {
			return MatchesPrinter(section, p)
		})
		log.Debug("переопределение принтера", zap.String("printer", p), zap.Int("sections", n))
	}

	for _, nz := range nozzleOv.Keys() {
		nz := nz
		n := applyToSections(cfg, nozzleOv.For(nz), func(section string) bool {
			return MatchesNozzle(section, nz)
		})
		log.Debug("переопределение сопла", zap.String("nozzle", nz), zap.Int("sections", n))
	}

	pairs := g.pairs(req.Slicer, printerOv, nozzleOv)
	combos, err := store.LoadCombinations(ctx, req.Material, req.Slicer, pairs)
	if err != nil {
		return nil, err
	}
	for i, c := range combos {
		if !c.Found {
			continue
		}
		p := pairs[i]
		n := applyToSections(cfg, c.Value, func(section string) bool {
			return MatchesCombination(section, p.Printer, p.Nozzle)
		})
		log.Debug("переопределение комбинации",
			zap.String("printer", p.Printer), zap.String("nozzle", p.Nozzle), zap.Int("sections", n))
	}

	if vendor, ok := cfg.Object(vendorSection); ok && vendor.Has("config_version") {
		vendor.Set("config_version", req.Version)
	}

	content, err := inifile.Serialize(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Material, req.Slicer, err)
	}

	return []model.Artifact{{
		Filename: model.INIFilename(req.Material, req.Version),
		Content:  content,
		Material: req.Material,
		Slicer:   req.Slicer,
		Format:   model.FormatINI,
	}}, nil
}

// pairs пары принтер/сопло для comb-файлов: из таблицы принтеров,
// а без неё все сочетания ключей printers.json и nozzles.json.
func (g *INIGenerator) pairs(slicer string, printerOv, nozzleOv loader.Overrides) []loader.Pair {
	var out []loader.Pair
	for _, p := range g.opts.Printers.Supporting(slicer) {
		for _, n := range p.Nozzles {
			out = append(out, loader.Pair{Printer: p.Name, Nozzle: model.NozzleKey(n)})
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, p := range printerOv.Keys() {
		for _, n := range nozzleOv.Keys() {
			out = append(out, loader.Pair{Printer: p, Nozzle: model.NozzleKey(n)})
		}
	}
	return out
}

// applyToSections поверхностно присваивает ключи фрагмента каждой подходящей секции.
// Возвращает число затронутых секций.
func applyToSections(cfg, fragment *document.Object, match func(section string) bool) int {
	if fragment == nil {
		return 0
	}
	n := 0
	for _, name := range cfg.Keys() {
		if name == vendorSection || !match(name) {
			continue
		}
		sec, ok := cfg.Object(name)
		if !ok {
			continue
		}
		for _, key := range fragment.Keys() {
			v, _ := fragment.Get(key)
			if v == nil {
				continue
			}
			sec.Set(key, document.CloneValue(v))
		}
		n++
	}
	return n
}

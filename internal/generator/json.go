package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/internal/document"
	"github.com/vovanwin/slicergen/internal/loader"
	"github.com/vovanwin/slicergen/internal/merge"
	"github.com/vovanwin/slicergen/internal/model"
)

const (
	compatiblePrintersKey = "compatible_printers"
	versionKey            = "version"
)

// JSONGenerator конфиги Bambu Studio: по одному файлу на каждый
// совместимый принтер+сопло, даже если содержимое совпадает.
type JSONGenerator struct {
	opts Options
}

func (g *JSONGenerator) Format() model.Format { return model.FormatJSON }

// Generate без базового конфига возвращает пустой список: материал пропускается.
func (g *JSONGenerator) Generate(ctx context.Context, req Request) ([]model.Artifact, error) {
	log := g.opts.logger().With(zap.String("material", req.Material), zap.String("slicer", req.Slicer))

	if !req.Base.Found || req.Base.Config == nil {
		log.Debug("нет base.json, пропуск")
		return nil, nil
	}

	ids := g.opts.Printers.Identifiers(req.Slicer)
	if len(ids) == 0 {
		log.Warn("нет совместимых принтеров")
	}

	out := make([]model.Artifact, 0, len(ids))
	for _, id := range ids {
		a, err := g.generateOne(ctx, req, id)
		if err != nil {
			return nil, fmt.Errorf("%s/%s %q: %w", req.Material, req.Slicer, id, err)
		}
		log.Debug("сгенерирован", zap.String("printer", a.Printer), zap.String("nozzle", a.Nozzle), zap.String("file", a.Filename))
		out = append(out, a)
	}
	return out, nil
}

func (g *JSONGenerator) generateOne(ctx context.Context, req Request, id string) (model.Artifact, error) {
	printer, size, err := model.ParseIdentifier(id)
	if err != nil {
		return model.Artifact{}, err
	}
	nozzle := model.NozzleKey(size)

	layers, err := g.opts.Store.LoadOverlays(ctx, loader.Request{
		Material: req.Material,
		Slicer:   req.Slicer,
		Printer:  printer,
		Nozzle:   nozzle,
	})
	if err != nil {
		return model.Artifact{}, err
	}

	nozzleFrag := layers.Nozzles.For(nozzle)
	if nozzleFrag == nil {
		nozzleFrag = layers.Nozzles.For(size)
	}

	resolved := req.Base.Config.Clone()
	for _, frag := range []*document.Object{layers.Printers.For(printer), nozzleFrag, layers.Combination.Value} {
		if frag == nil {
			continue
		}
		resolved = merge.DeepMerge(resolved, frag, g.opts.Strategy)
	}

	resolved.Set(compatiblePrintersKey, []any{id})
	if req.Base.Config.Has(versionKey) {
		resolved.Set(versionKey, req.Version)
	}

	content, err := document.Marshal(resolved)
	if err != nil {
		return model.Artifact{}, err
	}

	return model.Artifact{
		Filename: model.JSONFilename(req.Material, printer, size, req.Version),
		Content:  content,
		Material: req.Material,
		Slicer:   req.Slicer,
		Format:   model.FormatJSON,
		Printer:  printer,
		Nozzle:   nozzle,
	}, nil
}

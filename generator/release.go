package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/internal/release"
)

// Release генерирует конфиги в память, раскладывает по принтерам и пишет
// архивы и manifest.json. В dry-run возвращает манифест без записи.
func Release(ctx context.Context, opts Options) (*release.Manifest, error) {
	r, err := newRun(ctx, opts)
	if err != nil {
		return nil, err
	}

	artifacts, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}

	bundles := release.Group(r.table, artifacts)
	if r.opts.DryRun {
		manifest := release.Plan(r.opts.Version, bundles)
		for _, a := range manifest.Archives {
			r.log.Info("dry-run, архив не записан", zap.String("file", a.File), zap.Int("configs", len(a.Configs)))
		}
		return manifest, nil
	}

	manifest, err := release.Write(r.opts.ReleaseDir, r.opts.Version, bundles)
	if err != nil {
		return nil, err
	}
	for _, a := range manifest.Archives {
		r.log.Info("архив", zap.String("printer", a.Printer), zap.String("file", a.File), zap.Int("configs", len(a.Configs)))
	}
	return manifest, nil
}

package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/internal/validate"
)

// Validate проверяет синтаксис исходных файлов и обязательные поля
// сгенерированных конфигов всех материалов. Проблемы собираются в отчёт,
// ошибка возвращается, только если обход невозможен.
func Validate(ctx context.Context, opts Options) (*validate.Report, error) {
	r, err := newRun(ctx, opts)
	if err != nil {
		return nil, err
	}
	targets, err := r.targets()
	if err != nil {
		return nil, err
	}

	rep := &validate.Report{}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.validateTarget(ctx, t, rep)
	}

	for _, w := range rep.Warnings {
		r.log.Warn(w)
	}
	return rep, nil
}

func (r *run) validateTarget(ctx context.Context, t target, rep *validate.Report) {
	sources, err := r.store.Sources(t.material, t.slicer)
	if err != nil {
		rep.AddError(t.material, err)
		return
	}

	syntaxOK := true
	for _, src := range sources {
		if err := validate.Syntax(src.Path, src.Data); err != nil {
			rep.AddError(t.material, err)
			syntaxOK = false
		}
	}
	if !syntaxOK {
		return
	}

	arts, err := r.generate(ctx, t)
	if err != nil {
		rep.AddError(t.material, err)
		return
	}
	for _, a := range arts {
		res := validate.Artifact(a)
		r.log.Debug("проверен", zap.String("file", a.Filename), zap.Bool("valid", res.Valid()))
		rep.Add(t.material, res.In(a.Filename))
	}
}

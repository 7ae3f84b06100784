package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovanwin/slicergen/generator"
	"github.com/vovanwin/slicergen/internal/model"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Сгенерировать конфиги всех материалов",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(opts.Logger)

			res, genErr := generator.Generate(cmd.Context(), opts)
			if res != nil {
				for _, p := range res.Paths {
					printf(cmd, "  ✓ %s\n", p)
				}
				if opts.DryRun {
					printf(cmd, "\nDry-run: %d файлов не записано\n", len(res.Paths))
				} else {
					printf(cmd, "\n✓ Сгенерировано: %d\n", len(res.Paths))
				}
			}
			return genErr
		},
	}

	cmd.Flags().StringVarP(&a.outputDir, "output", "o", "", "директория для конфигов")
	cmd.Flags().StringVar(&a.printer, "printer", "", "только этот принтер")
	cmd.Flags().StringVar(&a.nozzle, "nozzle", "", "только это сопло, например 0.4")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "ничего не записывать, продолжать после ошибок")
	a.addSelectionFlags(cmd)
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Проверить исходные файлы и сгенерированные конфиги",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(opts.Logger)

			rep, err := generator.Validate(cmd.Context(), opts)
			if err != nil {
				return err
			}

			for _, w := range rep.Warnings {
				printf(cmd, "  ! %s\n", w)
			}
			for _, e := range rep.Errors {
				printf(cmd, "  ✗ %s\n", e)
			}
			if !rep.Valid() {
				return fmt.Errorf("проверка не пройдена: ошибок %d", len(rep.Errors))
			}
			printf(cmd, "✓ Ошибок нет, предупреждений %d\n", len(rep.Warnings))
			return nil
		},
	}
	a.addSelectionFlags(cmd)
	return cmd
}

func newReleaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Собрать архивы по принтерам и manifest.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(opts.Logger)

			manifest, err := generator.Release(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, ar := range manifest.Archives {
				printf(cmd, "  ✓ %s (%d)\n", ar.File, len(ar.Configs))
			}
			printf(cmd, "\nВерсия %s, архивов %d\n", manifest.Version, len(manifest.Archives))
			return nil
		},
	}

	cmd.Flags().StringVarP(&a.releaseDir, "release-dir", "o", "", "директория для архивов")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "только показать архивы")
	a.addSelectionFlags(cmd)
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "init <material> <slicer>",
		Short: "Создать заготовку материала для слайсера",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(opts.Logger)

			f, err := parseFormat(format)
			if err != nil {
				return err
			}

			res, err := generator.Init(opts.MaterialsDir, args[0], args[1], f)
			if err != nil {
				return err
			}
			for _, p := range res.Skipped {
				printf(cmd, "  skip: %s (already exists)\n", p)
			}
			for _, p := range res.Created {
				printf(cmd, "  created: %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "формат базового конфига: ini или json")
	return cmd
}

func parseFormat(s string) (model.Format, error) {
	switch strings.ToLower(s) {
	case "ini":
		return model.FormatINI, nil
	case "json":
		return model.FormatJSON, nil
	default:
		return model.FormatUnknown, fmt.Errorf("неизвестный формат %q, ожидался ini или json", s)
	}
}

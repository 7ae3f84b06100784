package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vovanwin/slicergen/generator"
	"github.com/vovanwin/slicergen/internal/logging"
	"github.com/vovanwin/slicergen/internal/merge"
	"github.com/vovanwin/slicergen/internal/settings"
)

// app значения флагов всех команд
type app struct {
	configFile   string
	verbose      bool
	materialsDir string
	printersFile string
	version      string

	outputDir     string
	releaseDir    string
	arrayStrategy string
	materials     []string
	slicers       []string
	printer       string
	nozzle        string
	dryRun        bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "slicergen",
		Short: "Генератор конфигов материалов для слайсеров",
		Long: `slicergen собирает конфиги PrusaSlicer (INI) и Bambu Studio/Orca (JSON)
из базового конфига материала и переопределений для принтеров, сопел
и их сочетаний, проверяет их и упаковывает в архивы по принтерам.`,
		SilenceUsage: true,
		Version:      buildVersion,
	}
	cmd.SetVersionTemplate(`{{printf "slicergen version %s\n" .Version}}`)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", settings.DefaultFile, "файл настроек")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "подробный вывод")
	pf.StringVar(&a.materialsDir, "materials", "", "корень материалов")
	pf.StringVar(&a.printersFile, "printers", "", "таблица принтеров (.json, .yaml, .toml)")
	pf.StringVar(&a.version, "release-version", "", "версия конфигов (по умолчанию последний git тег)")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newReleaseCmd(a))
	cmd.AddCommand(newInitCmd(a))
	return cmd
}

// addSelectionFlags фильтры материалов и слайсеров
func (a *app) addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&a.materials, "material", "m", nil, "только эти материалы")
	cmd.Flags().StringSliceVarP(&a.slicers, "slicer", "s", nil, "только эти слайсеры")
	cmd.Flags().StringVar(&a.arrayStrategy, "array-strategy", "", "слияние массивов: replace, merge, unique")
}

// options настройки из файла, поверх них явно заданные флаги
func (a *app) options(cmd *cobra.Command) (generator.Options, error) {
	s, err := settings.Load(a.configFile)
	if err != nil {
		return generator.Options{}, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("materials", &s.MaterialsDir, a.materialsDir)
	override("printers", &s.PrintersFile, a.printersFile)
	override("output", &s.OutputDir, a.outputDir)
	override("release-dir", &s.ReleaseDir, a.releaseDir)
	override("array-strategy", &s.ArrayStrategy, a.arrayStrategy)

	strategy, err := merge.ParseArrayStrategy(s.ArrayStrategy)
	if err != nil {
		return generator.Options{}, err
	}

	logger, err := logging.New(s.LogLevel, a.verbose)
	if err != nil {
		return generator.Options{}, err
	}
	logger.Debug("настройки",
		zap.String("config", a.configFile),
		zap.String("materials", s.MaterialsDir),
		zap.String("printers", s.PrintersFile),
		zap.String("array_strategy", strategy.String()))

	return generator.Options{
		MaterialsDir:  s.MaterialsDir,
		OutputDir:     s.OutputDir,
		PrintersFile:  s.PrintersFile,
		ReleaseDir:    s.ReleaseDir,
		Version:       a.version,
		Materials:     a.materials,
		Slicers:       a.slicers,
		Printer:       a.printer,
		Nozzle:        a.nozzle,
		DryRun:        a.dryRun,
		ArrayStrategy: strategy,
		Logger:        logger,
	}, nil
}

func syncLogger(logger *zap.Logger) {
	// stderr не поддерживает fsync на части платформ
	_ = logger.Sync()
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

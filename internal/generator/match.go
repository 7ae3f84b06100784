package generator

import (
	"strings"

	"github.com/vovanwin/slicergen/internal/model"
)

const (
	// vendorSection секция с метаданными бандла, переопределения её не трогают
	vendorSection = "vendor"
	// printSectionPrefix переопределения принтера касаются только настроек печати
	printSectionPrefix = "print:"
)

// SectionMatches содержит ли имя секции токен.
// Секции в INI кодируют принтер и сопло шаблоном: [print:*MK4*0.4nozzle*].
func SectionMatches(section, token string) bool {
	return token != "" && strings.Contains(section, token)
}

// MatchesPrinter секция печати [print:*...] относится к принтеру
func MatchesPrinter(section, printer string) bool {
	return strings.HasPrefix(section, printSectionPrefix) && SectionMatches(section, printer)
}

// MatchesNozzle секция относится к соплу: содержит "0.4nozzle" или сам ключ сопла
func MatchesNozzle(section, nozzle string) bool {
	size := model.NozzleSize(nozzle)
	if size == "" {
		return false
	}
	return SectionMatches(section, size+"nozzle") || SectionMatches(section, nozzle)
}

// MatchesCombination секция относится одновременно к принтеру и соплу
func MatchesCombination(section, printer, nozzle string) bool {
	return SectionMatches(section, printer) && MatchesNozzle(section, nozzle)
}

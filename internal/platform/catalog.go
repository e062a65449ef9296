package platform

import (
	"github.com/fenilsonani/cachescope/internal/scanner"
)

// Catalog returns the known cache locations for info's platform. Entries
// whose directories do not exist are kept; the scan reports them absent.
func Catalog(info *Info) []scanner.Location {
	if info == nil {
		return nil
	}
	switch info.OS {
	case MacOS:
		return macOSCatalog(info)
	case Linux:
		return linuxCatalog(info)
	case Windows:
		return windowsCatalog(info)
	default:
		return nil
	}
}

// ByCategory returns the locations in category c
func ByCategory(locs []scanner.Location, c scanner.Category) []scanner.Location {
	var out []scanner.Location
	for _, l := range locs {
		if l.Category == c {
			out = append(out, l)
		}
	}
	return out
}

// ByMaxRisk returns the locations whose risk does not exceed max
func ByMaxRisk(locs []scanner.Location, max scanner.RiskLevel) []scanner.Location {
	var out []scanner.Location
	for _, l := range locs {
		if l.Risk().AtMost(max) {
			out = append(out, l)
		}
	}
	return out
}

type locOpt func(*scanner.Location)

func risk(r scanner.RiskLevel) locOpt {
	return func(l *scanner.Location) { l.RiskLevel = r }
}

// whole removes the location itself instead of emptying it
func whole() locOpt {
	return func(l *scanner.Location) { l.ContentsOnly = false }
}

func admin() locOpt {
	return func(l *scanner.Location) { l.RequiresAdmin = true }
}

func app(name string) locOpt {
	return func(l *scanner.Location) { l.AppName = name }
}

// loc builds a safe, contents-only entry
func loc(path, name string, c scanner.Category, desc string, opts ...locOpt) scanner.Location {
	l := scanner.Location{
		Path:         path,
		Name:         name,
		Category:     c,
		RiskLevel:    scanner.RiskSafe,
		Description:  desc,
		ContentsOnly: true,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

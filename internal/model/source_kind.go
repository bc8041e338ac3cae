package model

import "fmt"

// SourceKind identifies one of the supported exam report variants.
type SourceKind string

const (
	KindStandard         SourceKind = "standard"
	KindNonStandard      SourceKind = "non_standard"
	KindRetroStandard    SourceKind = "retro_standard"
	KindRetroNonStandard SourceKind = "retro_non_standard"
	KindOncoStandard     SourceKind = "onco_standard"
)

// AllSourceKinds lists the supported report variants in canonical order.
var AllSourceKinds = []SourceKind{
	KindStandard,
	KindNonStandard,
	KindRetroStandard,
	KindRetroNonStandard,
	KindOncoStandard,
}

// ParseSourceKind validates a kind name from flags or config.
func ParseSourceKind(s string) (SourceKind, error) {
	for _, k := range AllSourceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// Retroactive reports exams belonging to a period prior to the current
// billing cycle and is subject to the performed-date cutoff filter.
func (k SourceKind) Retroactive() bool {
	return k == KindRetroStandard || k == KindRetroNonStandard
}

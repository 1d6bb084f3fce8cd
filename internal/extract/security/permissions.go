package security

import "strings"

// Permissions is the decoded P entry of the encryption dictionary.
type Permissions struct {
	Print            bool `json:"print"`              // bit 3
	Modify           bool `json:"modify"`             // bit 4
	Copy             bool `json:"copy"`               // bit 5
	Annotate         bool `json:"annotate"`           // bit 6
	FillForms        bool `json:"fill_forms"`         // bit 9
	Extract          bool `json:"extract"`            // bit 10, accessibility extraction
	Assemble         bool `json:"assemble"`           // bit 11
	PrintHighQuality bool `json:"print_high_quality"` // bit 12
}

// NewPermissions decodes a signed 32-bit P value into flags.
func NewPermissions(p int32) Permissions {
	return Permissions{
		Print:            p&0x04 != 0,
		Modify:           p&0x08 != 0,
		Copy:             p&0x10 != 0,
		Annotate:         p&0x20 != 0,
		FillForms:        p&0x200 != 0,
		Extract:          p&0x400 != 0,
		Assemble:         p&0x800 != 0,
		PrintHighQuality: p&0x1000 != 0,
	}
}

// FullPermissions is what an unencrypted document grants.
func FullPermissions() Permissions {
	return Permissions{
		Print: true, Modify: true, Copy: true, Annotate: true,
		FillForms: true, Extract: true, Assemble: true, PrintHighQuality: true,
	}
}

// ToInt32 re-encodes the flags as a P value. Reserved bits 1-2 and 7-8
// are set, as are the high bits 13-32, per the standard handler rules.
func (p Permissions) ToInt32() int32 {
	var v int32 = 0x03 | 0xC0
	if p.Print {
		v |= 0x04
	}
	if p.Modify {
		v |= 0x08
	}
	if p.Copy {
		v |= 0x10
	}
	if p.Annotate {
		v |= 0x20
	}
	if p.FillForms {
		v |= 0x200
	}
	if p.Extract {
		v |= 0x400
	}
	if p.Assemble {
		v |= 0x800
	}
	if p.PrintHighQuality {
		v |= 0x1000
	}
	v |= int32(-8192) // bits 13-32
	return v
}

// IsRestricted reports whether any operation is denied.
func (p Permissions) IsRestricted() bool {
	return !p.Print || !p.Modify || !p.Copy || !p.Annotate ||
		!p.FillForms || !p.Extract || !p.Assemble || !p.PrintHighQuality
}

// Denied lists the denied operations by name.
func (p Permissions) Denied() []string {
	var out []string
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"print", p.Print},
		{"modify", p.Modify},
		{"copy", p.Copy},
		{"annotate", p.Annotate},
		{"fill_forms", p.FillForms},
		{"extract", p.Extract},
		{"assemble", p.Assemble},
		{"print_high_quality", p.PrintHighQuality},
	} {
		if !f.ok {
			out = append(out, f.name)
		}
	}
	return out
}

// String lists the granted operations.
func (p Permissions) String() string {
	var parts []string
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"Print", p.Print},
		{"Modify", p.Modify},
		{"Copy", p.Copy},
		{"Annotate", p.Annotate},
		{"FillForms", p.FillForms},
		{"Extract", p.Extract},
		{"Assemble", p.Assemble},
		{"PrintHighQuality", p.PrintHighQuality},
	} {
		if f.ok {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "no permissions granted"
	}
	return "Allowed: " + strings.Join(parts, ", ")
}

// ExtractionStrategy grades how text may be pulled from an authenticated
// but restricted document.
type ExtractionStrategy int

const (
	// StrategyNormal allows full content extraction.
	StrategyNormal ExtractionStrategy = iota

	// StrategyAccessibilityOnly allows extraction solely under the
	// accessibility permission bit.
	StrategyAccessibilityOnly

	// StrategyRestricted denies extraction entirely.
	StrategyRestricted
)

// StrategyFor derives the extraction strategy from the permission bits.
func StrategyFor(p Permissions) ExtractionStrategy {
	switch {
	case p.Copy:
		return StrategyNormal
	case p.Extract:
		return StrategyAccessibilityOnly
	default:
		return StrategyRestricted
	}
}

// String returns the strategy name.
func (s ExtractionStrategy) String() string {
	switch s {
	case StrategyAccessibilityOnly:
		return "accessibility_only"
	case StrategyRestricted:
		return "restricted"
	default:
		return "normal"
	}
}

// Warning returns a user-facing note for restricted strategies, or "".
func (s ExtractionStrategy) Warning() string {
	switch s {
	case StrategyAccessibilityOnly:
		return "document permissions limit extraction to accessibility use"
	case StrategyRestricted:
		return "document permissions prohibit text extraction"
	default:
		return ""
	}
}

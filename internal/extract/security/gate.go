// Package security detects PDF encryption, authenticates candidate
// passwords against the Standard Security Handler and grades the
// document's restriction level.
package security

// Level is a coarse grading of encryption/permission strictness.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Info is the immutable encryption summary of one document.
type Info struct {
	IsEncrypted   bool        `json:"is_encrypted"`
	Level         Level       `json:"security_level"`
	Permissions   Permissions `json:"permissions"`
	Authenticated bool        `json:"authenticated"`
	Algorithm     string      `json:"algorithm,omitempty"`
	KeyLengthBits int         `json:"key_length_bits,omitempty"`
	Revision      int         `json:"revision,omitempty"`
}

// CommonPasswords returns the default candidate list, in attempt order.
func CommonPasswords() []string {
	return []string{"", "password", "123456", "admin", "user", "test", "pdf", "document"}
}

// Gate resolves a document's encryption state. Detection happens once at
// construction; Info and Authenticate are side-effect free on the input.
type Gate struct {
	dict    *EncryptionDict
	handler *StandardHandler
}

// NewGate scans raw document bytes for an encryption dictionary.
func NewGate(data []byte) (*Gate, error) {
	dict, fileID, err := ScanEncryption(data)
	if err != nil {
		return nil, err
	}
	g := &Gate{dict: dict}
	if dict != nil {
		g.handler = NewStandardHandler(dict, fileID)
	}
	return g, nil
}

// Info summarizes the current encryption state. Unencrypted documents are
// trivially authenticated with full permissions.
func (g *Gate) Info() Info {
	if g.dict == nil {
		return Info{
			Level:         LevelNone,
			Permissions:   FullPermissions(),
			Authenticated: true,
		}
	}
	perms := g.handler.Permissions()
	return Info{
		IsEncrypted:   true,
		Level:         gradeLevel(perms, g.dict),
		Permissions:   perms,
		Authenticated: g.handler.Authenticated(),
		Algorithm:     g.dict.Algorithm(),
		KeyLengthBits: g.handler.KeyLengthBits(),
		Revision:      g.dict.R,
	}
}

// Strategy grades how content may be extracted once authenticated.
func (g *Gate) Strategy() ExtractionStrategy {
	if g.dict == nil {
		return StrategyNormal
	}
	return StrategyFor(g.handler.Permissions())
}

// Authenticate tries candidates in order and stops at the first success.
// A nil slice falls back to CommonPasswords. Unencrypted documents accept
// the first candidate trivially.
func (g *Gate) Authenticate(candidates []string) (string, bool) {
	if g.dict == nil {
		return "", true
	}
	if candidates == nil {
		candidates = CommonPasswords()
	}
	for _, pw := range candidates {
		if g.handler.Authenticate(pw) {
			return pw, true
		}
	}
	return "", false
}

// gradeLevel maps permissions and cipher strength to a Level. Strong
// ciphers and fully locked-down editing grade High; any copy or print
// restriction grades Medium; an unrestricted document grades Low.
func gradeLevel(p Permissions, dict *EncryptionDict) Level {
	strong := dict.V == 5 || dict.Length >= 256
	if strong || (!p.Modify && !p.Annotate && !p.Copy) {
		return LevelHigh
	}
	if !p.Copy || !p.Print {
		return LevelMedium
	}
	return LevelLow
}

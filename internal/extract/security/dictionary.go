package security

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// EncryptionDict is the parsed /Encrypt dictionary of a document.
type EncryptionDict struct {
	Filter          string
	SubFilter       string
	V               int
	Length          int // key length in bits
	R               int
	O               []byte
	U               []byte
	P               int32
	EncryptMetadata bool
	StmF            string
	StrF            string
	CF              map[string]CryptFilter
}

// CryptFilter is one entry of the CF dictionary (V >= 4).
type CryptFilter struct {
	CFM    string
	Length int
}

// Algorithm names the cipher implied by V and the crypt filters.
func (d *EncryptionDict) Algorithm() string {
	switch d.V {
	case 5:
		return "AES-256"
	case 4:
		if cf, ok := d.CF[d.StmF]; ok && (cf.CFM == "AESV2" || cf.CFM == "AESV3") {
			if cf.CFM == "AESV3" {
				return "AES-256"
			}
			return "AES-128"
		}
		return "RC4"
	default:
		return "RC4"
	}
}

// ScanEncryption locates and parses the document's encryption dictionary
// from raw bytes, along with the first element of the trailer /ID array.
// An unencrypted document yields (nil, id, nil).
func ScanEncryption(data []byte) (*EncryptionDict, []byte, error) {
	fileID := scanFileID(data)

	pos := lastName(data, "/Encrypt")
	if pos < 0 {
		return nil, fileID, nil
	}

	lx := &lexer{data: data, pos: pos + len("/Encrypt")}
	lx.skipSpace()

	var raw map[string]any
	var err error
	if lx.peek() == '<' {
		raw, err = lx.parseDict()
	} else {
		raw, err = parseIndirectDict(data, lx)
	}
	if err != nil {
		return nil, fileID, fmt.Errorf("parsing encryption dictionary: %w", err)
	}

	dict, err := buildEncryptionDict(raw)
	if err != nil {
		return nil, fileID, err
	}
	return dict, fileID, nil
}

// parseIndirectDict follows an "N G R" reference to its object body.
func parseIndirectDict(data []byte, lx *lexer) (map[string]any, error) {
	num, ok := lx.parseInt()
	if !ok {
		return nil, errors.New("malformed /Encrypt reference")
	}
	gen, ok := lx.parseInt()
	if !ok {
		return nil, errors.New("malformed /Encrypt reference")
	}
	lx.skipSpace()
	if lx.peek() != 'R' {
		return nil, errors.New("malformed /Encrypt reference")
	}

	marker := []byte(strconv.Itoa(num) + " " + strconv.Itoa(gen) + " obj")
	at := bytes.LastIndex(data, marker)
	if at < 0 {
		return nil, fmt.Errorf("encrypt object %d %d not found", num, gen)
	}
	body := &lexer{data: data, pos: at + len(marker)}
	body.skipSpace()
	return body.parseDict()
}

// lastName finds the last occurrence of a PDF name token, rejecting
// longer names that merely share the prefix (e.g. /EncryptMetadata).
func lastName(data []byte, name string) int {
	end := len(data)
	for {
		pos := bytes.LastIndex(data[:end], []byte(name))
		if pos < 0 {
			return -1
		}
		if pos+len(name) >= len(data) || !isRegular(data[pos+len(name)]) {
			return pos
		}
		end = pos
	}
}

// scanFileID extracts the first hex string of the trailer /ID array.
func scanFileID(data []byte) []byte {
	pos := lastName(data, "/ID")
	if pos < 0 {
		return nil
	}
	lx := &lexer{data: data, pos: pos + len("/ID")}
	lx.skipSpace()
	if lx.peek() != '[' {
		return nil
	}
	lx.pos++
	lx.skipSpace()
	if lx.peek() != '<' {
		return nil
	}
	id, err := lx.parseHexString()
	if err != nil {
		return nil
	}
	return id
}

func buildEncryptionDict(raw map[string]any) (*EncryptionDict, error) {
	dict := &EncryptionDict{EncryptMetadata: true, CF: map[string]CryptFilter{}}

	filter, _ := raw["Filter"].(string)
	if filter != "Standard" {
		return nil, fmt.Errorf("unsupported security handler: %q", filter)
	}
	dict.Filter = filter
	dict.SubFilter, _ = raw["SubFilter"].(string)

	dict.V = intEntry(raw, "V", 0)
	dict.R = intEntry(raw, "R", 0)
	if dict.V < 1 || dict.V > 5 {
		return nil, fmt.Errorf("unsupported encryption version: %d", dict.V)
	}
	if dict.R < 2 || dict.R > 6 {
		return nil, fmt.Errorf("unsupported handler revision: %d", dict.R)
	}

	dict.Length = intEntry(raw, "Length", defaultKeyLength(dict.V))
	dict.P = int32(intEntry(raw, "P", 0))

	var ok bool
	if dict.O, ok = raw["O"].([]byte); !ok || len(dict.O) == 0 {
		return nil, errors.New("missing O entry")
	}
	if dict.U, ok = raw["U"].([]byte); !ok || len(dict.U) == 0 {
		return nil, errors.New("missing U entry")
	}

	if em, ok := raw["EncryptMetadata"].(bool); ok {
		dict.EncryptMetadata = em
	}
	dict.StmF, _ = raw["StmF"].(string)
	dict.StrF, _ = raw["StrF"].(string)

	if cf, ok := raw["CF"].(map[string]any); ok {
		for name, v := range cf {
			sub, ok := v.(map[string]any)
			if !ok {
				continue
			}
			cfm, _ := sub["CFM"].(string)
			dict.CF[name] = CryptFilter{CFM: cfm, Length: intEntry(sub, "Length", 0)}
		}
	}
	return dict, nil
}

func defaultKeyLength(v int) int {
	switch v {
	case 4:
		return 128
	case 5:
		return 256
	default:
		return 40
	}
}

func intEntry(raw map[string]any, key string, def int) int {
	if n, ok := raw[key].(int); ok {
		return n
	}
	return def
}

// lexer is a minimal PDF object tokenizer, enough for encryption
// dictionaries: names, integers, strings, booleans, nested dicts, arrays.
type lexer struct {
	data []byte
	pos  int
}

func (lx *lexer) peek() byte {
	if lx.pos >= len(lx.data) {
		return 0
	}
	return lx.data[lx.pos]
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.data) {
		switch lx.data[lx.pos] {
		case ' ', '\t', '\r', '\n', '\f', 0:
			lx.pos++
		case '%': // comment runs to end of line
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' {
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) parseDict() (map[string]any, error) {
	if !bytes.HasPrefix(lx.data[lx.pos:], []byte("<<")) {
		return nil, errors.New("expected dictionary")
	}
	lx.pos += 2
	dict := map[string]any{}
	for {
		lx.skipSpace()
		if bytes.HasPrefix(lx.data[lx.pos:], []byte(">>")) {
			lx.pos += 2
			return dict, nil
		}
		if lx.peek() != '/' {
			return nil, fmt.Errorf("expected name at offset %d", lx.pos)
		}
		key := lx.parseName()
		val, err := lx.parseValue()
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}
}

func (lx *lexer) parseValue() (any, error) {
	lx.skipSpace()
	switch c := lx.peek(); {
	case c == '/':
		return lx.parseName(), nil
	case c == '(':
		return lx.parseLiteralString()
	case c == '<' && lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<':
		return lx.parseDict()
	case c == '<':
		return lx.parseHexString()
	case c == '[':
		return lx.parseArray()
	case c == 't':
		if bytes.HasPrefix(lx.data[lx.pos:], []byte("true")) {
			lx.pos += 4
			return true, nil
		}
	case c == 'f':
		if bytes.HasPrefix(lx.data[lx.pos:], []byte("false")) {
			lx.pos += 5
			return false, nil
		}
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		if n, ok := lx.parseInt(); ok {
			// Swallow a trailing "G R" so references read as their number.
			save := lx.pos
			if _, ok := lx.parseInt(); ok {
				lx.skipSpace()
				if lx.peek() == 'R' {
					lx.pos++
					return n, nil
				}
			}
			lx.pos = save
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected token at offset %d", lx.pos)
}

func (lx *lexer) parseName() string {
	lx.pos++ // consume '/'
	start := lx.pos
	for lx.pos < len(lx.data) && isRegular(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func (lx *lexer) parseInt() (int, bool) {
	lx.skipSpace()
	start := lx.pos
	if lx.peek() == '-' || lx.peek() == '+' {
		lx.pos++
	}
	for lx.pos < len(lx.data) && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '9' {
		lx.pos++
	}
	if lx.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(string(lx.data[start:lx.pos]))
	if err != nil {
		lx.pos = start
		return 0, false
	}
	return n, true
}

func (lx *lexer) parseArray() ([]any, error) {
	lx.pos++ // consume '['
	var out []any
	for {
		lx.skipSpace()
		if lx.peek() == ']' {
			lx.pos++
			return out, nil
		}
		if lx.pos >= len(lx.data) {
			return nil, errors.New("unterminated array")
		}
		v, err := lx.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// parseLiteralString decodes a (...) string with escapes and octal codes.
func (lx *lexer) parseLiteralString() ([]byte, error) {
	lx.pos++ // consume '('
	var out []byte
	depth := 1
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
			out = append(out, c)
		case '\\':
			if lx.pos >= len(lx.data) {
				return nil, errors.New("unterminated string escape")
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				if lx.peek() == '\n' {
					lx.pos++
				}
			case '\n': // line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
						d := lx.data[lx.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						lx.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return nil, errors.New("unterminated literal string")
}

func (lx *lexer) parseHexString() ([]byte, error) {
	lx.pos++ // consume '<'
	start := lx.pos
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '>' {
		lx.pos++
	}
	if lx.pos >= len(lx.data) {
		return nil, errors.New("unterminated hex string")
	}
	raw := bytes.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n', '\f':
			return -1
		}
		return r
	}, lx.data[start:lx.pos])
	lx.pos++ // consume '>'
	if len(raw)%2 == 1 {
		raw = append(raw, '0')
	}
	out := make([]byte, hex.DecodedLen(len(raw)))
	if _, err := hex.Decode(out, raw); err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return out, nil
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
)

// passwordPadding is the 32-byte padding string of the standard security
// handler (PDF 32000-1 7.6.3.3).
var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// StandardHandler authenticates passwords against the Standard Security
// Handler for revisions 2 through 6.
type StandardHandler struct {
	dict          *EncryptionDict
	fileID        []byte
	key           []byte
	authenticated bool
	asOwner       bool
}

// NewStandardHandler wraps a parsed encryption dictionary.
func NewStandardHandler(dict *EncryptionDict, fileID []byte) *StandardHandler {
	return &StandardHandler{dict: dict, fileID: fileID}
}

// Authenticated reports whether any password has succeeded so far.
func (h *StandardHandler) Authenticated() bool {
	return h.authenticated
}

// AsOwner reports whether authentication succeeded via the owner password.
func (h *StandardHandler) AsOwner() bool {
	return h.asOwner
}

// Permissions decodes the dictionary's P entry.
func (h *StandardHandler) Permissions() Permissions {
	return NewPermissions(h.dict.P)
}

// KeyLengthBits returns the effective encryption key length.
func (h *StandardHandler) KeyLengthBits() int {
	if h.dict.V == 1 {
		return 40
	}
	if h.dict.Length > 0 {
		return h.dict.Length
	}
	return 40
}

// Authenticate tries the password first as user, then as owner. The
// handler remembers success; a failed attempt never clears prior success.
func (h *StandardHandler) Authenticate(password string) bool {
	pw := []byte(password)
	var user, owner bool
	if h.dict.R >= 5 {
		user = h.checkUserAES(pw)
		owner = !user && h.checkOwnerAES(pw)
	} else {
		user = h.checkUserLegacy(pw)
		owner = !user && h.checkOwnerLegacy(pw)
	}
	if user || owner {
		h.authenticated = true
		h.asOwner = owner
	}
	return user || owner
}

// checkUserLegacy is Algorithm 6: derive the key (Algorithm 2), recompute
// U (Algorithm 4/5) and compare. R3+ compares only the first 16 bytes.
func (h *StandardHandler) checkUserLegacy(password []byte) bool {
	key := h.legacyKey(password)
	expected := h.userValue(key)
	n := 32
	if h.dict.R >= 3 {
		n = 16
	}
	if len(expected) < n || len(h.dict.U) < n {
		return false
	}
	if !bytes.Equal(expected[:n], h.dict.U[:n]) {
		return false
	}
	h.key = key
	return true
}

// checkOwnerLegacy is Algorithm 7: decrypt O with the owner key to
// recover the user password, then run the user check on it.
func (h *StandardHandler) checkOwnerLegacy(password []byte) bool {
	rc4Key := h.ownerRC4Key(password)

	recovered := make([]byte, len(h.dict.O))
	copy(recovered, h.dict.O)
	if h.dict.R >= 3 {
		for i := 19; i >= 0; i-- {
			c, err := rc4.NewCipher(xorKey(rc4Key, byte(i)))
			if err != nil {
				return false
			}
			c.XORKeyStream(recovered, recovered)
		}
	} else {
		c, err := rc4.NewCipher(rc4Key)
		if err != nil {
			return false
		}
		c.XORKeyStream(recovered, recovered)
	}
	return h.checkUserLegacy(recovered)
}

// legacyKey is Algorithm 2: MD5 over padded password, O, P, file ID.
func (h *StandardHandler) legacyKey(password []byte) []byte {
	hash := md5.New()
	hash.Write(padPassword(password))
	hash.Write(h.dict.O)
	hash.Write(le32(h.dict.P))
	hash.Write(h.fileID)
	if h.dict.R >= 4 && !h.dict.EncryptMetadata {
		hash.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	digest := hash.Sum(nil)

	n := h.KeyLengthBits() / 8
	if n > len(digest) {
		n = len(digest)
	}
	if h.dict.R >= 3 {
		for i := 0; i < 50; i++ {
			d := md5.Sum(digest[:n])
			digest = d[:]
		}
	}
	return digest[:n]
}

// userValue recomputes the U entry: Algorithm 4 for R2, Algorithm 5 for
// R3 and R4.
func (h *StandardHandler) userValue(key []byte) []byte {
	if h.dict.R == 2 {
		c, err := rc4.NewCipher(key)
		if err != nil {
			return nil
		}
		out := make([]byte, 32)
		c.XORKeyStream(out, passwordPadding)
		return out
	}

	hash := md5.New()
	hash.Write(passwordPadding)
	hash.Write(h.fileID)
	digest := hash.Sum(nil)

	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil
	}
	enc := make([]byte, 16)
	c.XORKeyStream(enc, digest)
	for i := 1; i <= 19; i++ {
		c, err := rc4.NewCipher(xorKey(key, byte(i)))
		if err != nil {
			return nil
		}
		c.XORKeyStream(enc, enc)
	}

	out := make([]byte, 32)
	copy(out, enc)
	return out
}

// ownerRC4Key is steps 1-4 of Algorithm 3.
func (h *StandardHandler) ownerRC4Key(ownerPassword []byte) []byte {
	digest := md5.Sum(padPassword(ownerPassword))
	if h.dict.R >= 3 {
		for i := 0; i < 50; i++ {
			digest = md5.Sum(digest[:])
		}
	}
	n := h.KeyLengthBits() / 8
	if n > 16 {
		n = 16
	}
	return digest[:n]
}

// checkUserAES is Algorithm 11 (R6) / its R5 predecessor. U is 48 bytes:
// hash(32) + validation salt(8) + key salt(8).
func (h *StandardHandler) checkUserAES(password []byte) bool {
	if len(h.dict.U) < 48 {
		return false
	}
	pw := truncateUTF8(password)
	salt := h.dict.U[32:40]
	var digest []byte
	if h.dict.R == 5 {
		d := sha256.Sum256(concat(pw, salt))
		digest = d[:]
	} else {
		digest = hash2B(pw, salt, nil)
	}
	return bytes.Equal(digest, h.dict.U[:32])
}

// checkOwnerAES is Algorithm 12: like the user check but salted from O
// and keyed over the full 48-byte U.
func (h *StandardHandler) checkOwnerAES(password []byte) bool {
	if len(h.dict.O) < 48 || len(h.dict.U) < 48 {
		return false
	}
	pw := truncateUTF8(password)
	salt := h.dict.O[32:40]
	udata := h.dict.U[:48]
	var digest []byte
	if h.dict.R == 5 {
		d := sha256.Sum256(concat(pw, salt, udata))
		digest = d[:]
	} else {
		digest = hash2B(pw, salt, udata)
	}
	return bytes.Equal(digest, h.dict.O[:32])
}

// hash2B is the revision 6 hardened hash (ISO 32000-2 Algorithm 2.B):
// iterative SHA-256/384/512 interleaved with AES-128-CBC rounds.
func hash2B(password, salt, udata []byte) []byte {
	k := sha256.Sum256(concat(password, salt, udata))
	key := k[:]
	for round := 0; ; round++ {
		k1 := make([]byte, 0, 64*(len(password)+len(key)+len(udata)))
		for i := 0; i < 64; i++ {
			k1 = append(k1, password...)
			k1 = append(k1, key...)
			k1 = append(k1, udata...)
		}
		block, err := aes.NewCipher(key[:16])
		if err != nil {
			return nil
		}
		enc := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, key[16:32]).CryptBlocks(enc, k1)

		sum := 0
		for _, b := range enc[:16] {
			sum += int(b)
		}
		switch sum % 3 {
		case 0:
			d := sha256.Sum256(enc)
			key = d[:]
		case 1:
			d := sha512.Sum384(enc)
			key = d[:]
		case 2:
			d := sha512.Sum512(enc)
			key = d[:]
		}
		if round >= 63 && int(enc[len(enc)-1]) <= round-31 {
			return key[:32]
		}
	}
}

// padPassword pads or truncates a password to exactly 32 bytes.
func padPassword(password []byte) []byte {
	out := make([]byte, 32)
	if len(password) >= 32 {
		copy(out, password[:32])
		return out
	}
	copy(out, password)
	copy(out[len(password):], passwordPadding[:32-len(password)])
	return out
}

// truncateUTF8 caps a UTF-8 password at 127 bytes (R5/R6 rule).
func truncateUTF8(password []byte) []byte {
	if len(password) > 127 {
		return password[:127]
	}
	return password
}

func xorKey(key []byte, b byte) []byte {
	out := make([]byte, len(key))
	for i, k := range key {
		out[i] = k ^ b
	}
	return out
}

func le32(v int32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(v))
	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Canonicalize runs the single-pass NFKC -> case-fold -> delimiter
// collapsing pipeline described in the component design, recording token
// byte offsets as it goes, then computing the domain-separated SHA-256
// identity and per-token hashes.
func Canonicalize(docID, text string, cfg Config) (*CanonicalizedDocument, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	normalized := norm.NFKC.String(text)
	if cfg.Lowercase {
		normalized = cases.Lower(language.Und).String(normalized)
	}

	out := make([]byte, 0, len(normalized))
	tokens := make([]Token, 0, len(normalized)/6+1)
	pendingSpace := false
	tokenStart := -1

	for _, r := range normalized {
		if isDelimiter(r, cfg.StripPunctuation) {
			if tokenStart >= 0 {
				tokens = append(tokens, Token{
					Text:      string(out[tokenStart:]),
					StartByte: tokenStart,
					EndByte:   len(out),
				})
				tokenStart = -1
			}
			pendingSpace = true
			continue
		}

		if pendingSpace && len(out) > 0 {
			out = append(out, ' ')
		}
		pendingSpace = false

		if tokenStart < 0 {
			tokenStart = len(out)
		}
		out = utf8.AppendRune(out, r)
	}
	if tokenStart >= 0 {
		tokens = append(tokens, Token{
			Text:      string(out[tokenStart:]),
			StartByte: tokenStart,
			EndByte:   len(out),
		})
	}

	canonicalText := string(out)
	tokenHashes := make([]string, len(tokens))
	for i, tok := range tokens {
		tokenHashes[i] = tokenHash(cfg.Version, tok.Text)
	}

	log.Debug("canonicalized document", "doc_id", docID, "tokens", len(tokens), "bytes", len(out))

	return &CanonicalizedDocument{
		DocID:            docID,
		CanonicalText:    canonicalText,
		Tokens:           tokens,
		TokenHashes:      tokenHashes,
		SHA256Hex:        identityHash(cfg.Version, canonicalText),
		CanonicalVersion: cfg.Version,
		ConfigSnapshot:   cfg,
	}, nil
}

// isDelimiter classifies r as whitespace, or (when stripPunctuation is set)
// a Unicode punctuation character. Fullwidth/halfwidth punctuation variants
// are folded to their canonical width form first so e.g. a fullwidth comma
// is treated the same as its ASCII counterpart.
func isDelimiter(r rune, stripPunctuation bool) bool {
	if unicode.IsSpace(r) {
		return true
	}
	if !stripPunctuation {
		return false
	}
	folded := r
	if f := width.LookupRune(r).Folded(); f != 0 {
		folded = f
	}
	return unicode.IsPunct(folded)
}

// identityHash computes SHA-256(version_be(u32) || 0x00 || canonical_text).
func identityHash(version uint32, canonicalText string) string {
	return hashWithDiscriminator(version, 0x00, canonicalText)
}

// tokenHash computes SHA-256(version_be(u32) || 0x01 || token_text).
func tokenHash(version uint32, tokenText string) string {
	return hashWithDiscriminator(version, 0x01, tokenText)
}

func hashWithDiscriminator(version uint32, discriminator byte, s string) string {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + len(s))
	_ = binary.Write(&buf, binary.BigEndian, version)
	buf.WriteByte(discriminator)
	buf.WriteString(s)
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

package canonical

// Token is a single canonical-text token with its byte offsets into the
// CanonicalizedDocument's CanonicalText. Offsets are start-inclusive,
// end-exclusive.
type Token struct {
	Text      string `json:"text"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}

// CanonicalizedDocument is the output of Canonicalize.
type CanonicalizedDocument struct {
	DocID            string  `json:"doc_id"`
	CanonicalText    string  `json:"canonical_text"`
	Tokens           []Token `json:"tokens"`
	TokenHashes      []string `json:"token_hashes"`
	SHA256Hex        string  `json:"sha256_hex"`
	CanonicalVersion uint32  `json:"canonical_version"`
	ConfigSnapshot   Config  `json:"-"`
}

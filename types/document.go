package types

// Document is one stored upload, keyed by its content hash in Metadata.
type Document struct {
	Title      string   `toml:"title" json:"title"`
	Identifier string   `toml:"identifier,omitempty" json:"identifier,omitempty"`
	Published  []string `toml:"published,omitempty" json:"published,omitempty"`
	Size       int64    `toml:"size" json:"size"`
}

// Metadata is the content of metadata.toml.
type Metadata struct {
	Documents  map[string]Document `toml:"documents"`
	SFTPGrants []string            `toml:"sftp_grants,omitempty"`
}

// DocumentEntry is a Document with its hash, for listings.
type DocumentEntry struct {
	Hash string `json:"hash"`
	Document
}

package models

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// DocumentHashSize is the blake2b digest size used to name stored documents.
const DocumentHashSize = 20

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore keeps uploaded payloads in docsDir, named by their blake2b
// hash, and their metadata in a TOML file.
type DocumentStore struct {
	mu           sync.Mutex
	docsDir      string
	metadataPath string
}

func NewDocumentStore(docsDir, metadataPath string) (*DocumentStore, error) {
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create docs dir: %w", err)
	}
	return &DocumentStore{docsDir: docsDir, metadataPath: metadataPath}, nil
}

// BlobPath returns where the payload of hash is stored.
func (s *DocumentStore) BlobPath(hash string) string {
	return filepath.Join(s.docsDir, hash)
}

// Add stores the payload read from r under its hash and records title for it.
// Storing the same bytes twice keeps one blob and updates the title.
func (s *DocumentStore) Add(ctx context.Context, title string, r io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.docsDir, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h, err := blake2b.New(DocumentHashSize, nil)
	if err != nil {
		tmp.Close()
		return "", 0, err
	}
	n, err := tool.CopyWithContext(ctx, io.MultiWriter(tmp, h), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to store upload: %w", err)
	}
	hash := hex.EncodeToString(h.Sum(nil))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, s.BlobPath(hash)); err != nil {
		return "", 0, fmt.Errorf("failed to move upload into place: %w", err)
	}
	md, err := s.load()
	if err != nil {
		return "", 0, err
	}
	doc := md.Documents[hash]
	doc.Title = title
	doc.Size = n
	md.Documents[hash] = doc
	if err := s.save(md); err != nil {
		return "", 0, err
	}
	tool.DefaultLogger.Infof("Stored %s as %s (%d bytes)", title, s.BlobPath(hash), n)
	return hash, n, nil
}

// List returns every document ordered by title.
func (s *DocumentStore) List() ([]types.DocumentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]types.DocumentEntry, 0, len(md.Documents))
	for hash, doc := range md.Documents {
		out = append(out, types.DocumentEntry{Hash: hash, Document: doc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].Hash < out[j].Hash
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Get returns one document.
func (s *DocumentStore) Get(hash string) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return types.Document{}, err
	}
	doc, ok := md.Documents[hash]
	if !ok {
		return types.Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

// Identify sets the identifier (e.g. an exhibit number) of a document.
func (s *DocumentStore) Identify(hash, identifier string) error {
	return s.update(hash, func(doc *types.Document) {
		doc.Identifier = identifier
	})
}

// Publish makes a document visible to group.
func (s *DocumentStore) Publish(hash, group string) error {
	return s.update(hash, func(doc *types.Document) {
		if !slices.Contains(doc.Published, group) {
			doc.Published = append(doc.Published, group)
			slices.Sort(doc.Published)
		}
	})
}

// Recall withdraws a document from group.
func (s *DocumentStore) Recall(hash, group string) error {
	return s.update(hash, func(doc *types.Document) {
		doc.Published = slices.DeleteFunc(doc.Published, func(g string) bool { return g == group })
	})
}

// Delete removes a document and its payload.
func (s *DocumentStore) Delete(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := md.Documents[hash]; !ok {
		return ErrDocumentNotFound
	}
	delete(md.Documents, hash)
	if err := s.save(md); err != nil {
		return err
	}
	if err := os.Remove(s.BlobPath(hash)); err != nil && !os.IsNotExist(err) {
		tool.DefaultLogger.Warnf("Failed to remove blob %s: %v", hash, err)
	}
	return nil
}

// GrantSFTP gives name SFTP access.
func (s *DocumentStore) GrantSFTP(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return err
	}
	if slices.Contains(md.SFTPGrants, name) {
		return nil
	}
	md.SFTPGrants = append(md.SFTPGrants, name)
	slices.Sort(md.SFTPGrants)
	return s.save(md)
}

// RevokeSFTP removes SFTP access from name.
func (s *DocumentStore) RevokeSFTP(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return err
	}
	md.SFTPGrants = slices.DeleteFunc(md.SFTPGrants, func(n string) bool { return n == name })
	return s.save(md)
}

// SFTPGrants lists names with SFTP access.
func (s *DocumentStore) SFTPGrants() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return nil, err
	}
	return md.SFTPGrants, nil
}

func (s *DocumentStore) update(hash string, fn func(doc *types.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, err := s.load()
	if err != nil {
		return err
	}
	doc, ok := md.Documents[hash]
	if !ok {
		return ErrDocumentNotFound
	}
	fn(&doc)
	md.Documents[hash] = doc
	return s.save(md)
}

// load must be called with s.mu held. A missing file is an empty store.
func (s *DocumentStore) load() (types.Metadata, error) {
	md := types.Metadata{Documents: map[string]types.Document{}}
	data, err := os.ReadFile(s.metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return md, nil
		}
		return md, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := toml.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if md.Documents == nil {
		md.Documents = map[string]types.Document{}
	}
	return md, nil
}

// save must be called with s.mu held.
func (s *DocumentStore) save(md types.Metadata) error {
	data, err := toml.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	tmp := s.metadataPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return os.Rename(tmp, s.metadataPath)
}

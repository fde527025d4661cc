// Package filestore keeps closes as YAML documents inside the repo, one
// file per close under closes/YYYY/MM/<id>.yaml.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Store is a closing.Store backed by files. Writes go to a temp file that
// is renamed into place, so readers never see a half-written close. The
// (date, entity) uniqueness of non-cancelled closes is held by claim files
// created with O_EXCL.
type Store struct {
	root string
	mu   sync.Mutex
}

var _ closing.Store = (*Store)(nil)

// New creates a Store rooted at a repo directory.
func New(repoRoot string) *Store {
	return &Store{root: filepath.Join(repoRoot, "closes")}
}

func (s *Store) docPath(c *model.Close) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", c.Date.Year()), fmt.Sprintf("%02d", int(c.Date.Month())), c.ID+".yaml")
}

func (s *Store) claimPath(entity string, date time.Time) string {
	return filepath.Join(s.root, ".claims", date.Format(dateFormat)+"_"+strings.ToUpper(entity))
}

// Insert implements closing.Store.
func (s *Store) Insert(ctx context.Context, c *model.Close) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" || filepath.Base(c.ID) != c.ID {
		return fmt.Errorf("invalid close id %q", c.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.State != model.StateCancelled {
		if err := s.claim(c); err != nil {
			return err
		}
	}
	if err := s.write(c); err != nil {
		if c.State != model.StateCancelled {
			s.release(c)
		}
		return err
	}
	return nil
}

// claim takes the (date, entity) slot for c. A claim whose close document
// does not exist is left over from a failed insert and is taken over.
func (s *Store) claim(c *model.Close) error {
	path := s.claimPath(c.Entity, c.Date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating claims dir: %w", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.WriteString(c.ID)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return fmt.Errorf("writing claim %s: %w", path, errors.Join(werr, cerr))
			}
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("creating claim %s: %w", path, err)
		}
		owner, rerr := os.ReadFile(path)
		if rerr != nil {
			return fmt.Errorf("reading claim %s: %w", path, rerr)
		}
		if existing, _ := s.find(string(owner)); existing != "" {
			return &closing.DuplicateCloseError{Entity: c.Entity, Date: c.Date, ExistingID: string(owner)}
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale claim %s: %w", path, err)
		}
	}
	return &closing.DuplicateCloseError{Entity: c.Entity, Date: c.Date}
}

func (s *Store) release(c *model.Close) {
	path := s.claimPath(c.Entity, c.Date)
	owner, err := os.ReadFile(path)
	if err != nil || string(owner) != c.ID {
		return
	}
	_ = os.Remove(path)
}

func (s *Store) write(c *model.Close) error {
	path := s.docPath(c)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating closes dir: %w", err)
	}
	data, err := yaml.Marshal(marshalClose(c))
	if err != nil {
		return fmt.Errorf("marshaling close %s: %w", c.ID, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing close %s: %w", c.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing close %s: %w", c.ID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming close %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) read(path string) (*model.Close, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc closeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c, err := unmarshalClose(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return c, nil
}

// find returns the document path of a close ID, or "".
func (s *Store) find(closeID string) (string, error) {
	if closeID == "" || filepath.Base(closeID) != closeID || strings.ContainsAny(closeID, "*?[") {
		return "", nil
	}
	matches, err := filepath.Glob(filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", closeID+".yaml"))
	if err != nil {
		return "", fmt.Errorf("looking up close %s: %w", closeID, err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

// Get implements closing.Store.
func (s *Store) Get(ctx context.Context, closeID string) (*model.Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.find(closeID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &closing.CloseNotFoundError{ID: closeID}
	}
	return s.read(path)
}

// Update implements closing.Store.
func (s *Store) Update(ctx context.Context, closeID string, fn func(*model.Close) error) (*model.Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(closeID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &closing.CloseNotFoundError{ID: closeID}
	}
	orig, err := s.read(path)
	if err != nil {
		return nil, err
	}

	c := orig.Clone()
	if err := fn(c); err != nil {
		return nil, err
	}
	if c.ID != orig.ID || c.Entity != orig.Entity || !c.Date.Equal(orig.Date) {
		return nil, fmt.Errorf("close %s: id, entity and date are immutable", closeID)
	}
	if err := s.write(c); err != nil {
		return nil, err
	}
	if orig.State != model.StateCancelled && c.State == model.StateCancelled {
		s.release(c)
	}
	return c, nil
}

// Find implements closing.Store.
func (s *Store) Find(ctx context.Context, q closing.Query) ([]*model.Close, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("listing closes: %w", err)
	}

	var out []*model.Close
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !monthInRange(path, q.From, q.To) {
			continue
		}
		c, err := s.read(path)
		if err != nil {
			return nil, err
		}
		if q.Match(c) {
			out = append(out, c)
		}
	}
	closing.SortCloses(out)
	return out, nil
}

// monthInRange prunes month directories outside [from, to].
func monthInRange(path string, from, to time.Time) bool {
	monthDir := filepath.Dir(path)
	ym := filepath.Base(filepath.Dir(monthDir)) + "-" + filepath.Base(monthDir)
	if !from.IsZero() && ym < from.Format("2006-01") {
		return false
	}
	if !to.IsZero() && ym > to.Format("2006-01") {
		return false
	}
	return true
}

// Package identity resolves the stored signature of a user. Signatures are
// opaque image bytes kept under signatures/ in the repo.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Personnel maps a user to a linked personnel record, or "".
type Personnel interface {
	Personnel(user string) string
}

// Directory looks up signature files for users.
type Directory struct {
	root      string
	personnel Personnel
}

// New returns a Directory reading <repoRoot>/signatures. personnel may be nil.
func New(repoRoot string, personnel Personnel) *Directory {
	return &Directory{root: filepath.Join(repoRoot, "signatures"), personnel: personnel}
}

// Path returns where the signature of a user is stored.
func (d *Directory) Path(user string) string {
	return filepath.Join(d.root, fileName(user))
}

// PersonnelPath returns where the signature of a personnel record is stored.
func (d *Directory) PersonnelPath(record string) string {
	return filepath.Join(d.root, "personnel", fileName(record))
}

// Signature returns the user's own signature, falling back to the one of
// the linked personnel record. A user with neither yields nil and no error.
func (d *Directory) Signature(ctx context.Context, user string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(user) {
		return nil, nil
	}
	sig, err := readOptional(d.Path(user))
	if err != nil || sig != nil {
		return sig, err
	}
	if d.personnel == nil {
		return nil, nil
	}
	record := d.personnel.Personnel(user)
	if !validName(record) {
		return nil, nil
	}
	return readOptional(d.PersonnelPath(record))
}

// Store saves a signature image for a user.
func (d *Directory) Store(user string, sig []byte) error {
	if !validName(user) {
		return fmt.Errorf("invalid user name %q", user)
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("creating signatures dir: %w", err)
	}
	if err := os.WriteFile(d.Path(user), sig, 0o644); err != nil {
		return fmt.Errorf("writing signature of %s: %w", user, err)
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading signature %s: %w", path, err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

func fileName(name string) string { return name + ".png" }

// validName rejects names that would escape the signatures dir.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

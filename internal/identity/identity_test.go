package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type links map[string]string

func (l links) Personnel(user string) string { return l[user] }

func TestSignatureLookupOrder(t *testing.T) {
	root := t.TempDir()
	d := New(root, links{"maria": "E042", "jose": "E007"})
	ctx := context.Background()

	require.NoError(t, d.Store("maria", []byte("own")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "signatures", "personnel"), 0o755))
	require.NoError(t, os.WriteFile(d.PersonnelPath("E042"), []byte("hr-maria"), 0o644))
	require.NoError(t, os.WriteFile(d.PersonnelPath("E007"), []byte("hr-jose"), 0o644))

	sig, err := d.Signature(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, []byte("own"), sig, "user file wins")

	sig, err = d.Signature(ctx, "jose")
	require.NoError(t, err)
	assert.Equal(t, []byte("hr-jose"), sig)

	sig, err = d.Signature(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestSignatureWithoutPersonnel(t *testing.T) {
	d := New(t.TempDir(), nil)
	sig, err := d.Signature(context.Background(), "maria")
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestRejectsPathNames(t *testing.T) {
	d := New(t.TempDir(), links{"x": "../../etc"})
	sig, err := d.Signature(context.Background(), "../secret")
	require.NoError(t, err)
	assert.Nil(t, sig)

	sig, err = d.Signature(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, sig)

	assert.Error(t, d.Store("a/b", []byte("x")))
}

func TestSignatureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(t.TempDir(), nil).Signature(ctx, "maria")
	assert.ErrorIs(t, err, context.Canceled)
}

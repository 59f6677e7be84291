package usftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathHelperNormalize(t *testing.T) {
	p := newPathHelper("/", nil)

	assert.Equal(t, "/a/b", p.Normalize("/a//b"))
	assert.Equal(t, "/a/b", p.Normalize("/a/./b"))
	assert.Equal(t, "a/b", p.Normalize("a/b/"))
	assert.Equal(t, ".", p.Normalize(""))
	assert.Equal(t, "/", p.Normalize("/"))
}

func TestPathHelperJoin(t *testing.T) {
	p := newPathHelper("/", nil)

	assert.Equal(t, "/a/b/c", p.Join("/a", "b", "c"))
	assert.Equal(t, "a/b", p.Join("a", "", "b"))
}

func TestPathHelperParentAndLeaf(t *testing.T) {
	p := newPathHelper("/", nil)

	assert.Equal(t, "/a/b", p.Parent("/a/b/c"))
	assert.Equal(t, "c", p.Leaf("/a/b/c"))
	assert.Equal(t, "/", p.Parent("/a"))
	assert.Equal(t, ".", p.Parent("a"))
	assert.Equal(t, "a", p.Leaf("a"))

	// trailing separator is ignored
	assert.Equal(t, "/a/b", p.Parent("/a/b/c/"))
	assert.Equal(t, "c", p.Leaf("/a/b/c/"))
}

func TestPathHelperTrimTrailingSeparator(t *testing.T) {
	p := newPathHelper("/", nil)

	assert.Equal(t, "/a/b", p.TrimTrailingSeparator("/a/b/"))
	assert.Equal(t, "/", p.TrimTrailingSeparator("/"))
	assert.Equal(t, "a", p.TrimTrailingSeparator("a"))
}

func TestPathHelperCanonicalizeDelegates(t *testing.T) {
	called := false
	p := newPathHelper("/", func(pathN string) (string, error) {
		called = true
		return "/real" + pathN, nil
	})

	got, err := p.Canonicalize("/a")
	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "/real/a", got)
}

func TestPathHelperDefaultSeparator(t *testing.T) {
	p := newPathHelper("", nil)
	assert.Equal(t, "/", p.sep)
}

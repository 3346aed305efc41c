package source

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchAll(t *testing.T, s *LineSource) []*Node {
	t.Helper()
	var out []*Node
	for {
		n, err := s.Fetch()
		require.NoError(t, err)
		if n == nil {
			return out
		}
		out = append(out, n)
	}
}

func texts(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Text)
	}
	return out
}

func TestFetch_LevelsAndTrailingWhitespace(t *testing.T) {
	s := FromString("main.tl", "abc  \n\tdef\t\n\t\tghi\nxyz\n")
	nodes := fetchAll(t, s)
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"abc", "def", "ghi", "xyz"}, texts(nodes))
	for i, want := range []int{0, 1, 2, 0} {
		assert.Equal(t, want, nodes[i].Level)
		assert.Equal(t, nodes[i].Level, nodes[i].SourceLevel)
		assert.Equal(t, i+1, nodes[i].LineNum)
	}
	assert.Equal(t, "main.tl/3", nodes[2].Location.String())
}

func TestFetch_SpaceIndent(t *testing.T) {
	s := FromString("x", "a\n  b\n    c\n   d", WithIndent("  "))
	nodes := fetchAll(t, s)
	assert.Equal(t, []int{0, 1, 2, 1}, []int{nodes[0].Level, nodes[1].Level, nodes[2].Level, nodes[3].Level})
	assert.Equal(t, " d", nodes[3].Text, "partial indent stays in the text")
}

func TestFetch_TabInSpaceIndentFails(t *testing.T) {
	s := FromString("x", "a\n  \tb", WithIndent("  "))
	_, err := s.Fetch()
	require.NoError(t, err)
	_, err = s.Fetch()
	assert.ErrorIs(t, err, ErrBadIndent)
}

func TestUnfetchFetchIsNoop(t *testing.T) {
	s := FromString("x", "one\ntwo\nthree")
	first, err := s.Fetch()
	require.NoError(t, err)
	before := s.LineNum()

	n, err := s.Fetch()
	require.NoError(t, err)
	require.NoError(t, s.Unfetch(n))
	assert.Equal(t, before, s.LineNum())

	again, err := s.Fetch()
	require.NoError(t, err)
	assert.Same(t, n, again)
	assert.Equal(t, 2, s.LineNum())
	assert.Equal(t, "one", first.Text)
	assert.Equal(t, []string{"three"}, texts(fetchAll(t, s)))
}

func TestInclude_SplicesAtLevel(t *testing.T) {
	inc := MapIncluder{
		"lib.tl": "l1\n\tl2",
	}
	s := FromString("main.tl", "top\n\t#include lib.tl\nafter", WithIncluder(inc))
	nodes := fetchAll(t, s)
	assert.Equal(t, []string{"top", "l1", "l2", "after"}, texts(nodes))
	assert.Equal(t, 1, nodes[1].Level)
	assert.Equal(t, 0, nodes[1].SourceLevel)
	assert.Equal(t, 2, nodes[2].Level)
	assert.Equal(t, 1, nodes[2].SourceLevel)
	assert.Equal(t, "lib.tl/2 < main.tl/2", nodes[2].Location.String())
	assert.Equal(t, 3, nodes[3].LineNum, "parent line numbers skip nothing")
}

func TestInclude_TotalIsSumOfSources(t *testing.T) {
	inc := MapIncluder{
		"a": "a1\n#include b\na3",
		"b": "b1\nb2\n#include c",
		"c": "c1",
	}
	s := FromString("root", "r1\n#include a\nr3\nr4", WithIncluder(inc))
	nodes := fetchAll(t, s)
	assert.Equal(t, []string{"r1", "a1", "b1", "b2", "c1", "a3", "r3", "r4"}, texts(nodes))
	// root 4 + a 3 + b 3 + c 1
	assert.Equal(t, 11, s.Total())
}

func TestInclude_NotFound(t *testing.T) {
	s := FromString("main.tl", "#include missing.tl", WithIncluder(MapIncluder{}), WithDir("/srv/tpl"))
	_, err := s.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncludeNotFound)

	var ie *IncludeError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "missing.tl", ie.Name)
	assert.Contains(t, err.Error(), "missing.tl")
	assert.Contains(t, err.Error(), "/srv/tpl")
}

func TestInclude_NoIncluder(t *testing.T) {
	s := FromString("main.tl", "#include x")
	_, err := s.Fetch()
	assert.ErrorIs(t, err, ErrIncludeNotFound)
}

func TestInclude_DepthLimit(t *testing.T) {
	inc := MapIncluder{"self": "x\n#include self"}
	s := FromString("main", "#include self", WithIncluder(inc), WithMaxDepth(3))
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = s.Fetch()
	}
	assert.ErrorIs(t, err, ErrIncludeDepth)
}

func TestUnfetch_IncludeDirectiveRejected(t *testing.T) {
	s := FromString("x", "a")
	err := s.Unfetch(&Node{Text: "#include foo"})
	assert.ErrorIs(t, err, ErrInvalidInclude)
}

func TestUnfetch_DelegatesToActiveChild(t *testing.T) {
	inc := MapIncluder{"lib": "l1\nl2"}
	s := FromString("main", "m1\n#include lib\nm3", WithIncluder(inc))
	m1, _ := s.Fetch()
	l1, _ := s.Fetch()
	require.Equal(t, "l1", l1.Text)

	require.NoError(t, s.Unfetch(l1))
	require.NoError(t, s.Unfetch(m1))

	assert.Equal(t, []string{"m1", "l1", "l2", "m3"}, texts(fetchAll(t, s)))
	assert.Equal(t, 5, s.Total())
}

func TestEndMarker(t *testing.T) {
	s := FromString("x", "a\nb\n__END__\nc\nd")
	assert.Equal(t, []string{"a", "b"}, texts(fetchAll(t, s)))
	n, err := s.Fetch()
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestForceEOF_KeepsPushedBack(t *testing.T) {
	s := FromString("x", "a\nb\nc")
	a, _ := s.Fetch()
	require.NoError(t, s.Unfetch(a))
	s.ForceEOF()
	assert.Equal(t, []string{"a"}, texts(fetchAll(t, s)))
}

func TestFromReader(t *testing.T) {
	s := FromReader("r", strings.NewReader("x\r\n\ty\r\n"))
	nodes := fetchAll(t, s)
	assert.Equal(t, []string{"x", "y"}, texts(nodes))
	assert.Equal(t, 1, nodes[1].Level)
}

func TestFromSeq(t *testing.T) {
	s := FromSeq("seq", slices.Values([]string{"a", "\tb", "__END__", "never"}))
	assert.Equal(t, []string{"a", "b"}, texts(fetchAll(t, s)))
}

func TestFileIncluder(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(lib, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "header.tl"), []byte("h1\nh2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "local.tl"), []byte("local\n"), 0o644))

	fi, err := NewFileIncluder([]string{lib}, []string{".tl"}, 4)
	require.NoError(t, err)

	path, err := fi.Resolve("header", root)
	require.NoError(t, err)
	assert.Equal(t, "header.tl", filepath.Base(path))

	path, err = fi.Resolve("local.tl", root)
	require.NoError(t, err)
	assert.Equal(t, "local.tl", filepath.Base(path))

	_, err = fi.Resolve("nope", root)
	assert.ErrorIs(t, err, ErrIncludeNotFound)

	s := FromString(filepath.Join(root, "main.tl"), "#include header\n#include header", WithIncluder(fi), WithDir(root))
	assert.Equal(t, []string{"h1", "h2", "h1", "h2"}, texts(fetchAll(t, s)))
	hp, _ := fi.Resolve("header", root)
	assert.True(t, fi.Cached(hp))
}

func TestIncludeName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"#include foo.tl", "foo.tl"},
		{"#include <foo.tl>", "foo.tl"},
		{`#include "foo.tl"`, "foo.tl"},
		{"#include", ""},
		{"#included foo", ""},
		{"# include foo", ""},
		{"#include a b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IncludeName(tt.text))
		})
	}
}

package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebook/internal/domain"
	"coursebook/internal/layout"
	"coursebook/internal/tree"
	"coursebook/internal/view"
)

func central() domain.TreeNode {
	return domain.TreeNode{ID: "root", Label: "Central", Children: []domain.TreeNode{
		{ID: "1", Label: "Branch 1"},
	}}
}

func deep() domain.TreeNode {
	return domain.TreeNode{ID: "root", Label: "Central", Children: []domain.TreeNode{
		{ID: "1", Label: "Branch 1", Children: []domain.TreeNode{
			{ID: "1a", Label: "Leaf", Children: []domain.TreeNode{{ID: "1a-i", Label: "Deeper"}}},
		}},
		{ID: "2", Label: "Branch 2"},
	}}
}

func visible(s *view.Session) []string {
	var ids []string
	for _, n := range s.Graph().Graph.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestNewSession_Modes(t *testing.T) {
	author := view.NewSession(deep(), true, nil)
	assert.Equal(t, domain.ModeAuthor, author.Mode())
	assert.Equal(t, 0, author.Collapsed().Len())
	assert.Len(t, visible(author), 5)

	viewer := view.NewSession(deep(), false, nil)
	assert.Equal(t, domain.ModeViewer, viewer.Mode())
	assert.Equal(t, []string{"1", "1a", "root"}, viewer.Collapsed().Slice())
	assert.Equal(t, []string{"root"}, visible(viewer))
}

func TestViewer_RejectsEdits(t *testing.T) {
	s := view.NewSession(central(), false, nil)
	rev := s.Revision()

	_, err := s.AddChild("root", domain.TreeNode{ID: "x", Label: "X"})
	require.ErrorIs(t, err, view.ErrReadOnly)
	_, err = s.RemoveNode("1")
	require.ErrorIs(t, err, view.ErrReadOnly)
	_, err = s.UpdateLabel("1", "nope")
	require.ErrorIs(t, err, view.ErrReadOnly)
	_, err = s.MoveToBottom("1")
	require.ErrorIs(t, err, view.ErrReadOnly)
	require.ErrorIs(t, s.Replace(deep()), view.ErrReadOnly)

	assert.True(t, tree.Equal(central(), s.Root()))
	assert.Equal(t, rev, s.Revision())
}

func TestViewer_ProgressiveDisclosure(t *testing.T) {
	s := view.NewSession(deep(), false, nil)

	s.Toggle("root")
	assert.Equal(t, []string{"root", "1", "2"}, visible(s))

	s.Toggle("1")
	assert.Equal(t, []string{"root", "1", "1a", "2"}, visible(s))

	s.Expand("1a")
	assert.Len(t, visible(s), 5)

	s.Collapse("root")
	assert.Equal(t, []string{"root"}, visible(s))
}

func TestAuthor_AddChildAutoExpandsParent(t *testing.T) {
	s := view.NewSession(central(), true, nil)
	s.Collapse("1")
	require.True(t, s.Collapsed().Has("1"))

	root, err := s.AddChild("1", domain.TreeNode{ID: "2", Label: "Leaf"})
	require.NoError(t, err)

	one, ok := tree.Find(root, "1")
	require.True(t, ok)
	require.Len(t, one.Children, 1)
	assert.Equal(t, "2", one.Children[0].ID)
	assert.False(t, s.Collapsed().Has("1"))
	assert.Contains(t, visible(s), "2")
}

func TestAuthor_AddChildUnknownParent(t *testing.T) {
	s := view.NewSession(central(), true, nil)
	s.Collapse("1")
	rev := s.Revision()

	_, err := s.AddChild("gone", domain.TreeNode{ID: "x", Label: "X"})
	require.NoError(t, err)
	assert.Equal(t, rev, s.Revision())
	assert.True(t, s.Collapsed().Has("1"))
}

func TestAuthor_Operations(t *testing.T) {
	s := view.NewSession(deep(), true, nil)

	_, err := s.UpdateLabel("2", "Renamed")
	require.NoError(t, err)
	_, err = s.MoveToBottom("1")
	require.NoError(t, err)
	root, err := s.RemoveNode("1a")
	require.NoError(t, err)

	assert.Equal(t, "2", root.Children[0].ID)
	assert.Equal(t, "Renamed", root.Children[0].Label)
	assert.Equal(t, "1", root.Children[1].ID)
	assert.False(t, tree.Contains(root, "1a-i"))
}

func TestRevision_OnlyMovesOnChange(t *testing.T) {
	s := view.NewSession(deep(), true, nil)
	assert.Equal(t, uint64(0), s.Revision())

	_, _ = s.UpdateLabel("missing", "x")
	s.Toggle("missing")
	assert.Equal(t, uint64(0), s.Revision())

	s.Toggle("1")
	assert.Equal(t, uint64(1), s.Revision())
	s.Collapse("1")
	assert.Equal(t, uint64(1), s.Revision())
	_, _ = s.UpdateLabel("1", "New")
	assert.Equal(t, uint64(2), s.Revision())
}

func TestFingerprint(t *testing.T) {
	a := view.NewSession(deep(), true, nil)
	b := view.NewSession(deep(), true, nil)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Toggle("1")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	b.Toggle("1")
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	_, _ = b.UpdateLabel("2", "Other")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestPendingFit_Viewer(t *testing.T) {
	s := view.NewSession(deep(), false, layout.NewEngine(layout.DefaultConfig()))

	first, ok := s.PendingFit()
	require.True(t, ok)
	require.NotNil(t, first)

	_, ok = s.PendingFit()
	assert.False(t, ok, "fit is one-shot per revision")

	s.Toggle("root")
	second, ok := s.PendingFit()
	require.True(t, ok)
	assert.Greater(t, second.Width(), first.Width())

	_, ok = s.PendingFit()
	assert.False(t, ok)
}

func TestPendingFit_AuthorFitsOnce(t *testing.T) {
	s := view.NewSession(deep(), true, nil)

	_, ok := s.PendingFit()
	require.True(t, ok)

	s.Toggle("1")
	_, _ = s.AddChild("2", domain.TreeNode{ID: "2a", Label: "New"})
	_, ok = s.PendingFit()
	assert.False(t, ok)
}

func TestGraph_MatchesEngine(t *testing.T) {
	le := layout.NewEngine(layout.DefaultConfig())
	s := view.NewSession(deep(), false, le)
	s.Expand("root")

	want := le.Compute(deep(), tree.NewCollapseSet("1", "1a"))
	assert.Equal(t, want, s.Graph())
}

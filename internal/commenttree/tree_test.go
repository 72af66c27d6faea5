package commenttree

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/models"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// mk builds a comment created `minute` minutes after base. parent 0 means root.
func mk(id, parent uint, minute int) models.Comment {
	c := models.Comment{
		ID:        id,
		ArticleID: 1,
		UserID:    "user",
		Body:      "body",
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
		UpdatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
	if parent != 0 {
		p := parent
		c.ParentCommentID = &p
	}
	return c
}

type shape struct {
	ID      uint
	Replies []uint
}

func shapeOf(nodes []Node) []shape {
	out := make([]shape, 0, len(nodes))
	for _, n := range nodes {
		s := shape{ID: n.ID}
		for _, r := range n.Replies {
			s.Replies = append(s.Replies, r.ID)
		}
		out = append(out, s)
	}
	return out
}

func TestBuildFlatRoots(t *testing.T) {
	nodes := Build([]models.Comment{mk(1, 0, 2), mk(2, 0, 1)})

	assert.Equal(t, []shape{{ID: 2}, {ID: 1}}, shapeOf(nodes))
	for _, n := range nodes {
		assert.Nil(t, n.Replies)
		assert.False(t, n.HasReplies())
	}
}

func TestBuildDirectReply(t *testing.T) {
	nodes := Build([]models.Comment{mk(1, 0, 1), mk(2, 1, 2)})

	assert.Equal(t, []shape{{ID: 1, Replies: []uint{2}}}, shapeOf(nodes))
	assert.True(t, nodes[0].HasReplies())
}

func TestBuildFlattensReplyToReply(t *testing.T) {
	nodes := Build([]models.Comment{mk(3, 2, 3), mk(1, 0, 1), mk(2, 1, 2)})

	assert.Equal(t, []shape{{ID: 1, Replies: []uint{2, 3}}}, shapeOf(nodes))
}

func TestBuildReplyBeforeRootInInput(t *testing.T) {
	nodes := Build([]models.Comment{mk(2, 1, 5), mk(4, 1, 3), mk(1, 0, 0)})

	assert.Equal(t, []shape{{ID: 1, Replies: []uint{4, 2}}}, shapeOf(nodes))
}

func TestBuildMissingParentBecomesRoot(t *testing.T) {
	nodes := Build([]models.Comment{mk(5, 99, 1)})

	require.Len(t, nodes, 1)
	assert.Equal(t, uint(5), nodes[0].ID)
	assert.Nil(t, nodes[0].Replies)
	require.NotNil(t, nodes[0].ParentCommentID)
	assert.Equal(t, uint(99), *nodes[0].ParentCommentID)
}

func TestBuildMissingParentAlongsideOtherRoots(t *testing.T) {
	nodes := Build([]models.Comment{mk(20, 10, 2), mk(30, 0, 1)})

	assert.Equal(t, []shape{{ID: 30}, {ID: 20}}, shapeOf(nodes))
}

func TestBuildOrphanCollectsItsReplies(t *testing.T) {
	// 5 points at a comment that was never fetched; 6 answers 5.
	inputs := [][]models.Comment{
		{mk(5, 99, 1), mk(6, 5, 2)},
		{mk(6, 5, 2), mk(5, 99, 1)},
	}

	for _, in := range inputs {
		nodes := Build(in)
		assert.Equal(t, []shape{{ID: 5, Replies: []uint{6}}}, shapeOf(nodes))
	}
}

func TestBuildEmpty(t *testing.T) {
	nodes := Build(nil)
	require.NotNil(t, nodes)
	assert.Empty(t, nodes)

	nodes = Build([]models.Comment{})
	require.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestBuildDeepChainPromotesIntermediate(t *testing.T) {
	// 1 <- 2 <- 3 <- 4 <- 5
	in := []models.Comment{mk(1, 0, 0), mk(2, 1, 1), mk(3, 2, 2), mk(4, 3, 3), mk(5, 4, 4)}

	nodes := Build(in)

	assert.Equal(t, []shape{
		{ID: 1, Replies: []uint{2}},
		{ID: 3, Replies: []uint{4, 5}},
	}, shapeOf(nodes))
	assertInvariants(t, in, nodes)
}

func TestBuildDeepChainReversedInput(t *testing.T) {
	in := []models.Comment{mk(5, 4, 4), mk(4, 3, 3), mk(3, 2, 2), mk(2, 1, 1), mk(1, 0, 0)}

	nodes := Build(in)

	assert.Equal(t, []shape{
		{ID: 1, Replies: []uint{2, 3}},
		{ID: 4, Replies: []uint{5}},
	}, shapeOf(nodes))
	assertInvariants(t, in, nodes)
}

func TestBuildCycleAndSelfReference(t *testing.T) {
	in := []models.Comment{mk(1, 2, 1), mk(2, 1, 2), mk(7, 7, 3)}

	nodes := Build(in)

	assert.Equal(t, []shape{
		{ID: 2, Replies: []uint{1}},
		{ID: 7},
	}, shapeOf(nodes))
	assertInvariants(t, in, nodes)
}

func TestBuildMalformedTimestampsSortFirst(t *testing.T) {
	bad := mk(2, 0, 0)
	bad.CreatedAt = models.ParseTimestamp("T1")
	badReply := mk(4, 1, 0)
	badReply.CreatedAt = models.ParseTimestamp("")

	nodes := Build([]models.Comment{mk(1, 0, 1), bad, mk(3, 1, 2), badReply})

	assert.Equal(t, []shape{
		{ID: 2},
		{ID: 1, Replies: []uint{4, 3}},
	}, shapeOf(nodes))
}

func TestBuildTiesKeepInputOrder(t *testing.T) {
	nodes := Build([]models.Comment{mk(3, 0, 0), mk(1, 0, 0), mk(2, 0, 0), mk(9, 1, 1), mk(8, 1, 1)})

	assert.Equal(t, []shape{
		{ID: 3},
		{ID: 1, Replies: []uint{9, 8}},
		{ID: 2},
	}, shapeOf(nodes))
}

func TestBuildPreservesFields(t *testing.T) {
	deleted := mk(2, 1, 1)
	deleted.IsDeleted = true
	deleted.Body = ""
	deleted.UserID = "bob"

	nodes := Build([]models.Comment{mk(1, 0, 0), deleted})

	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Replies, 1)
	if diff := cmp.Diff(deleted, nodes[0].Replies[0]); diff != "" {
		t.Errorf("reply differs from input (-want +got):\n%s", diff)
	}
}

func TestBuildDoesNotShareStateWithInput(t *testing.T) {
	in := []models.Comment{mk(1, 0, 0), mk(2, 1, 1), mk(3, 2, 2)}
	snapshot := make([]models.Comment, len(in))
	for i, c := range in {
		snapshot[i] = clone(c)
	}

	nodes := Build(in)
	nodes[0].Body = "changed"
	*nodes[0].Replies[0].ParentCommentID = 42
	nodes[0].Replies[1].UserID = "mallory"

	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestBuildIdempotent(t *testing.T) {
	in := randomComments(rand.New(rand.NewSource(7)), 120)

	first := Build(in)
	second := Build(in)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("builds differ (-first +second):\n%s", diff)
	}
}

func TestBuildInvariantsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		in := randomComments(rng, rng.Intn(80))
		assertInvariants(t, in, Build(in))
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(nil))
	nodes := Build([]models.Comment{mk(1, 0, 0), mk(2, 1, 1), mk(3, 0, 2)})
	assert.Equal(t, 3, Count(nodes))
}

// randomComments produces n comments with unique ids. Parents point at earlier
// comments, later comments, or ids that are not part of the input.
func randomComments(rng *rand.Rand, n int) []models.Comment {
	out := make([]models.Comment, 0, n)
	for i := 1; i <= n; i++ {
		var parent uint
		switch rng.Intn(4) {
		case 0:
			parent = 0
		case 1:
			parent = uint(rng.Intn(n) + 1)
		case 2:
			if i > 1 {
				parent = uint(rng.Intn(i-1) + 1)
			}
		case 3:
			parent = uint(n + 1 + rng.Intn(5))
		}
		out = append(out, mk(uint(i), parent, rng.Intn(30)))
	}
	rng.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
	return out
}

func assertInvariants(t *testing.T, in []models.Comment, nodes []Node) {
	t.Helper()

	require.Equal(t, len(in), Count(nodes), "coverage")

	seen := make(map[uint]int, len(in))
	for i, n := range nodes {
		seen[n.ID]++
		if i > 0 {
			assert.False(t, n.CreatedAt.Before(nodes[i-1].CreatedAt), "roots out of order at %d", i)
		}
		for j, r := range n.Replies {
			seen[r.ID]++
			if j > 0 {
				assert.False(t, r.CreatedAt.Before(n.Replies[j-1].CreatedAt), "replies of %d out of order", n.ID)
			}
		}
		if n.Replies != nil {
			assert.NotEmpty(t, n.Replies)
		}
	}

	for _, c := range in {
		assert.Equal(t, 1, seen[c.ID], "comment %d", c.ID)
	}
}

package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/models"
)

func TestDBCommentStore(t *testing.T) {
	ctx := context.Background()
	gdb := openDB(t)
	store := NewDBCommentStore(gdb)

	root := &models.Comment{ArticleID: 1, UserID: "alice", Body: "first"}
	require.NoError(t, store.Create(ctx, root))
	require.NotZero(t, root.ID)

	reply := &models.Comment{ArticleID: 1, UserID: "bob", Body: "second", ParentCommentID: &root.ID}
	require.NoError(t, store.Create(ctx, reply))
	require.NoError(t, store.Create(ctx, &models.Comment{ArticleID: 2, UserID: "carol", Body: "elsewhere"}))

	list, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, root.ID, list[0].ID)

	require.NoError(t, store.UpdateBody(ctx, reply.ID, "edited"))
	got, err := store.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Body)
	require.NotNil(t, got.ParentCommentID)
	assert.Equal(t, root.ID, *got.ParentCommentID)

	require.NoError(t, store.SoftDelete(ctx, root.ID))
	got, err = store.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	counts, err := store.CountByArticle(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 1, 2: 1}, counts)

	_, err = store.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.UpdateBody(ctx, 999, "x"), ErrNotFound)
	assert.ErrorIs(t, store.SoftDelete(ctx, 999), ErrNotFound)
}

// fakeBaaS 模拟 PostgREST 的 comments 表
func fakeBaaS(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *BaaSCommentStore {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/rest/v1/comments", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewBaaSCommentStore(srv.URL, "anon-key", 5*time.Second)
}

func TestBaaSCommentStoreList(t *testing.T) {
	store := fakeBaaS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "eq.7", r.URL.Query().Get("article_id"))
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		io.WriteString(w, `[
			{"id": 1, "article_id": 7, "parent_comment_id": null, "user_id": "u1", "comment": "root", "created_at": "2024-01-01T00:00:00Z"},
			{"id": "2", "article_id": "7", "parent_comment_id": "1", "user_id": "u2", "comment": "reply", "created_at": "2024-01-01 00:05:00"},
			{"id": null, "comment": "broken"}
		]`)
	})

	comments, err := store.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, uint(2), comments[1].ID)
	require.NotNil(t, comments[1].ParentCommentID)
	assert.Equal(t, uint(1), *comments[1].ParentCommentID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), comments[1].CreatedAt)
}

func TestBaaSCommentStoreGet(t *testing.T) {
	store := fakeBaaS(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.5" {
			io.WriteString(w, `[{"id": 5, "article_id": 1, "user_id": "u", "comment": "hi"}]`)
			return
		}
		io.WriteString(w, `[]`)
	})

	c, err := store.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "hi", c.Body)

	_, err = store.Get(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBaaSCommentStoreCreate(t *testing.T) {
	store := fakeBaaS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "hello", body[0]["comment"])
		assert.EqualValues(t, 3, body[0]["parent_comment_id"])

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[{"id": 10, "article_id": 1, "parent_comment_id": 3, "user_id": "u", "comment": "hello", "created_at": "2024-02-02T10:00:00Z"}]`)
	})

	parent := uint(3)
	c := &models.Comment{ArticleID: 1, ParentCommentID: &parent, UserID: "u", Body: "hello"}
	require.NoError(t, store.Create(context.Background(), c))
	assert.Equal(t, uint(10), c.ID)
	assert.Equal(t, time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC), c.CreatedAt)
}

func TestBaaSCommentStorePatch(t *testing.T) {
	var patched map[string]any
	store := fakeBaaS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		patched = nil
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		if r.URL.Query().Get("id") == "eq.1" {
			io.WriteString(w, `[{"id": 1}]`)
			return
		}
		io.WriteString(w, `[]`)
	})

	require.NoError(t, store.SoftDelete(context.Background(), 1))
	assert.Equal(t, true, patched["is_deleted"])

	require.NoError(t, store.UpdateBody(context.Background(), 1, "new"))
	assert.Equal(t, "new", patched["comment"])

	assert.ErrorIs(t, store.UpdateBody(context.Background(), 2, "new"), ErrNotFound)
}

func TestBaaSCommentStoreErrorStatus(t *testing.T) {
	store := fakeBaaS(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"invalid api key"}`)
	})

	_, err := store.List(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

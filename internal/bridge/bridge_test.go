package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/store/memory"
)

func newDispatcher() (*Dispatcher, *memory.Store) {
	st := memory.New()
	return NewDispatcher(st, nil, logger.NewNop()), st
}

func title(s string) *string { return &s }

func TestDispatchLifecycle(t *testing.T) {
	d, st := newDispatcher()
	ctx := context.Background()

	folder := d.Dispatch(ctx, Request{Type: CreateBookmark, ParentID: store.BookmarkBarID, Title: title("Work")})
	require.True(t, folder.Success, folder.Error)
	require.NotNil(t, folder.Bookmark)

	created := d.Dispatch(ctx, Request{Type: CreateBookmark, ParentID: folder.Bookmark.ID, Title: title("Docs"), URL: "https://docs.example.com"})
	require.True(t, created.Success, created.Error)
	id := created.Bookmark.ID

	updated := d.Dispatch(ctx, Request{Type: UpdateBookmark, ID: id, Title: title("Docs v2"), URL: "https://v2.docs.example.com"})
	require.True(t, updated.Success, updated.Error)
	assert.Equal(t, "Docs v2", updated.Bookmark.Title)
	assert.Equal(t, "https://v2.docs.example.com", updated.Bookmark.URL)

	// URL only: the title is kept
	urlOnly := d.Dispatch(ctx, Request{Type: UpdateBookmark, ID: id, URL: "https://v3.docs.example.com"})
	require.True(t, urlOnly.Success, urlOnly.Error)
	assert.Equal(t, "Docs v2", urlOnly.Bookmark.Title)
	assert.Equal(t, "https://v3.docs.example.com", urlOnly.Bookmark.URL)

	// Title only: the URL is kept
	titleOnly := d.Dispatch(ctx, Request{Type: UpdateBookmark, ID: id, Title: title("Docs v3")})
	require.True(t, titleOnly.Success, titleOnly.Error)
	assert.Equal(t, "Docs v3", titleOnly.Bookmark.Title)
	assert.Equal(t, "https://v3.docs.example.com", titleOnly.Bookmark.URL)

	moved := d.Dispatch(ctx, Request{Type: MoveBookmark, ID: id, NewParentID: store.OtherBookmarks, Index: store.At(0)})
	require.True(t, moved.Success, moved.Error)
	assert.Equal(t, store.OtherBookmarks, moved.Bookmark.ParentID)

	tree := d.Dispatch(ctx, Request{Type: GetBookmarks})
	require.True(t, tree.Success)
	require.Len(t, tree.Bookmarks, 1)
	assert.NotNil(t, tree.Bookmarks[0].Find(id))

	deleted := d.Dispatch(ctx, Request{Type: DeleteBookmark, ID: id})
	require.True(t, deleted.Success, deleted.Error)
	_, err := st.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDispatchFailures(t *testing.T) {
	d, _ := newDispatcher()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"unknown type", Request{Type: "RENAME_BOOKMARK"}, "type"},
		{"missing type", Request{}, "type"},
		{"update without id", Request{Type: UpdateBookmark, Title: title("x")}, "id"},
		{"negative index", Request{Type: MoveBookmark, ID: "5", Index: store.At(-1)}, "index"},
		{"delete unknown", Request{Type: DeleteBookmark, ID: "999"}, "not found"},
		{"create under root", Request{Type: CreateBookmark, ParentID: store.RootID, Title: title("x")}, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Dispatch(ctx, tt.req)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestSendRepliesAsynchronously(t *testing.T) {
	d, _ := newDispatcher()

	got := make(chan Response, 1)
	d.Send(context.Background(), Request{Type: GetBookmarks}, func(r Response) { got <- r })

	select {
	case resp := <-got:
		assert.True(t, resp.Success)
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestRequestWireFormat(t *testing.T) {
	var req Request
	raw := `{"type":"MOVE_BOOKMARK","id":"7","newParentId":"1","index":2}`
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	assert.Equal(t, MoveBookmark, req.Type)
	assert.Equal(t, "1", req.NewParentID)
	assert.Nil(t, req.Title)
	require.NotNil(t, req.Index)
	assert.Equal(t, 2, *req.Index)

	out, err := json.Marshal(Response{Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(out))
}

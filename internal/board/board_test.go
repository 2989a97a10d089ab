package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	mu    sync.Mutex
	err   error
	calls []int
	// seen 远端调用发生时看板的状态
	seen  []Card
	board *Board
}

func (f *fakeUpdater) UpdateSessionNo(ctx context.Context, lessonID string, sessionNo int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sessionNo)
	if f.board != nil {
		f.seen = f.board.Lessons()
	}
	return f.err
}

func sampleCards() []Card {
	return []Card{
		{ID: "l1", Title: "Fundamentals", SessionNo: 1},
		{ID: "l2", Title: "Classification", SessionNo: 2},
		{ID: "l3", Title: "Clustering", SessionNo: 3},
	}
}

func TestMoveUpdatesLocallyBeforeRemote(t *testing.T) {
	up := &fakeUpdater{}
	b := New(sampleCards(), up)
	up.board = b

	require.NoError(t, b.Move(context.Background(), "l2", 5))

	assert.Equal(t, []int{5}, up.calls)
	require.Len(t, up.seen, 3)
	assert.Equal(t, 5, up.seen[1].SessionNo)
	assert.Equal(t, 5, b.Lessons()[1].SessionNo)
}

func TestMoveRollsBackOnRemoteFailure(t *testing.T) {
	up := &fakeUpdater{err: errors.New("db down")}
	b := New(sampleCards(), up)
	before := b.Lessons()

	err := b.Move(context.Background(), "l3", 9)
	assert.EqualError(t, err, "db down")
	assert.Equal(t, before, b.Lessons())
}

func TestMoveNoops(t *testing.T) {
	up := &fakeUpdater{}
	b := New(sampleCards(), up)

	require.NoError(t, b.Move(context.Background(), "missing", 4))
	require.NoError(t, b.Move(context.Background(), "l1", 1))
	assert.Empty(t, up.calls)

	assert.ErrorIs(t, b.Move(context.Background(), "l1", 0), ErrInvalidSession)
}

func TestNewCopiesInput(t *testing.T) {
	cards := sampleCards()
	b := New(cards, &fakeUpdater{})
	cards[0].SessionNo = 99
	assert.Equal(t, 1, b.Lessons()[0].SessionNo)
}

func TestColumns(t *testing.T) {
	b := New(sampleCards(), &fakeUpdater{})
	cols := b.Columns()
	assert.Len(t, cols, MinColumns)
	assert.Equal(t, 1, cols[0])
	assert.Equal(t, 12, cols[11])

	b = New([]Card{{ID: "x", SessionNo: 15}}, &fakeUpdater{})
	assert.Len(t, b.Columns(), 16)

	b = New(nil, &fakeUpdater{})
	assert.Len(t, b.Columns(), MinColumns)
}

func TestView(t *testing.T) {
	cards := append(sampleCards(), Card{ID: "l4", Title: "Bayes", SessionNo: 2})
	b := New(cards, &fakeUpdater{})

	view := b.View()
	require.Len(t, view, MinColumns)
	require.Len(t, view[1].Lessons, 2)
	assert.Equal(t, "Bayes", view[1].Lessons[0].Title)
	assert.NotNil(t, view[5].Lessons)
	assert.Empty(t, view[5].Lessons)
}

func TestHTTPUpdater(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		if gotBody["session_no"] == 13 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":403,"message":"Forbidden"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
	}))
	defer srv.Close()

	up := NewHTTPUpdater(srv.URL+"/", "tok")
	require.NoError(t, up.UpdateSessionNo(context.Background(), "abc", 4))
	assert.Equal(t, "/api/lessons/abc/session", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, 4, gotBody["session_no"])

	b := New(sampleCards(), up)
	err := b.Move(context.Background(), "l1", 13)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden")
	assert.Equal(t, 1, b.Lessons()[0].SessionNo)
}

func TestFetchBoardThenMove(t *testing.T) {
	var moved map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/courses/c1/board":
			_, _ = w.Write([]byte(`{"code":200,"message":"success","data":[
				{"session_no":1,"lessons":[{"id":"l1","title":"Intro","session_no":1}]},
				{"session_no":2,"lessons":[]},
				{"session_no":3,"lessons":[{"id":"l2","title":"Trees","session_no":3},{"id":"l3","title":"Boosting","session_no":3}]}
			]}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/api/lessons/l2/session":
			_ = json.NewDecoder(r.Body).Decode(&moved)
			_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"message":"Course not found"}`))
		}
	}))
	defer srv.Close()

	up := NewHTTPUpdater(srv.URL, "tok")
	cards, err := up.FetchBoard(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, cards, 3)

	b := New(cards, up)
	require.NoError(t, b.Move(context.Background(), "l2", 2))
	assert.Equal(t, 2, moved["session_no"])
	view := b.View()
	require.Len(t, view[1].Lessons, 1)
	assert.Equal(t, "l2", view[1].Lessons[0].ID)

	_, err = up.FetchBoard(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Course not found")
}

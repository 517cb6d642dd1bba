package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
)

// fakeStore serves canned history.
type fakeStore struct {
	messages  []chat.Message
	recentErr error
	gotLimit  int
}

func (s *fakeStore) Append(context.Context, chat.Draft) (chat.Message, error) {
	return chat.Message{}, errors.New("not implemented")
}

func (s *fakeStore) MarkRead(context.Context, string) error { return nil }

func (s *fakeStore) Recent(_ context.Context, limit int) ([]chat.Message, error) {
	s.gotLimit = limit
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	if limit < len(s.messages) {
		return s.messages[:limit], nil
	}
	return s.messages, nil
}

type historyResponse struct {
	Code int `json:"code"`
	Data struct {
		Messages []chat.Message `json:"messages"`
	} `json:"data"`
}

func TestHandleHistoryReturnsMessagesWithReadFlags(t *testing.T) {
	fs := &fakeStore{messages: []chat.Message{
		{ID: "m-1", Author: "alice", Text: "first", Read: true, CreatedAt: time.Now().Add(-time.Minute)},
		{ID: "m-2", Author: "bob", VoiceKey: "voice/clip.webm", CreatedAt: time.Now()},
	}}
	deps := &AppDeps{Store: fs}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	HandleHistory(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 0, body.Code)
	require.Len(t, body.Data.Messages, 2)
	require.True(t, body.Data.Messages[0].Read)
	require.Equal(t, "voice/clip.webm", body.Data.Messages[1].VoiceKey)
	require.Equal(t, DefaultHistoryLimit, fs.gotLimit)
}

func TestHandleHistoryLimitIsClamped(t *testing.T) {
	fs := &fakeStore{}
	deps := &AppDeps{Store: fs}

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=100000", nil)
	rec := httptest.NewRecorder()
	HandleHistory(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MaxHistoryLimit, fs.gotLimit)
}

func TestHandleHistoryRejectsBadLimit(t *testing.T) {
	deps := &AppDeps{Store: &fakeStore{}}

	for _, limit := range []string{"zero", "-5", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history?limit="+limit, nil)
		rec := httptest.NewRecorder()
		HandleHistory(deps)(rec, req)

		var body historyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, errs.ErrInvalidParams, body.Code)
	}
}

func TestHandleHistoryStoreFailure(t *testing.T) {
	deps := &AppDeps{Store: &fakeStore{recentErr: errors.New("database down")}}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	HandleHistory(deps)(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errs.ErrUnknown, body.Code)
}

func TestHandleHistoryEmptyStoreReturnsEmptyList(t *testing.T) {
	deps := &AppDeps{Store: &fakeStore{}}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	HandleHistory(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"messages":[]`)
}

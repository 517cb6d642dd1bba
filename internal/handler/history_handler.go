package handler

import (
	"net/http"
	"strconv"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/resp"
)

const (
	// DefaultHistoryLimit is the number of messages returned when no limit is given.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit caps how many messages a single request may fetch.
	MaxHistoryLimit = 200
)

// HandleHistory creates an HTTP HandlerFunc that returns the most recent persisted
// messages in ascending creation order, including their persisted read flags.
// Reconnecting clients use it to rebuild their timeline before resuming the stream.
func HandleHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultHistoryLimit

		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			if parsed > MaxHistoryLimit {
				parsed = MaxHistoryLimit
			}
			limit = parsed
		}

		messages, err := deps.Store.Recent(r.Context(), limit)
		if err != nil {
			logx.Error(err, "Failed to load message history", "limit", limit)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if messages == nil {
			messages = []chat.Message{}
		}

		data := map[string]any{
			"messages": messages,
		}
		resp.RespondSuccess(w, r, data)
	}
}

package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/req"
	"chatrelay/internal/pkg/resp"
)

// PresignClipInput defines the JSON input structure for generating a clip upload URL.
type PresignClipInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	ClipSize int64  `json:"clip_size"`
}

// HandlePresignClipUploadURL creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for uploading a voice clip. The returned clip key is what the
// client then references in a SEND_MESSAGE frame.
func HandlePresignClipUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PresignClipInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := chat.ValidateClipSize(input.ClipSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := chat.ValidateClipType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		clipExt := strings.ToLower(filepath.Ext(input.FileName))
		clipID := uuid.New().String()
		clipKey := fmt.Sprintf("%s%s%s", chat.ClipKeyPrefix, clipID, clipExt)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			clipKey,
			input.MimeType,
			input.ClipSize,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrClipStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"clipKey":      clipKey,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignClipDownloadURL creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for downloading a voice clip and redirects the client to it.
func HandlePresignClipDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipKey := r.URL.Query().Get("k")
		if clipKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := chat.ValidateClipKey(clipKey); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		// Confirm the clip exists before handing out a URL that would 404 at
		// the storage provider.
		if _, err := deps.Storage.GetClipMetadata(r.Context(), clipKey); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrVoiceClipInvalid))
			return
		}

		url, err := deps.Storage.PresignDownload(
			r.Context(),
			clipKey,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrClipStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

package chat

import (
	"path/filepath"
	"strings"
	"time"

	"chatrelay/internal/pkg/errs"
)

const (
	// MaxClipSizeMB is the maximum allowed voice clip size in megabytes.
	MaxClipSizeMB = 5

	// MaxClipSize is the maximum allowed voice clip size in bytes.
	MaxClipSize = MaxClipSizeMB * 1024 * 1024

	// PresignedURLDuration is the fixed duration for which a presigned clip URL is valid.
	PresignedURLDuration = 5 * time.Minute

	// ClipKeyPrefix namespaces every voice clip key in the object store.
	ClipKeyPrefix = "voice/"
)

// AllowedClipMIMETypes defines the set of permitted MIME types for voice clips.
var AllowedClipMIMETypes = map[string]struct{}{
	"audio/webm": {},
	"audio/ogg":  {},
	"audio/mpeg": {},
	"audio/mp4":  {},
	"audio/wav":  {},
}

// clipExtToMIME maps clip file extensions to their corresponding MIME types.
var clipExtToMIME = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
}

// ValidateClipSize checks if the provided clip size is within acceptable limits.
func ValidateClipSize(clipSize int64) *errs.CustomError {
	if clipSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if clipSize > MaxClipSize {
		return errs.NewError(errs.ErrVoiceClipTooLarge)
	}

	return nil
}

// ValidateClipType checks if the provided clip name and MIME type are allowed
// and consistent with each other.
func ValidateClipType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedClipMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	expectedMIME, ok := clipExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	return nil
}

// ValidateClipKey checks that a voice clip reference carried in a message points
// into the clip namespace and has a recognized extension. The key is issued by
// the presign endpoint, so anything else is a client fabricating references.
func ValidateClipKey(key string) *errs.CustomError {
	if !strings.HasPrefix(key, ClipKeyPrefix) {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	if strings.Contains(key, "..") {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	ext := strings.ToLower(filepath.Ext(key))
	if _, ok := clipExtToMIME[ext]; !ok {
		return errs.NewError(errs.ErrVoiceClipInvalid)
	}

	return nil
}

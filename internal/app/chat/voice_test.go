package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/pkg/errs"
)

func TestValidateClipSize(t *testing.T) {
	require.Nil(t, ValidateClipSize(1))
	require.Nil(t, ValidateClipSize(MaxClipSize))

	err := ValidateClipSize(0)
	require.NotNil(t, err)
	require.Equal(t, errs.ErrInvalidParams, err.Code)

	err = ValidateClipSize(MaxClipSize + 1)
	require.NotNil(t, err)
	require.Equal(t, errs.ErrVoiceClipTooLarge, err.Code)
}

func TestValidateClipType(t *testing.T) {
	require.Nil(t, ValidateClipType("note.webm", "audio/webm"))
	require.Nil(t, ValidateClipType("note.MP3", "Audio/MPEG"))

	cases := []struct {
		name     string
		fileName string
		mimeType string
	}{
		{"disallowed mime", "note.exe", "application/octet-stream"},
		{"missing extension", "note", "audio/webm"},
		{"extension does not match mime", "note.wav", "audio/webm"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClipType(tt.fileName, tt.mimeType)
			require.NotNil(t, err)
			require.Equal(t, errs.ErrVoiceClipInvalid, err.Code)
		})
	}
}

func TestValidateClipKey(t *testing.T) {
	require.Nil(t, ValidateClipKey("voice/1b9d6bcd.webm"))

	cases := []struct {
		name string
		key  string
	}{
		{"outside namespace", "avatars/1b9d6bcd.webm"},
		{"path traversal", "voice/../secrets.webm"},
		{"unknown extension", "voice/1b9d6bcd.tar"},
		{"no extension", "voice/1b9d6bcd"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClipKey(tt.key)
			require.NotNil(t, err)
			require.Equal(t, errs.ErrVoiceClipInvalid, err.Code)
		})
	}
}

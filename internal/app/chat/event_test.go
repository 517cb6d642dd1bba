package chat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/pkg/errs"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name     string
		draft    Draft
		wantCode int
	}{
		{
			name:  "text only",
			draft: Draft{Author: "alice", Text: "hi"},
		},
		{
			name:  "voice only",
			draft: Draft{Author: "alice", VoiceKey: "voice/abc.webm"},
		},
		{
			name:  "text and voice together",
			draft: Draft{Author: "alice", Text: "listen to this", VoiceKey: "voice/abc.webm"},
		},
		{
			name:     "neither text nor voice",
			draft:    Draft{Author: "alice"},
			wantCode: errs.ErrMessageEmpty,
		},
		{
			name:     "text too long",
			draft:    Draft{Author: "alice", Text: strings.Repeat("x", MaxContentBytes+1)},
			wantCode: errs.ErrMessageContentTooLong,
		},
		{
			name:     "voice key outside clip namespace",
			draft:    Draft{Author: "alice", VoiceKey: "secrets/passwd"},
			wantCode: errs.ErrVoiceClipInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantCode == 0 {
				require.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			require.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestEventEncodeRoundTrip(t *testing.T) {
	evt, err := NewEvent(TypePresence, PresencePayload{Online: []string{"alice"}})
	require.NoError(t, err)

	data, err := evt.Encode()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, TypePresence, decoded.Type)

	var payload PresencePayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	require.Equal(t, []string{"alice"}, payload.Online)
}

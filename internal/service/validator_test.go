package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantReason string
	}{
		{name: "valid trimmed", input: "  xin chào  ", want: "xin chào"},
		{name: "empty", input: "", wantReason: reasonEmpty},
		{name: "whitespace only", input: " \t\n ", wantReason: reasonTooShort},
		{name: "too long", input: strings.Repeat("a", 501), wantReason: reasonTooLong},
		{name: "max length in runes", input: strings.Repeat("ớ", 500), want: strings.Repeat("ớ", 500)},
		{name: "script tag", input: "<script>alert(1)</script>", wantReason: reasonUnsafe},
		{name: "script tag mixed case", input: "tìm nhà <ScRiPt src=x>", wantReason: reasonUnsafe},
		{name: "javascript uri", input: "JavaScript:void(0)", wantReason: reasonUnsafe},
		{name: "event handler", input: `<img onerror="x">`, wantReason: reasonUnsafe},
		{name: "drop table", input: "apartment; drop  table users", wantReason: reasonUnsafe},
		{name: "delete from", input: "DELETE FROM listings", wantReason: reasonUnsafe},
		{name: "insert into", input: "insert into x values (1)", wantReason: reasonUnsafe},
		{name: "update set", input: "update users set admin=1", wantReason: reasonUnsafe},
		{name: "harmless words", input: "I want to update my search, one bedroom please", want: "I want to update my search, one bedroom please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateInput(tt.input)
			if tt.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInputRejected))

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.wantReason, inputErr.Reason)
			assert.Empty(t, got)
		})
	}
}

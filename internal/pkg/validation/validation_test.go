package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order/internal/common/enum"
)

type textPayload struct {
	Text string `json:"text" validate:"required,notblank"`
}

type modePayload struct {
	Mode enum.DemoModeEnum `json:"mode" validate:"required,enum"`
}

func TestValidateNotBlank(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "text", text: "two coffees"},
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace", text: "  \n\t ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(textPayload{Text: tt.text})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "text")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEnum(t *testing.T) {
	assert.NoError(t, Validate(modePayload{Mode: enum.MODE_ENHANCED}))

	err := Validate(modePayload{Mode: "turbo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed enum values")
}

package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegisterRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{URL: "https://example.com/v/1", Title: "a title", Duration: 120}, false},
		{"url only", RegisterRequest{URL: "https://example.com/v/2"}, false},
		{"missing url", RegisterRequest{Title: "no url"}, true},
		{"url too long", RegisterRequest{URL: "https://example.com/" + strings.Repeat("x", 500)}, true},
		{"title too long", RegisterRequest{URL: "https://example.com/v/3", Title: strings.Repeat("t", 201)}, true},
		{"negative duration", RegisterRequest{URL: "https://example.com/v/4", Duration: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegisterRequest(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBatchRegisterRequest(t *testing.T) {
	err := ValidateBatchRegisterRequest(&BatchRegisterRequest{})
	assert.Error(t, err)

	err = ValidateBatchRegisterRequest(&BatchRegisterRequest{Entries: []RegisterRequest{
		{URL: "https://example.com/v/1"},
		{URL: ""},
	}})
	assert.Error(t, err)

	err = ValidateBatchRegisterRequest(&BatchRegisterRequest{Entries: []RegisterRequest{
		{URL: "https://example.com/v/1"},
		{URL: "https://example.com/v/2"},
	}})
	assert.NoError(t, err)
}

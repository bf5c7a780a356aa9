package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdviceResponse_Plain(t *testing.T) {
	resp, err := parseAdviceResponse(`{"level":"SAFE","action":"approve","reasoning":"routine write"}`)
	require.NoError(t, err)
	assert.Equal(t, "SAFE", resp.Level)
	assert.Equal(t, "approve", resp.Action)
}

func TestParseAdviceResponse_WrappedInProse(t *testing.T) {
	text := "Sure, here is my answer:\n```json\n{\"level\":\"DANGEROUS\",\"action\":\"escalate\",\"reasoning\":\"deletes a file\"}\n```\nLet me know if you need more."
	resp, err := parseAdviceResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "DANGEROUS", resp.Level)
	assert.Equal(t, "escalate", resp.Action)
}

func TestParseAdviceResponse_MissingFields(t *testing.T) {
	_, err := parseAdviceResponse(`{"reasoning":"no level or action"}`)
	assert.Error(t, err)
}

func TestParseAdviceResponse_NoJSON(t *testing.T) {
	_, err := parseAdviceResponse("no json here")
	assert.Error(t, err)
}

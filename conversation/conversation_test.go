package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	log := Log{
		NewHumanTurn("What is IDC?"),
		NewToolTurn(`{"prediction":"normal tissue"}`, "analyze_image"),
		NewAssistantTurn("IDC is invasive ductal carcinoma. I am not a doctor."),
	}

	bs, err := Marshal(log)
	require.NoError(t, err)

	got, err := Unmarshal(bs)
	require.NoError(t, err)

	assert.Equal(t, log, got)
}

func TestMarshalUsesWireDiscriminators(t *testing.T) {
	log := Log{
		NewHumanTurn("hi"),
		NewAssistantTurn("hello"),
		NewToolTurn("{}", "analyze_image"),
	}

	bs, err := Marshal(log)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(bs, &records))

	require.Len(t, records, 3)
	assert.Equal(t, "human", records[0]["type"])
	assert.Equal(t, "ai", records[1]["type"])
	assert.Equal(t, "tool", records[2]["type"])
	assert.Equal(t, "analyze_image", records[2]["tool_call_id"])

	_, hasToolId := records[0]["tool_call_id"]
	assert.False(t, hasToolId)
}

func TestUnmarshalRecoversUnknownTypes(t *testing.T) {
	bs := []byte(`[
		{"type": "human", "content": "hi"},
		{"type": "system", "content": "you are an assistant"},
		{"content": "no type at all"}
	]`)

	log, err := Unmarshal(bs)
	require.NoError(t, err)

	require.Len(t, log, 3, "unknown discriminators are recovered, not dropped")
	assert.Equal(t, RoleAssistant, log[1].Role)
	assert.Equal(t, "you are an assistant", log[1].Content)
	assert.Equal(t, RoleAssistant, log[2].Role)
}

func TestUnmarshalCorruptInput(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))

	require.Error(t, err)
}

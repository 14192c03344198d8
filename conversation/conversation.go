package conversation

import "encoding/json"

type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool_result"
)

// Turn is one message in a conversation. Turns are immutable once appended;
// a Log only ever grows until it is cleared as a whole.
type Turn struct {
	Role    Role
	Content string
	ToolId  string
}

type Log []Turn

func NewHumanTurn(content string) Turn {
	return Turn{Role: RoleHuman, Content: content}
}

func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

func NewToolTurn(content string, toolId string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolId: toolId}
}

// record is the persisted representation of a Turn:
// {"type": "human"|"ai"|"tool", "content": ..., "tool_call_id"?: ...}
type record struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	ToolCallId string `json:"tool_call_id,omitempty"`
}

func Marshal(log Log) ([]byte, error) {
	records := make([]record, 0, len(log))

	for _, turn := range log {
		rec := record{Content: turn.Content}

		switch turn.Role {
		case RoleHuman:
			rec.Type = "human"
		case RoleAssistant:
			rec.Type = "ai"
		case RoleTool:
			rec.Type = "tool"
			rec.ToolCallId = turn.ToolId
		default:
			rec.Type = "ai"
		}

		records = append(records, rec)
	}

	return json.MarshalIndent(records, "", "  ")
}

func Unmarshal(bs []byte) (Log, error) {
	var records []record
	if err := json.Unmarshal(bs, &records); err != nil {
		return nil, err
	}

	log := make(Log, 0, len(records))

	for _, rec := range records {
		switch rec.Type {
		case "human":
			log = append(log, NewHumanTurn(rec.Content))
		case "ai":
			log = append(log, NewAssistantTurn(rec.Content))
		case "tool":
			log = append(log, NewToolTurn(rec.Content, rec.ToolCallId))
		default:
			// unknown discriminators are recovered as assistant turns
			// rather than dropped
			log = append(log, NewAssistantTurn(rec.Content))
		}
	}

	return log, nil
}

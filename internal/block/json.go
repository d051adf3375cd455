package block

import (
	"encoding/json"
	"fmt"
)

// blockJSON is the wire form of a Block.
type blockJSON struct {
	ID       string            `json:"id"`
	ParentID string            `json:"parent_id,omitempty"`
	Type     Kind              `json:"type"`
	Fields   map[string]string `json:"fields"`
}

// MarshalJSON encodes b as {"id","parent_id","type","fields"}.
// Empty fields are omitted from the field map.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Payload == nil {
		return nil, fmt.Errorf("block %s: nil payload", b.ID)
	}
	return json.Marshal(blockJSON{
		ID:       b.ID,
		ParentID: b.ParentID,
		Type:     b.Kind(),
		Fields:   Fields(b.Payload),
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p, err := NewPayload(raw.Type, raw.Fields)
	if err != nil {
		return fmt.Errorf("block %s: %w", raw.ID, err)
	}
	*b = Block{ID: raw.ID, ParentID: raw.ParentID, Payload: p}
	return nil
}

package block

import "fmt"

// Document is the nested, id-free form of a suite used in YAML and JSON
// files. Children are listed under their parent instead of linked by id.
type Document struct {
	Name   string    `yaml:"name" json:"name"`
	Blocks []DocNode `yaml:"blocks" json:"blocks"`
}

// DocNode is one block of a Document.
type DocNode struct {
	Type     Kind              `yaml:"type" json:"type"`
	Fields   map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Children []DocNode         `yaml:"children,omitempty" json:"children,omitempty"`
}

// Suite flattens d into a Suite, assigning fresh ids from gen in
// pre-order, so Blocks order matches document order.
func (d Document) Suite(gen IDGenerator) (Suite, error) {
	s := Suite{ID: gen.NewID(), Name: d.Name}
	if err := appendNodes(&s, gen, "", d.Blocks, "blocks"); err != nil {
		return Suite{}, err
	}
	return s, nil
}

func appendNodes(s *Suite, gen IDGenerator, parentID string, nodes []DocNode, path string) error {
	for i, n := range nodes {
		here := fmt.Sprintf("%s[%d]", path, i)
		p, err := NewPayload(n.Type, n.Fields)
		if err != nil {
			return fmt.Errorf("%s: %w", here, err)
		}
		id := gen.NewID()
		s.Blocks = append(s.Blocks, Block{ID: id, ParentID: parentID, Payload: p})
		if err := appendNodes(s, gen, id, n.Children, here+".children"); err != nil {
			return err
		}
	}
	return nil
}

// DocumentOf converts a suite to its nested form.
func DocumentOf(s Suite) Document {
	return Document{Name: s.Name, Blocks: docChildren(s, "")}
}

func docChildren(s Suite, parentID string) []DocNode {
	var out []DocNode
	for _, b := range s.Children(parentID) {
		n := DocNode{Type: b.Kind(), Children: docChildren(s, b.ID)}
		if f := Fields(b.Payload); len(f) > 0 {
			n.Fields = f
		}
		out = append(out, n)
	}
	return out
}

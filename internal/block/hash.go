package block

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future shape encoding.
const (
	DomainShape = "blocktest/shape/v1"
	DomainState = "blocktest/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Shape returns the id-free nested form of s: each top-level block with its
// kind, non-empty fields and children, in sibling order. Rubric links are
// kept because they are part of the authored content.
func Shape(s Suite) []any {
	return shapeChildren(s, "")
}

func shapeChildren(s Suite, parentID string) []any {
	children := s.Children(parentID)
	out := make([]any, 0, len(children))
	for _, b := range children {
		fields := make(map[string]any)
		for k, v := range Fields(b.Payload) {
			fields[k] = v
		}
		out = append(out, map[string]any{
			"type":     string(b.Kind()),
			"fields":   fields,
			"children": shapeChildren(s, b.ID),
		})
	}
	return out
}

// Fingerprint hashes the shape of s. Two suites with the same kinds, field
// values and parent/child structure share a fingerprint regardless of ids
// or suite name.
func Fingerprint(s Suite) (string, error) {
	canonical, err := MarshalCanonical(Shape(s))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainShape, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Shapes contain only strings, so this cannot fail for well-formed suites.
func MustFingerprint(s Suite) string {
	fp, err := Fingerprint(s)
	if err != nil {
		panic(err)
	}
	return fp
}

// StateFingerprint hashes every suite's name and shape plus the active suite
// id, rubric links and attached file names. It identifies a revision.
func StateFingerprint(st State) (string, error) {
	suites := make([]any, 0, len(st.Suites))
	for _, s := range st.Suites {
		suites = append(suites, map[string]any{
			"id":     s.ID,
			"name":   s.Name,
			"blocks": Shape(s),
		})
	}
	files := make([]any, 0, len(st.SourceFiles))
	for _, f := range st.SourceFiles {
		files = append(files, map[string]any{"name": f.Name, "content": f.Content})
	}
	rubric := make([]any, 0, len(st.RubricItems))
	for _, r := range st.RubricItems {
		rubric = append(rubric, map[string]any{"id": r.ID, "name": r.Name, "points": r.Points})
	}
	canonical, err := MarshalCanonical(map[string]any{
		"suites": suites,
		"active": st.ActiveSuiteID,
		"files":  files,
		"rubric": rubric,
	})
	if err != nil {
		return "", fmt.Errorf("StateFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

package codec

import (
	"bytes"
	"fmt"

	"github.com/dpshade/promptlib/internal/models"
	"gopkg.in/yaml.v3"
)

// YAML implements Codec on gopkg.in/yaml.v3. It works on the node API so key
// order survives a decode/encode round trip.
type YAML struct {
	Indent int
}

// NewYAML creates a YAML codec with the default two-space indent
func NewYAML() *YAML {
	return &YAML{Indent: 2}
}

// Name returns the dialect name
func (c *YAML) Name() string {
	return "yaml"
}

// Decode parses a single YAML mapping
func (c *YAML) Decode(data []byte) (*models.Mapping, error) {
	root, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("header block is empty")
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("header block is not a mapping (line %d)", root.Line)
	}
	return newConverter().mapping(root)
}

// DecodeList parses a YAML sequence of mappings
func (c *YAML) DecodeList(data []byte) ([]*models.Mapping, error) {
	root, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence at line %d", root.Line)
	}

	conv := newConverter()
	items := make([]*models.Mapping, 0, len(root.Content))
	for _, n := range root.Content {
		n = resolveAlias(n)
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("expected a mapping at line %d", n.Line)
		}
		m, err := conv.mapping(n)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

// EncodeList serializes mappings as a block-style YAML sequence
func (c *YAML) EncodeList(items []*models.Mapping) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, m := range items {
		n, err := nodeFromMapping(m)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	indent := c.Indent
	if indent <= 0 {
		indent = 2
	}
	encoder.SetIndent(indent)
	if err := encoder.Encode(seq); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func parseRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	// yaml.v3 rejects self-referencing anchors, excessive aliasing and
	// duplicate keys here
	var check any
	if err := doc.Decode(&check); err != nil {
		return nil, err
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return nil, nil
	}
	return root, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// maxExpandedNodes bounds alias expansion for a single decode
const maxExpandedNodes = 100000

// converter turns a node tree into Mapping values. It refuses alias cycles
// and stops once expansion passes maxExpandedNodes.
type converter struct {
	active  map[*yaml.Node]bool
	visited int
}

func newConverter() *converter {
	return &converter{active: make(map[*yaml.Node]bool)}
}

func (c *converter) enter(n *yaml.Node) error {
	if c.active[n] {
		return fmt.Errorf("alias cycle at line %d", n.Line)
	}
	c.visited++
	if c.visited > maxExpandedNodes {
		return fmt.Errorf("document expands to more than %d nodes", maxExpandedNodes)
	}
	c.active[n] = true
	return nil
}

func (c *converter) leave(n *yaml.Node) {
	delete(c.active, n)
}

func (c *converter) mapping(n *yaml.Node) (*models.Mapping, error) {
	if err := c.enter(n); err != nil {
		return nil, err
	}
	defer c.leave(n)

	m := models.NewMapping()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := resolveAlias(n.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("unsupported non-scalar key at line %d", key.Line)
		}
		if key.Value == "<<" {
			if err := c.merge(m, resolveAlias(n.Content[i+1])); err != nil {
				return nil, err
			}
			continue
		}
		value, err := c.value(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		m.Set(key.Value, value)
	}
	return m, nil
}

// merge applies a "<<" merge key without overriding explicit keys
func (c *converter) merge(m *models.Mapping, src *yaml.Node) error {
	var sources []*yaml.Node
	switch src.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{src}
	case yaml.SequenceNode:
		for _, s := range src.Content {
			sources = append(sources, resolveAlias(s))
		}
	default:
		return fmt.Errorf("merge value at line %d is not a mapping", src.Line)
	}
	for _, s := range sources {
		if s.Kind != yaml.MappingNode {
			return fmt.Errorf("merge value at line %d is not a mapping", s.Line)
		}
		merged, err := c.mapping(s)
		if err != nil {
			return err
		}
		for _, k := range merged.Keys() {
			if !m.Has(k) {
				v, _ := merged.Get(k)
				m.Set(k, v)
			}
		}
	}
	return nil
}

func (c *converter) value(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.SequenceNode:
		if err := c.enter(n); err != nil {
			return nil, err
		}
		defer c.leave(n)

		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.value(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		if err := c.enter(n); err != nil {
			return nil, err
		}
		c.leave(n)
		return scalarFromNode(n)
	default:
		return nil, fmt.Errorf("unsupported yaml node at line %d", n.Line)
	}
}

func scalarFromNode(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		// Keep the literal so "1.0" is not rewritten as "1"
		return models.Number(n.Value), nil
	default:
		return n.Value, nil
	}
}

func nodeFromMapping(m *models.Mapping) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		valueNode, err := nodeFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			valueNode,
		)
	}
	return n, nil
}

func nodeFromValue(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *models.Mapping:
		return nodeFromMapping(val)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := nodeFromValue(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case []string:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
		}
		return n, nil
	case models.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: string(val)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(val); err != nil {
			return nil, err
		}
		return n, nil
	}
}

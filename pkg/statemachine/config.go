package statemachine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config 状态机配置，状态保持定义顺序
//
// 对应的 YAML 文档：
//
//	initial: idle
//	states:
//	  idle:
//	    transitions:
//	      start: running
//	  running:
//	    transitions:
//	      stop: idle
type Config struct {
	Initial State `yaml:"initial" json:"initial" env:"FSM_INITIAL"`

	order []State
	defs  map[State]StateDef
}

// NewConfig 创建以 initial 为初始状态的空配置
func NewConfig(initial State) *Config {
	return &Config{
		Initial: initial,
		defs:    make(map[State]StateDef),
	}
}

// AddState 添加状态及其转换规则，重复添加时保留原位置并替换规则
func (c *Config) AddState(name State, transitions Transitions) *Config {
	if c.defs == nil {
		c.defs = make(map[State]StateDef)
	}
	if _, exists := c.defs[name]; !exists {
		c.order = append(c.order, name)
	}

	copied := make(Transitions, len(transitions))
	for event, to := range transitions {
		copied[event] = to
	}
	c.defs[name] = StateDef{Transitions: copied}
	return c
}

// Has 判断状态是否已定义
func (c *Config) Has(name State) bool {
	_, ok := c.defs[name]
	return ok
}

// Lookup 返回状态定义
func (c *Config) Lookup(name State) (StateDef, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// Names 按定义顺序返回所有状态
func (c *Config) Names() []State {
	return append([]State(nil), c.order...)
}

// Len 返回状态数量
func (c *Config) Len() int {
	return len(c.order)
}

// clone 深拷贝配置，FSM 持有的配置与调用方隔离
func (c *Config) clone() *Config {
	if c == nil {
		return NewConfig("")
	}
	out := NewConfig(c.Initial)
	for _, name := range c.order {
		out.AddState(name, c.defs[name].Transitions)
	}
	return out
}

// UnmarshalYAML 按节点解析，名称取原始文本，on/off/010 等不会被转换成布尔或数字
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	value = resolveAlias(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fsm config must be a mapping", value.Line)
	}

	parsed := NewConfig("")
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], resolveAlias(value.Content[i+1])
		switch key.Value {
		case "initial":
			name, err := scalarText(val)
			if err != nil {
				return fmt.Errorf("initial: %w", err)
			}
			parsed.Initial = State(name)
		case "states":
			if err := parsed.decodeStates(val); err != nil {
				return err
			}
		}
	}

	*c = *parsed
	return nil
}

func (c *Config) decodeStates(node *yaml.Node) error {
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: states must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := State(node.Content[i].Value)
		def := resolveAlias(node.Content[i+1])

		transitions := make(Transitions)
		if !isNull(def) {
			if def.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: state %q must be a mapping", def.Line, name)
			}
			for j := 0; j+1 < len(def.Content); j += 2 {
				if def.Content[j].Value != "transitions" {
					continue
				}
				if err := decodeTransitions(resolveAlias(def.Content[j+1]), transitions); err != nil {
					return fmt.Errorf("state %q: %w", name, err)
				}
			}
		}
		c.AddState(name, transitions)
	}
	return nil
}

func decodeTransitions(node *yaml.Node, into Transitions) error {
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: transitions must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		event := Event(node.Content[i].Value)
		target, err := scalarText(resolveAlias(node.Content[i+1]))
		if err != nil {
			return fmt.Errorf("event %q: %w", event, err)
		}
		into[event] = State(target)
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// scalarText 返回标量的原始文本，null 视为空字符串
func scalarText(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	if isNull(n) {
		return "", nil
	}
	return n.Value, nil
}

func stringNode(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	return n
}

// MarshalYAML 按定义顺序输出 states
func (c Config) MarshalYAML() (interface{}, error) {
	states := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.order {
		transitions := &yaml.Node{Kind: yaml.MappingNode}
		tr := c.defs[name].Transitions
		events := make([]string, 0, len(tr))
		for event := range tr {
			events = append(events, string(event))
		}
		sort.Strings(events)
		for _, event := range events {
			transitions.Content = append(transitions.Content, stringNode(event), stringNode(string(tr[Event(event)])))
		}

		def := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{stringNode("transitions"), transitions}}
		states.Content = append(states.Content, stringNode(string(name)), def)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			stringNode("initial"), stringNode(string(c.Initial)),
			stringNode("states"), states,
		},
	}, nil
}

// UnmarshalJSON 解析 JSON 并保留 states 的文档顺序
func (c *Config) UnmarshalJSON(data []byte) error {
	var doc struct {
		Initial State           `json:"initial"`
		States  json.RawMessage `json:"states"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	parsed := NewConfig(doc.Initial)
	if len(doc.States) > 0 && !bytes.Equal(doc.States, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(doc.States))
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return fmt.Errorf("states must be an object, got %v", tok)
		}

		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			name := tok.(string)

			var def StateDef
			if err := dec.Decode(&def); err != nil {
				return fmt.Errorf("state %q: %w", name, err)
			}
			parsed.AddState(State(name), def.Transitions)
		}
	}

	*c = *parsed
	return nil
}

// MarshalJSON 按定义顺序输出 states
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	initial, err := json.Marshal(c.Initial)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"initial":`)
	buf.Write(initial)
	buf.WriteString(`,"states":{`)

	for i, name := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		def, err := json.Marshal(c.defs[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(def)
	}

	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

package ami

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEncode marks trees that cannot be represented in the textual form.
	ErrEncode = errors.New("ami: encode error")
	// ErrDecode marks malformed parameter-tree text.
	ErrDecode = errors.New("ami: decode error")
)

// Encode serializes a parameter tree into the parenthesized textual form.
// The grammar has no escaping, so names and string leaves containing
// parentheses or whitespace are rejected rather than silently corrupted.
func Encode(r *Root) (string, error) {
	if r == nil || r.Params == nil {
		return "", fmt.Errorf("%w: nil root", ErrEncode)
	}
	if err := checkToken(r.Name); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(r.Name)
	if err := encodeChildren(&b, r.Params); err != nil {
		return "", err
	}
	b.WriteByte(')')
	return b.String(), nil
}

func encodeChildren(b *strings.Builder, t *Tree) error {
	for _, name := range t.names {
		if err := checkToken(name); err != nil {
			return err
		}
		b.WriteByte(' ')
		b.WriteByte('(')
		b.WriteString(name)
		switch v := t.nodes[name].(type) {
		case *Tree:
			if err := encodeChildren(b, v); err != nil {
				return err
			}
		case int:
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(v))
		case float64:
			b.WriteByte(' ')
			b.WriteString(formatFloat(v))
		case string:
			if err := checkToken(v); err != nil {
				return err
			}
			b.WriteByte(' ')
			b.WriteString(v)
		default:
			return fmt.Errorf("%w: unsupported value type %T for %q", ErrEncode, v, name)
		}
		b.WriteByte(')')
	}
	return nil
}

// formatFloat keeps a decimal point or exponent in the output so the value
// decodes back as a float, not an int.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

func checkToken(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty token", ErrEncode)
	}
	if strings.ContainsAny(s, "() \t\r\n") {
		return fmt.Errorf("%w: token %q contains delimiter characters", ErrEncode, s)
	}
	return nil
}

// Decode parses parameter-tree text back into a Root. The whole input must
// be a single balanced expression; malformed text never yields a partial
// tree.
func Decode(text string) (*Root, error) {
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	p := &parser{toks: toks}
	name, node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: trailing data after %q", ErrDecode, name)
	}
	sub, ok := node.(*Tree)
	if !ok {
		// The root is always a named subtree, never a bare leaf.
		return nil, fmt.Errorf("%w: root %q is not a subtree", ErrDecode, name)
	}
	return &Root{Name: name, Params: sub}, nil
}

func tokenize(text string) []string {
	var toks []string
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		default:
			j := i
			for j < len(text) && !strings.ContainsRune("() \t\r\n", rune(text[j])) {
				j++
			}
			toks = append(toks, text[i:j])
			i = j
		}
	}
	return toks
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) next() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	t := p.toks[p.pos]
	p.pos++
	return t, true
}

// parseNode consumes one "(name ...)" expression and returns the name plus
// either a leaf value or a *Tree.
func (p *parser) parseNode() (string, any, error) {
	tok, ok := p.next()
	if !ok || tok != "(" {
		return "", nil, fmt.Errorf("%w: expected '('", ErrDecode)
	}
	name, ok := p.next()
	if !ok {
		return "", nil, fmt.Errorf("%w: unterminated expression", ErrDecode)
	}
	if name == "(" || name == ")" {
		return "", nil, fmt.Errorf("%w: missing name", ErrDecode)
	}

	var atoms []string
	sub := NewTree()
	subtree := false
	for {
		if p.pos >= len(p.toks) {
			return "", nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrDecode, name)
		}
		switch p.toks[p.pos] {
		case ")":
			p.pos++
			return p.finishNode(name, atoms, sub, subtree)
		case "(":
			childName, childNode, err := p.parseNode()
			if err != nil {
				return "", nil, err
			}
			if _, dup := sub.Get(childName); dup {
				return "", nil, fmt.Errorf("%w: duplicate name %q under %q", ErrDecode, childName, name)
			}
			subtree = true
			_ = sub.Set(childName, childNode)
		default:
			atoms = append(atoms, p.toks[p.pos])
			p.pos++
		}
	}
}

func (p *parser) finishNode(name string, atoms []string, sub *Tree, subtree bool) (string, any, error) {
	if subtree && len(atoms) > 0 {
		return "", nil, fmt.Errorf("%w: %q mixes values and subtrees", ErrDecode, name)
	}
	if subtree || len(atoms) == 0 {
		// Zero children decode as an empty subtree: "(name)".
		return name, sub, nil
	}
	if len(atoms) > 1 {
		return "", nil, fmt.Errorf("%w: %q holds %d values, want one", ErrDecode, name, len(atoms))
	}
	return name, parseLeaf(atoms[0]), nil
}

func parseLeaf(tok string) any {
	if n, err := strconv.Atoi(tok); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}

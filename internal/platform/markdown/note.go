// Package markdown reads and writes the YAML-frontmatter notes mathbot keeps in
// the data directory (study journal entries and the progress report).
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

// Note is a markdown document split into its frontmatter and body.
type Note struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a leading
// separator is all body.
func Parse(content string) (Note, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, separator) {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n"+separator)
	if idx < 0 {
		return Note{}, fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &meta); err != nil {
		return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return Note{Meta: meta, Body: rest[idx+len("\n"+separator):]}, nil
}

// Load reads the note at path. A missing file yields an empty note with the
// given default body. A file whose frontmatter cannot be parsed is kept
// verbatim as body so user text is never lost.
func Load(path, defaultBody string) (Note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Note{Meta: map[string]any{}, Body: defaultBody}, nil
		}
		return Note{}, fmt.Errorf("read note: %w", err)
	}
	note, err := Parse(string(content))
	if err != nil {
		return Note{Meta: map[string]any{}, Body: string(content)}, nil
	}
	return note, nil
}

func (n Note) Render() (string, error) {
	meta := n.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf := bytes.Buffer{}
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	if !strings.HasPrefix(n.Body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(n.Body)
	return buf.String(), nil
}

// Save renders the note and writes it through a temp file in the same directory.
func (n Note) Save(path string) error {
	rendered, err := n.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace note: %w", err)
	}
	return nil
}

// SetBlock replaces the generated block named name, appending it when absent.
// The block is delimited by <!-- name:start --> and <!-- name:end -->.
func (n *Note) SetBlock(name, generated string) {
	startMarker := "<!-- " + name + ":start -->"
	endMarker := "<!-- " + name + ":end -->"
	block := startMarker + "\n" + strings.TrimRight(generated, "\n") + "\n" + endMarker

	start := strings.Index(n.Body, startMarker)
	end := strings.Index(n.Body, endMarker)
	switch {
	case start >= 0 && end > start:
		n.Body = n.Body[:start] + block + n.Body[end+len(endMarker):]
	case strings.TrimSpace(n.Body) == "":
		n.Body = block + "\n"
	case strings.HasSuffix(n.Body, "\n"):
		n.Body += "\n" + block + "\n"
	default:
		n.Body += "\n\n" + block + "\n"
	}
}

// Block returns the current content of the named block.
func (n Note) Block(name string) (string, bool) {
	startMarker := "<!-- " + name + ":start -->\n"
	endMarker := "\n<!-- " + name + ":end -->"
	start := strings.Index(n.Body, startMarker)
	if start < 0 {
		return "", false
	}
	rest := n.Body[start+len(startMarker):]
	end := strings.Index(rest, endMarker)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

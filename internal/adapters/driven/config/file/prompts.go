package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompt is a prompt shipped with the binary and the placeholders
// an edited copy must keep.
type builtinPrompt struct {
	text     string
	requires []string
	about    string
}

var builtinPrompts = map[string]builtinPrompt{
	driven.PromptAnswer: {
		text:     driven.DefaultAnswerPrompt,
		requires: []string{driven.PlaceholderContext, driven.PlaceholderQuestion},
		about:    "Instructs the model to answer from catalog context",
	},
}

// cachedPrompt remembers which version of the file a prompt came from.
type cachedPrompt struct {
	text    string
	modTime time.Time
}

// PromptStore serves prompts from <dir>/<name>.txt.
//
// The directory and default files are written on first Load. An edited file
// is picked up as soon as its modification time changes. A file that drops
// a required placeholder is ignored in favour of the built-in prompt.
type PromptStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]cachedPrompt

	initOnce sync.Once
	initErr  error
}

// NewPromptStore creates a prompt store rooted at dir.
// An empty dir means ~/.shelfwise/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".shelfwise", "prompts")
	}

	return &PromptStore{
		dir:   dir,
		cache: make(map[string]cachedPrompt),
	}, nil
}

// Load returns the prompt template for name.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if known {
			return builtin.text, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		if known {
			return builtin.text, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if known {
			return builtin.text, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	text := strings.TrimSpace(string(data))

	if known {
		if missing := missingPlaceholders(text, builtin.requires); len(missing) > 0 {
			logger.Warn("Prompt %s is missing %s, using the built-in prompt", path, strings.Join(missing, ", "))
			text = builtin.text
		}
	}

	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// Reload forgets cached prompts.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]cachedPrompt)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func missingPlaceholders(text string, required []string) []string {
	var missing []string
	for _, p := range required {
		if !strings.Contains(text, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// initialise writes the directory, any absent default prompt and a README.
// Existing files are never overwritten.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, p := range builtinPrompts {
		if err := writeIfAbsent(s.path(name), p.text); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := writeIfAbsent(filepath.Join(s.dir, "README.md"), readme()); err != nil {
		s.initErr = fmt.Errorf("create prompt README: %w", err)
	}
}

func writeIfAbsent(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readme() string {
	var b strings.Builder
	b.WriteString("# Shelfwise Prompts\n\n")
	b.WriteString("Edit these files to change how answers are phrased. Edits are picked up\n")
	b.WriteString("on the next question, including by a running MCP server.\n\n")
	b.WriteString("## Files\n\n")
	for name, p := range builtinPrompts {
		fmt.Fprintf(&b, "- `%s.txt` - %s. Must contain %s.\n", name, p.about, strings.Join(p.requires, " and "))
	}
	b.WriteString("\nA file missing a required placeholder is ignored and the built-in\n")
	b.WriteString("prompt is used instead. Delete a file to restore its default.\n\n")
	b.WriteString("The model must still reply with a JSON object holding answer, sources and\n")
	b.WriteString("confidence. Replies that cannot be parsed are rejected.\n")
	return b.String()
}

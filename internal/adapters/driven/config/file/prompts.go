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

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompts seed the directory and stand in for missing or blank files.
var builtinPrompts = map[string]string{
	driven.PromptAnswerContract:     strings.TrimSpace(domain.DefaultAnswerContract),
	driven.PromptAnswerInstructions: strings.TrimSpace(domain.DefaultAnswerInstructions),
}

const promptsReadme = `# SiteSage Prompts

These files shape every answer SiteSage generates.

- answer_contract.txt: shared policy placed at the top of the system prompt
- answer_instructions.txt: the required answer sections, appended after the question

The specialist role line and the retrieved documents are added automatically.
Edits apply to the next answer, including in a running "sitesage serve".
Delete or empty a file to restore its default.
`

// PromptStore serves prompts from <dir>/<name>.txt. The directory is seeded
// with the built-in prompts on first use, never in the constructor. A file
// is re-read when its size or modification time changes.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]promptFile
}

type promptFile struct {
	text    string
	size    int64
	modTime time.Time
}

// NewPromptStore creates a store rooted at dir, or ~/.sitesage/prompts
// when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]promptFile)}, nil
}

func (s *PromptStore) Dir() string { return s.dir }

// Load returns the trimmed prompt text. Built-in prompts fall back to their
// default when the file is unusable; unknown names must exist on disk.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, s.seedErr)
	}

	text, err := s.read(name)
	if err == nil && text != "" {
		return text, nil
	}
	if known {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Prompt %s unreadable, using default: %v", name, err)
		}
		return builtin, nil
	}
	if err == nil {
		err = domain.ErrNotFound
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

// Reload forgets every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	cached, ok := s.cache[name]
	s.mu.Unlock()
	if ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		return cached.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.cache[name] = promptFile{text: text, size: info.Size(), modTime: info.ModTime()}
	s.mu.Unlock()
	return text, nil
}

// seed creates the directory and writes any built-in prompt or README that
// is missing. Existing files are never touched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string]string{"README.md": promptsReadme}
	for name, text := range builtinPrompts {
		files[name+".txt"] = text + "\n"
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", file, err)
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
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

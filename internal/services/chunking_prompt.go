package services

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

//go:embed chunking.yaml
var chunkingPromptFS embed.FS

// ChunkingPrompt holds the tunable parts of the decomposition instructions.
type ChunkingPrompt struct {
	Prompt           string   `yaml:"prompt"`
	Version          int      `yaml:"version"`
	MinTokens        int      `yaml:"min_tokens"`
	MaxTokens        int      `yaml:"max_tokens"`
	SingleChunkBelow int      `yaml:"single_chunk_below"`
	TagsPerChunk     string   `yaml:"tags_per_chunk"`
	Categories       []string `yaml:"categories"`
}

var fallbackChunkingPrompt = ChunkingPrompt{
	Prompt:           "chunking",
	Version:          1,
	MinTokens:        500,
	MaxTokens:        800,
	SingleChunkBelow: 800,
	TagsPerChunk:     "3-5",
	Categories: []string{
		"Email Campaign",
		"Help Article / FAQ",
		"Policy Document",
		"Marketing Copy",
		"Internal Communication",
		"Meeting Notes",
		"Product Documentation",
		"Blog Post / Article",
		"Customer Communication",
		"Legal / Compliance",
	},
}

// LoadChunkingPrompt reads the YAML at path, or the embedded copy when path is
// empty. Any read or validation failure falls back to the built-in defaults.
func LoadChunkingPrompt(log *logger.Logger, path string) ChunkingPrompt {
	p, err := readChunkingPrompt(path)
	if err != nil {
		if log != nil {
			log.Warn("chunking prompt load failed; using fallback", "path", path, "error", err)
		}
		return fallbackChunkingPrompt
	}
	return p
}

func readChunkingPrompt(path string) (ChunkingPrompt, error) {
	var (
		data []byte
		err  error
	)
	if path = strings.TrimSpace(path); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = chunkingPromptFS.ReadFile("chunking.yaml")
	}
	if err != nil {
		return ChunkingPrompt{}, err
	}
	var p ChunkingPrompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ChunkingPrompt{}, err
	}
	if err := validateChunkingPrompt(&p); err != nil {
		return ChunkingPrompt{}, err
	}
	return p, nil
}

func validateChunkingPrompt(p *ChunkingPrompt) error {
	if p == nil {
		return errors.New("missing prompt")
	}
	if strings.TrimSpace(p.Prompt) != "chunking" {
		return fmt.Errorf("unexpected prompt: %s", p.Prompt)
	}
	if p.MinTokens <= 0 || p.MaxTokens < p.MinTokens {
		return fmt.Errorf("invalid token range %d-%d", p.MinTokens, p.MaxTokens)
	}
	if p.SingleChunkBelow <= 0 {
		p.SingleChunkBelow = p.MaxTokens
	}
	if strings.TrimSpace(p.TagsPerChunk) == "" {
		p.TagsPerChunk = "3-5"
	}
	cats := make([]string, 0, len(p.Categories))
	seen := map[string]bool{}
	for _, c := range p.Categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	if len(cats) == 0 {
		return errors.New("no categories defined")
	}
	p.Categories = cats
	return nil
}

// SystemPrompt renders the instructions sent with every decomposition request.
func (p ChunkingPrompt) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are processing documents for a knowledge base. For each document provided:\n\n")
	fmt.Fprintf(&b, "1. Classify the document type from this list: %s, or suggest a new category if none fit.\n", strings.Join(p.Categories, ", "))
	fmt.Fprintf(&b, "2. Break it into logical chunks of %d-%d tokens, respecting natural boundaries (sections, paragraphs, topic shifts). Rules:\n", p.MinTokens, p.MaxTokens)
	b.WriteString("   - Never break mid-sentence\n")
	b.WriteString("   - Keep related content together (a question and its answer should be one chunk)\n")
	fmt.Fprintf(&b, "   - If a document is under %d tokens, keep it as a single chunk\n", p.SingleChunkBelow)
	b.WriteString("3. For each chunk, provide:\n")
	b.WriteString("   - title: A clear descriptive title (not the filename)\n")
	b.WriteString("   - content: The exact chunk text from the document\n")
	b.WriteString("   - summary: 1-2 sentence summary\n")
	fmt.Fprintf(&b, "   - tags: %s relevant topic tags\n", p.TagsPerChunk)
	b.WriteString("   - category: The document classification\n\n")
	b.WriteString("Respond in JSON format only. No preamble, no markdown code fences, just raw JSON.\n\n")
	b.WriteString(`{
  "document_type": "string",
  "chunks": [
    {
      "title": "string",
      "content": "string",
      "summary": "string",
      "tags": ["string"],
      "category": "string"
    }
  ]
}`)
	return b.String()
}

func chunkingUserMessage(filename, text string) string {
	return "Document filename: " + filename + "\n\nDocument content:\n" + text
}

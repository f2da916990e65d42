package qaextract

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sleepstars/periop-assistant/internal/logger"
)

// Result summarizes a directory run
type Result struct {
	Files int
	Pairs []Pair
}

// ProcessDir extracts pairs from every .docx directly inside dir. Files that
// cannot be read are logged and skipped.
func ProcessDir(dir string) (*Result, error) {
	log := logger.GetLogger().WithComponent("qaextract")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}

	result := &Result{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".docx") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		text, err := ReadDocx(path)
		if err != nil {
			log.WithError(err).Error("Failed to read %s", path)
		}
		for _, pair := range ExtractPairs(text) {
			pair.SourceFile = entry.Name()
			result.Pairs = append(result.Pairs, pair)
		}
		result.Files++
		log.Info("Processed %s (%d files so far)", entry.Name(), result.Files)
	}
	return result, nil
}

// WriteCSV writes pairs as UTF-8 CSV with a byte order mark so spreadsheet
// tools detect the encoding
func WriteCSV(w io.Writer, pairs []Pair) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"question", "answer", "source_file"}); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := cw.Write([]string{p.Question, p.Answer, p.SourceFile}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type fineTuneExample struct {
	Messages []openai.ChatCompletionMessage `json:"messages"`
}

// WriteJSONL writes pairs in the chat fine-tuning format, one example per
// line. Pairs missing a question or an answer are skipped; the number written
// is returned.
func WriteJSONL(w io.Writer, pairs []Pair, systemPrompt string) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	written := 0
	for _, p := range pairs {
		if p.Question == "" || p.Answer == "" {
			continue
		}
		example := fineTuneExample{Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: p.Question},
			{Role: openai.ChatMessageRoleAssistant, Content: p.Answer},
		}}
		if err := enc.Encode(example); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// Output formats accepted by WriteFile
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// ErrNoPairs is returned by WriteFile when there is nothing to write
var ErrNoPairs = errors.New("no question/answer pairs extracted")

// WriteFile writes pairs to path in the given format and returns the number
// of records written. With no pairs it creates no file and returns ErrNoPairs.
func WriteFile(path, format string, pairs []Pair, systemPrompt string) (int, error) {
	if format != FormatCSV && format != FormatJSONL {
		return 0, fmt.Errorf("unknown output format %q", format)
	}
	if len(pairs) == 0 {
		return 0, ErrNoPairs
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}
	w := bufio.NewWriter(f)

	written := len(pairs)
	if format == FormatJSONL {
		written, err = WriteJSONL(w, pairs, systemPrompt)
	} else {
		err = WriteCSV(w, pairs)
	}
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, fmt.Errorf("write %s: %w", path, err)
	}
	return written, nil
}

package publish

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"liquidityEngine/internal/processor"
)

// resultRecord is the published envelope for one processed command.
type resultRecord struct {
	Seq         uint64            `json:"seq"`
	PublishedAt string            `json:"published_at"`
	Result      *processor.Result `json:"result"`
}

// JsonlPublisher appends result records to a JSONL file.
type JsonlPublisher struct {
	path string
	mu   sync.Mutex
}

func NewJsonlPublisher(path string) *JsonlPublisher {
	return &JsonlPublisher{path: path}
}

// PublishResult appends one result as a JSON line.
func (p *JsonlPublisher) PublishResult(seq uint64, result *processor.Result) error {
	dir := filepath.Dir(p.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	record := resultRecord{
		Seq:         seq,
		PublishedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Result:      result,
	}

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal result record: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write result record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"incidentbrief/internal/analyzer"
	"incidentbrief/internal/config"
	"incidentbrief/internal/parser"
	"incidentbrief/pkg/models"
)

// Pipeline tails a log file and periodically turns the accumulated window
// of lines into an incident brief.
type Pipeline struct {
	cfg    config.WatchConfig
	tailer *Tailer
}

// NewPipeline creates a new file pipeline
func NewPipeline(cfg config.WatchConfig) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		tailer: NewTailer(),
	}
}

// Start tails the configured file and publishes a brief per interval until
// the context is cancelled. A window that fails to brief is logged and
// dropped, never fatal.
func (p *Pipeline) Start(ctx context.Context, out chan<- models.Brief) {
	lineChan, err := p.tailer.Start(ctx, p.cfg.LogPath)
	if err != nil {
		log.Printf("Failed to start log tailer: %v", err)
		return
	}
	defer p.tailer.Stop()

	interval := p.cfg.IntervalSeconds
	if interval <= 0 {
		interval = 10
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	var window []string
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lineChan:
			if !ok {
				return
			}
			window = append(window, line)
			if p.cfg.MaxWindowLines > 0 && len(window) > p.cfg.MaxWindowLines {
				window = window[len(window)-p.cfg.MaxWindowLines:]
			}
		case <-ticker.C:
			if len(window) == 0 {
				continue
			}
			brief, err := BriefFromLines(window)
			if err != nil {
				log.Printf("Failed to brief window: %v", err)
				window = window[:0]
				continue
			}
			select {
			case out <- brief:
			default:
				log.Printf("Broadcast channel full, dropping brief")
			}
			window = window[:0]
		}
	}
}

// BriefFromLines runs the parse/analyze pipeline over a window of log lines
func BriefFromLines(lines []string) (models.Brief, error) {
	incident, err := parser.Parse(strings.Join(lines, "\n"))
	if err != nil {
		return models.Brief{}, fmt.Errorf("parse window: %w", err)
	}

	output, err := analyzer.Analyze(&models.AnalysisRequest{
		Service: incident.ServiceGuess,
		Region:  incident.RegionGuess,
		Signals: incident.DerivedSignals.Map(),
		Logs:    incident.SampleLines,
	})
	if err != nil {
		return models.Brief{}, fmt.Errorf("analyze window: %w", err)
	}

	return models.Brief{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Incident:  incident,
		Output:    output,
	}, nil
}

// Tailer follows a log file with fsnotify, surviving rotation and
// truncation. A ticker read is kept as a fallback for missed events.
type Tailer struct {
	watcher    *fsnotify.Watcher
	file       *os.File
	reader     *bufio.Reader
	lineChan   chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	offset     int64
	mu         sync.Mutex
	path       string
	incomplete string // buffer for a partial trailing line
}

// NewTailer creates a new file tailer
func NewTailer() *Tailer {
	return &Tailer{
		lineChan: make(chan string, 100),
		stopCh:   make(chan struct{}),
	}
}

// Start begins tailing the specified file from its current end
func (t *Tailer) Start(ctx context.Context, path string) (<-chan string, error) {
	t.path = path

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	t.file = file
	t.offset = offset
	t.reader = bufio.NewReader(file)
	t.watcher = watcher

	log.Printf("Tailing %s", path)
	go t.tailLoop(ctx)

	return t.lineChan, nil
}

func (t *Tailer) tailLoop(ctx context.Context) {
	defer close(t.lineChan)

	// Fallback for missed fsnotify events
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				t.readNewLines()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				log.Printf("File rotated: %s", event.Name)
				time.Sleep(100 * time.Millisecond)
				t.reopenFile()
			case event.Op&fsnotify.Create == fsnotify.Create:
				if event.Name == t.path {
					t.reopenFile()
				}
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		case <-ticker.C:
			t.readNewLines()
		}
	}
}

func (t *Tailer) readNewLines() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return
	}

	info, err := t.file.Stat()
	if err != nil {
		log.Printf("Failed to stat file: %v", err)
		return
	}

	// Truncation resets to the beginning
	if info.Size() < t.offset {
		log.Printf("File truncated, resetting to beginning")
		t.offset = 0
		t.file.Seek(0, io.SeekStart)
		t.reader = bufio.NewReader(t.file)
		t.incomplete = ""
		return
	}
	if info.Size() == t.offset {
		return
	}

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if line != "" {
					t.incomplete = line
				}
				break
			}
			log.Printf("Error reading file: %v", err)
			break
		}

		if t.incomplete != "" {
			line = t.incomplete + line
			t.incomplete = ""
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		newOffset, _ := t.file.Seek(0, io.SeekCurrent)
		t.offset = newOffset

		select {
		case t.lineChan <- line:
		default:
			log.Printf("Line channel full, dropping line")
		}
	}
}

func (t *Tailer) reopenFile() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		t.file.Close()
	}

	file, err := os.Open(t.path)
	if err != nil {
		log.Printf("Failed to reopen file: %v", err)
		t.file = nil
		return
	}

	t.file = file
	t.offset = 0
	t.reader = bufio.NewReader(file)
	t.incomplete = ""
}

// Stop stops the file tailer
func (t *Tailer) Stop() error {
	t.stopOnce.Do(func() { close(t.stopCh) })

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.watcher != nil {
		t.watcher.Close()
		t.watcher = nil
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
	return nil
}

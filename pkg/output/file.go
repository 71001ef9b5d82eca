package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
)

// FileSink is the local, append-only Sink: a CSV reward trace, a
// JSON-lines action log, per-node JSON-lines log files, and per-interface
// JSON-lines pcap traces, grounded on pkg/audit/logger.go's
// FileLogger (mkdir-then-append-only-os.File-plus-encoder shape). No
// third-party dependency: plain flat files need no library the pack
// offers beyond what stdlib already provides.
type FileSink struct {
	mu sync.Mutex

	rewardW   *csv.Writer
	rewardF   *os.File
	actionEnc *json.Encoder
	actionF   *os.File

	dir      string
	nodeLogs map[string]*os.File
	pcapLogs map[string]*os.File
}

// NewFileSink creates dir if needed and opens the reward/action streams.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	rewardF, err := os.OpenFile(filepath.Join(dir, "rewards.csv"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening rewards.csv: %w", err)
	}
	actionF, err := os.OpenFile(filepath.Join(dir, "actions.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		rewardF.Close()
		return nil, fmt.Errorf("opening actions.jsonl: %w", err)
	}

	return &FileSink{
		rewardW:   csv.NewWriter(rewardF),
		rewardF:   rewardF,
		actionEnc: json.NewEncoder(actionF),
		actionF:   actionF,
		dir:       dir,
		nodeLogs:  make(map[string]*os.File),
		pcapLogs:  make(map[string]*os.File),
	}, nil
}

// RewardSample appends one "episode,tick,reward" CSV row.
func (s *FileSink) RewardSample(episode, tick int, reward float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.rewardW.Write([]string{
		strconv.Itoa(episode),
		strconv.Itoa(tick),
		strconv.FormatFloat(reward, 'f', -1, 64),
	})
	s.rewardW.Flush()
}

// actionRecord is the JSON shape written per dispatched request.
type actionRecord struct {
	Tick   int             `json:"tick"`
	Agent  string          `json:"agent"`
	Path   string          `json:"path"`
	Result request.Outcome `json:"result"`
	Reason string          `json:"reason,omitempty"`
}

// ActionRecord appends one JSON line describing a dispatched action.
func (s *FileSink) ActionRecord(tick int, agent, path string, resp request.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.actionEnc.Encode(actionRecord{Tick: tick, Agent: agent, Path: path, Result: resp.Outcome, Reason: resp.Reason})
}

// SysLog appends entry to a per-node JSON-lines log file, opening it on
// first use.
func (s *FileSink) SysLog(node string, entry *logrus.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.nodeFile(node)
	if err != nil {
		return
	}
	line, err := entry.String()
	if err != nil {
		return
	}
	fmt.Fprintln(f, line)
}

func (s *FileSink) nodeFile(node string) (*os.File, error) {
	if f, ok := s.nodeLogs[node]; ok {
		return f, nil
	}
	f, err := os.OpenFile(filepath.Join(s.dir, node+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	s.nodeLogs[node] = f
	return f, nil
}

// pcapRecord is the JSON-lines shape each captured frame is written as.
type pcapRecord struct {
	Interface string `json:"interface"`
	Summary   string `json:"summary"`
}

// PCAPFrame appends one JSON line per captured frame to a per-interface
// trace file.
func (s *FileSink) PCAPFrame(iface string, frame *model.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.pcapLogs[iface]
	if !ok {
		var err error
		f, err = os.OpenFile(filepath.Join(s.dir, iface+".pcap.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		s.pcapLogs[iface] = f
	}
	enc := json.NewEncoder(f)
	_ = enc.Encode(pcapRecord{Interface: iface, Summary: frame.String()})
}

// TopologySnapshot writes the graphviz DOT document to topology.dot,
// overwriting any previous snapshot (only the latest matters).
func (s *FileSink) TopologySnapshot(dot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.WriteFile(filepath.Join(s.dir, "topology.dot"), []byte(dot), 0644)
}

// Close flushes and closes every open file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewardW.Flush()
	var firstErr error
	for _, f := range append([]*os.File{s.rewardF, s.actionF}, flatten(s.nodeLogs, s.pcapLogs)...) {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func flatten(maps ...map[string]*os.File) []*os.File {
	var out []*os.File
	for _, m := range maps {
		for _, f := range m {
			out = append(out, f)
		}
	}
	return out
}

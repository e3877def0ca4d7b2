package agentparse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// ArtifactStore persists raw agent output and parse summaries for
// debugging. It is not part of the functional contract; every failure is
// logged and swallowed.
type ArtifactStore struct {
	Dir string
}

// NewArtifactStore creates the artifact directory if needed. An empty dir
// disables persistence.
func NewArtifactStore(dir string) *ArtifactStore {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("could not create artifact directory", "dir", dir, "error", err)
			return &ArtifactStore{}
		}
	}
	return &ArtifactStore{Dir: dir}
}

// SaveRaw persists the raw agent output for a labeled run.
func (s *ArtifactStore) SaveRaw(label, content string) {
	s.write(label, "raw_output", []byte(content))
}

// SaveResult persists the {strategy, count, events} summary for a labeled run.
func (s *ArtifactStore) SaveResult(label string, res Result) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Warn("could not encode parse summary", "label", label, "error", err)
		return
	}
	s.write(label, "parsed_events_"+res.Strategy, data)
}

func (s *ArtifactStore) write(label, stage string, data []byte) {
	if s.Dir == "" {
		return
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		safeLabel(label), stage, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.Dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("could not save artifact", "path", path, "error", err)
		return
	}
	logger.Info("saved artifact", "stage", stage, "path", path)
}

func safeLabel(label string) string {
	label = strings.ReplaceAll(label, ", ", "_")
	return strings.ReplaceAll(label, " ", "_")
}

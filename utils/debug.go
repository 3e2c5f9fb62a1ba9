package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DebugOptions controls what the DebugManager records.
type DebugOptions struct {
	Enabled      bool
	OutputDir    string
	LogPrompts   bool
	LogResponses bool
	SaveToFile   bool
}

// DebugManager dumps prompts, responses, and per-iteration snapshots of an
// optimization run. It is optional; a nil-options manager is a no-op.
type DebugManager struct {
	options   DebugOptions
	logger    Logger
	outputDir string
}

func NewDebugManager(logger Logger, options DebugOptions) *DebugManager {
	outputDir := options.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(".", "debug_output")
	}

	if options.Enabled && options.SaveToFile {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			logger.Warn("failed to create debug output directory", "dir", outputDir, "error", err)
		}
	}

	return &DebugManager{
		options:   options,
		logger:    logger,
		outputDir: outputDir,
	}
}

// LogPrompt records an outgoing prompt if prompt logging is enabled.
func (dm *DebugManager) LogPrompt(name, prompt string) {
	if !dm.options.Enabled || !dm.options.LogPrompts {
		return
	}
	dm.logger.Debug("prompt", "name", name, "text", prompt)
	if dm.options.SaveToFile {
		dm.saveToFile(name+".txt", prompt)
	}
}

// LogResponse records a model response if response logging is enabled.
func (dm *DebugManager) LogResponse(name, response string) {
	if !dm.options.Enabled || !dm.options.LogResponses {
		return
	}
	dm.logger.Debug("response", "name", name, "text", response)
	if dm.options.SaveToFile {
		dm.saveToFile(name+".txt", response)
	}
}

// SaveIteration snapshots one optimization iteration to disk.
func (dm *DebugManager) SaveIteration(iteration int, data any) {
	if !dm.options.Enabled || !dm.options.SaveToFile {
		return
	}
	filename := fmt.Sprintf("iteration_%d.json", iteration)
	dm.saveToFile(filename, fmt.Sprintf("%+v", data))
}

func (dm *DebugManager) saveToFile(filename, content string) {
	path := filepath.Join(dm.outputDir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		dm.logger.Error("failed to open debug file", "file", path, "error", err)
		return
	}
	defer file.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(file, "[%s] %s\n", timestamp, content); err != nil {
		dm.logger.Error("failed to write debug file", "file", path, "error", err)
	}
}

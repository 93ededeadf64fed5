package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/planfall/plankit/tree"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("scope")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[scope]") {
		t.Errorf("expected component 'scope' in log, got: %s", output)
	}
}

func TestLogger_WithPathAndTask(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithPath(tree.NewPath("deliver", "grasp")).WithTaskID("task-7")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "path=/deliver/grasp") {
		t.Errorf("expected path field, got: %s", output)
	}
	if !strings.Contains(output, "task=task-7") {
		t.Errorf("expected task field, got: %s", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("retry", map[string]interface{}{
		"counter": "max-retries",
	})

	output := buf.String()
	if !strings.Contains(output, "counter=max-retries") {
		t.Errorf("expected field 'counter=max-retries' in log, got: %s", output)
	}
}

func TestLogger_FailureRaised(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.FailureRaised("grasp-lost", "gripper slipped", tree.NewPath("deliver", "grasp"))

	output := buf.String()
	if !strings.Contains(output, "kind=grasp-lost") {
		t.Errorf("failure log should include kind, got: %s", output)
	}
	if !strings.Contains(output, "at=/deliver/grasp") {
		t.Errorf("failure log should include path, got: %s", output)
	}
}

func TestLogger_TaskOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.TaskOutcome("task-1", 5*time.Millisecond, errors.New("boom"))

	output := buf.String()
	if !strings.Contains(output, "ERROR") {
		t.Error("failed task outcome should be ERROR level")
	}
	if !strings.Contains(output, "error=boom") {
		t.Errorf("expected error field, got: %s", output)
	}
}

func TestLogger_CollaboratorFault(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.CollaboratorFault("hooks", "observer panicked")

	output := buf.String()
	if !strings.Contains(output, "WARN") {
		t.Error("collaborator fault should be WARN level")
	}
	if !strings.Contains(output, "collaborator=hooks") {
		t.Errorf("expected collaborator field, got: %s", output)
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("test")
	logger.SetOutput(&buf)

	logger.Info("hello world", map[string]interface{}{"key": "value"})

	output := buf.String()
	// Format: LEVEL TIMESTAMP [component] message key=value
	if !strings.HasPrefix(output, "INFO ") {
		t.Errorf("log should start with level, got: %s", output)
	}
	if !strings.Contains(output, "[test] hello world key=value") {
		t.Errorf("unexpected format: %s", output)
	}
}

// Package workspace implements the durable, keyed store shared by the
// step invocations of one flow run.
//
// Layout under the workspace directory:
//
//	workspace.json     — manifest: flow name + canonical input bindings
//	actors/<id>.json   — one serialized snapshot per actor id
//	results/<step>.json — persisted Ok payload per completed step
//
// All writes are atomic and durable (file sync + atomic rename + dir
// sync). The store specifies no locking: each step invocation is assumed
// to be the only process touching the workspace, and concurrent writers
// to the same key are last-writer-wins.
package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotInitialized is returned when reading from a workspace whose
// manifest has not been written yet.
var ErrNotInitialized = errors.New("workspace not initialized")

// Workspace is a directory-backed store scoped to one flow run.
type Workspace struct {
	dir string
}

// New returns a workspace rooted at dir. The directory is not created
// until Init.
func New(dir string) (*Workspace, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("workspace dir is required")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root directory.
func (w *Workspace) Dir() string { return w.dir }

type manifest struct {
	Flow   string         `json:"flow"`
	Params map[string]any `json:"params"`
}

func (w *Workspace) manifestPath() string {
	return filepath.Join(w.dir, "workspace.json")
}

func (w *Workspace) actorPath(id string) string {
	return filepath.Join(w.dir, "actors", id+".json")
}

func (w *Workspace) resultPath(step string) string {
	return filepath.Join(w.dir, "results", step+".json")
}

// Initialized reports whether the workspace manifest exists.
func (w *Workspace) Initialized() (bool, error) {
	_, err := os.Stat(w.manifestPath())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Init idempotently initializes the on-disk structure for a run of the
// named flow and persists its canonical input bindings.
//
// A second Init for the same flow is a no-op; initializing an existing
// workspace for a different flow is an error.
func (w *Workspace) Init(flowName string, params map[string]any) error {
	if strings.TrimSpace(flowName) == "" {
		return errors.New("flow name is required")
	}

	if ok, err := w.Initialized(); err != nil {
		return err
	} else if ok {
		existing, _, err := w.Manifest()
		if err != nil {
			return err
		}
		if existing != flowName {
			return fmt.Errorf("workspace %s already initialized for flow %q", w.dir, existing)
		}
		return nil
	}

	for _, dir := range []string{w.dir, filepath.Join(w.dir, "actors"), filepath.Join(w.dir, "results")} {
		if err := ensureDirDurable(dir, 0o755); err != nil {
			return fmt.Errorf("ensure workspace dir: %w", err)
		}
	}

	if params == nil {
		params = map[string]any{}
	}
	data, err := jsonMarshalStable(manifest{Flow: flowName, Params: params})
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeFileAtomicDurable(w.manifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Manifest returns the flow name and input bindings recorded at Init.
//
// Numeric binding values round-trip through JSON and therefore load as
// float64; task.Args accessors coerce them back.
func (w *Workspace) Manifest() (string, map[string]any, error) {
	var m manifest
	if err := readJSONStrict(w.manifestPath(), &m); err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%w: %s", ErrNotInitialized, w.dir)
		}
		return "", nil, err
	}
	if m.Params == nil {
		m.Params = map[string]any{}
	}
	return m.Flow, m.Params, nil
}

// WriteActorState persists a serialized actor snapshot under its id.
func (w *Workspace) WriteActorState(id string, data []byte) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("actor id is required")
	}
	if err := ensureDirDurable(filepath.Join(w.dir, "actors"), 0o755); err != nil {
		return err
	}
	return writeFileAtomicDurable(w.actorPath(id), data, 0o644)
}

// ReadActorState loads the serialized snapshot for an actor id.
func (w *Workspace) ReadActorState(id string) ([]byte, error) {
	data, err := os.ReadFile(w.actorPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot for actor %q in %s", id, w.dir)
		}
		return nil, err
	}
	return data, nil
}

// WriteStepResult persists a completed step's payload under its step name.
func (w *Workspace) WriteStepResult(step string, data []byte) error {
	if strings.TrimSpace(step) == "" {
		return errors.New("step name is required")
	}
	if err := ensureDirDurable(filepath.Join(w.dir, "results"), 0o755); err != nil {
		return err
	}
	return writeFileAtomicDurable(w.resultPath(step), data, 0o644)
}

// ReadStepResult loads a persisted step payload.
func (w *Workspace) ReadStepResult(step string) ([]byte, error) {
	data, err := os.ReadFile(w.resultPath(step))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no persisted result for step %q in %s", step, w.dir)
		}
		return nil, err
	}
	return data, nil
}

func jsonMarshalStable(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func readJSONStrict(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure no trailing junk.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON: trailing content")
	}
	return nil
}

func ensureDirDurable(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	if err := fsyncDir(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if parent != dir {
		if err := fsyncDir(parent); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

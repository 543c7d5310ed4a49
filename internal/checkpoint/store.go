package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/goldbach/pkg/persist"
)

// basename of the checkpoint record inside the store directory.
const basename = "checkpoint"

// dirPerm is the permission mode for the checkpoint directory.
const dirPerm = 0o750

// Sentinel errors for checkpoint loading.
var (
	// ErrNoCheckpoint indicates the store holds no checkpoint yet.
	ErrNoCheckpoint = errors.New("no checkpoint found")

	// ErrCheckpointCorrupt indicates the record failed structural validation.
	// Operator action is required; the store never discards it on its own.
	ErrCheckpointCorrupt = errors.New("checkpoint corrupt")

	// ErrConfigMismatch indicates the record belongs to a different run
	// configuration (range or algorithm version).
	ErrConfigMismatch = errors.New("checkpoint config mismatch")
)

// stateSchema validates the structure of a checkpoint document before it is
// decoded, so a truncated or hand-edited file surfaces as ErrCheckpointCorrupt
// instead of a zero-valued state.
const stateSchema = `{
	"type": "object",
	"required": [
		"format_version",
		"config_fingerprint",
		"n_initial",
		"n_final",
		"last_contiguous_verified",
		"total_verified",
		"total_satisfied",
		"counterexamples",
		"elapsed_seconds"
	],
	"properties": {
		"format_version":           {"type": "integer", "minimum": 1},
		"config_fingerprint":       {"type": "string", "minLength": 16, "maxLength": 16},
		"n_initial":                {"type": "integer", "minimum": 6},
		"n_final":                  {"type": "integer", "minimum": 6},
		"last_contiguous_verified": {"type": "integer", "minimum": 0},
		"total_verified":           {"type": "integer", "minimum": 0},
		"total_satisfied":          {"type": "integer", "minimum": 0},
		"counterexamples":          {"type": "array", "items": {"type": "integer"}},
		"min_representations":      {"type": "integer", "minimum": 0},
		"max_representations":      {"type": "integer", "minimum": 0},
		"elapsed_seconds":          {"type": "number", "minimum": 0},
		"saved_at":                 {"type": "string"}
	}
}`

// DefaultDir returns the default checkpoint directory (~/.goldbach).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".goldbach")
}

// Store persists checkpoint records in a directory. Saves are single-writer
// and atomic: the record is written to a temporary file, flushed, and renamed
// over the previous one, so a crash mid-save leaves the prior record intact.
type Store struct {
	dir       string
	persister *persist.Persister[State]
	schema    *gojsonschema.Schema
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir string) (*Store, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stateSchema))
	if err != nil {
		return nil, fmt.Errorf("compile checkpoint schema: %w", err)
	}

	return &Store{
		dir:       dir,
		persister: persist.NewPersister[State](basename, persist.NewJSONCodec()),
		schema:    schema,
	}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.persister.Path(s.dir)
}

// Exists reports whether a checkpoint record is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())

	return err == nil
}

// Save durably writes the given state, replacing any previous record only
// after the new one is fully flushed.
func (s *Store) Save(state *State) error {
	mkdirErr := os.MkdirAll(s.dir, dirPerm)
	if mkdirErr != nil {
		return fmt.Errorf("create checkpoint dir: %w", mkdirErr)
	}

	saveErr := s.persister.Save(s.dir, func() *State { return state })
	if saveErr != nil {
		return fmt.Errorf("save checkpoint: %w", saveErr)
	}

	return nil
}

// Load reads and validates the stored checkpoint. The document must pass
// schema validation, carry the current format version, and match the
// expected configuration fingerprint.
func (s *Store) Load(expectedFingerprint string) (*State, error) {
	data, readErr := os.ReadFile(s.Path())
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, ErrNoCheckpoint
		}

		return nil, fmt.Errorf("read checkpoint: %w", readErr)
	}

	validateErr := s.validate(data)
	if validateErr != nil {
		return nil, validateErr
	}

	var state State

	unmarshalErr := json.Unmarshal(data, &state)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckpointCorrupt, unmarshalErr)
	}

	if state.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, expected %d",
			ErrCheckpointCorrupt, state.FormatVersion, FormatVersion)
	}

	if state.ConfigFingerprint != expectedFingerprint {
		return nil, fmt.Errorf("%w: checkpoint has %s, run has %s",
			ErrConfigMismatch, state.ConfigFingerprint, expectedFingerprint)
	}

	return &state, nil
}

// Clear removes the checkpoint record. Missing records are not an error.
func (s *Store) Clear() error {
	removeErr := os.Remove(s.Path())
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("remove checkpoint: %w", removeErr)
	}

	return nil
}

func (s *Store) validate(data []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointCorrupt, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrCheckpointCorrupt, strings.Join(details, "; "))
}

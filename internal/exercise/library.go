package exercise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// Library is an in-memory exercise bank indexed by language and tier. It is
// safe for concurrent use.
type Library struct {
	mu    sync.RWMutex
	byKey map[string][]Exercise // "<lang>/<tier>"
	byID  map[string]Exercise
}

var _ therapy.ExerciseSource = (*Library)(nil)

func key(language string, tier therapy.Tier) string {
	return language + "/" + string(tier)
}

// NewLibrary returns a Library seeded with the built-in bank.
func NewLibrary() *Library {
	l := &Library{
		byKey: make(map[string][]Exercise),
		byID:  make(map[string]Exercise),
	}
	l.add(builtin())
	return l
}

// libraryFile is the YAML shape of an external exercise library.
type libraryFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

// LoadFile merges the exercises from a YAML library file into the bank.
// Entries whose ID already exists replace the built-in entry.
func (l *Library) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("exercise: open %q: %w", path, err)
	}
	defer f.Close()

	if err := l.LoadFromReader(f); err != nil {
		return fmt.Errorf("exercise: parse %q: %w", path, err)
	}
	return nil
}

// LoadFromReader decodes and merges a YAML library from r.
func (l *Library) LoadFromReader(r io.Reader) error {
	var file libraryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("exercise: decode yaml: %w", err)
	}
	if err := validate(file.Exercises); err != nil {
		return err
	}
	l.add(file.Exercises)
	return nil
}

// validate checks every entry is complete, returning all failures joined.
func validate(exercises []Exercise) error {
	var errs []error
	for i, e := range exercises {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("exercise %d: missing id", i))
		}
		if e.Text == "" {
			errs = append(errs, fmt.Errorf("exercise %d (%s): missing text", i, e.ID))
		}
		if e.Language == "" {
			errs = append(errs, fmt.Errorf("exercise %d (%s): missing language", i, e.ID))
		}
		if !e.Tier.IsValid() {
			errs = append(errs, fmt.Errorf("exercise %d (%s): invalid tier %q", i, e.ID, e.Tier))
		}
	}
	return errors.Join(errs...)
}

func (l *Library) add(exercises []Exercise) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range exercises {
		k := key(e.Language, e.Tier)
		if old, ok := l.byID[e.ID]; ok {
			// Replace in place so IDs stay stable across reloads.
			oldKey := key(old.Language, old.Tier)
			bucket := l.byKey[oldKey]
			for i := range bucket {
				if bucket[i].ID == e.ID {
					l.byKey[oldKey] = append(bucket[:i], bucket[i+1:]...)
					break
				}
			}
		}
		l.byKey[k] = append(l.byKey[k], e)
		l.byID[e.ID] = e
	}
}

// Get returns the exercise with the given ID.
func (l *Library) Get(id string) (Exercise, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byID[id]
	return e, ok
}

// Languages lists the languages present in the bank.
func (l *Library) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range l.byID {
		if !seen[e.Language] {
			seen[e.Language] = true
			out = append(out, e.Language)
		}
	}
	return out
}

// Select returns up to count exercises for the language and tier, randomly
// ordered without repetition. Fewer than count are returned when the bucket
// is smaller.
func (l *Library) Select(language string, tier therapy.Tier, count int) ([]Exercise, error) {
	l.mu.RLock()
	bucket := l.byKey[key(language, tier)]
	l.mu.RUnlock()

	if len(bucket) == 0 {
		return nil, fmt.Errorf("exercise: no exercises for language %q tier %q", language, tier)
	}
	perm := rand.Perm(len(bucket))
	if count > len(bucket) {
		count = len(bucket)
	}
	out := make([]Exercise, 0, count)
	for _, idx := range perm[:count] {
		out = append(out, bucket[idx])
	}
	return out, nil
}

// Batch implements [therapy.ExerciseSource] over the bank.
func (l *Library) Batch(_ context.Context, language string, tier therapy.Tier, count int) ([]therapy.Exercise, error) {
	batch, err := l.Select(language, tier, count)
	if err != nil {
		return nil, err
	}
	out := make([]therapy.Exercise, len(batch))
	for i, e := range batch {
		out[i] = e.AsTherapy()
	}
	return out, nil
}

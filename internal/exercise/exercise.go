// Package exercise manages the therapy sentence library: the prompts a
// patient practises, organised by language and difficulty tier. A built-in
// bank ships with the binary; deployments can replace or extend it with a
// YAML library file.
package exercise

import (
	"github.com/kalpana-health/vaakya/internal/therapy"
)

// Exercise is one practice prompt.
type Exercise struct {
	ID          string       `yaml:"id" json:"id"`
	Text        string       `yaml:"text" json:"text"`
	Language    string       `yaml:"language" json:"language"`
	Tier        therapy.Tier `yaml:"tier" json:"tier"`
	Category    string       `yaml:"category" json:"category"`
	TargetWords []string     `yaml:"target_words" json:"target_words"`
	ImageURL    string       `yaml:"image_url,omitempty" json:"image_url,omitempty"`
}

// AsTherapy converts to the controller's view of an exercise.
func (e Exercise) AsTherapy() therapy.Exercise {
	return therapy.Exercise{
		ID:          e.ID,
		Prompt:      e.Text,
		ImageURL:    e.ImageURL,
		Language:    e.Language,
		Tier:        e.Tier,
		Category:    e.Category,
		TargetWords: e.TargetWords,
	}
}

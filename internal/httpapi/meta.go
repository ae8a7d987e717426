package httpapi

import (
	"net/http"
	"strconv"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// Languages lists the languages the exercise library can serve.
func (a *API) Languages(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"languages": a.library.Languages(),
	})
}

// tierInfo describes one difficulty tier for the UI.
type tierInfo struct {
	Tier     therapy.Tier `json:"tier"`
	Rank     int          `json:"rank"`
	MinScore float64      `json:"min_score"`
	MaxScore float64      `json:"max_score"`
}

// Difficulties lists the tier ladder with its classification bands.
func (a *API) Difficulties(w http.ResponseWriter, _ *http.Request) {
	bands := map[therapy.Tier][2]float64{
		therapy.TierEasy:   {0, 50},
		therapy.TierMedium: {51, 75},
		therapy.TierHard:   {76, 100},
	}
	tiers := make([]tierInfo, 0, 3)
	for _, t := range therapy.Tiers() {
		b := bands[t]
		tiers = append(tiers, tierInfo{Tier: t, Rank: t.Rank(), MinScore: b[0], MaxScore: b[1]})
	}
	JSON(w, http.StatusOK, map[string]any{"difficulties": tiers})
}

// Exercises serves a batch of practice prompts for a language and tier.
// Used both at session start and when the patient accepts a tier change.
func (a *API) Exercises(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	if language == "" {
		language = a.defaults.Language
	}

	tier := therapy.Tier(r.URL.Query().Get("tier"))
	if tier == "" {
		tier = a.defaults.Tier
	}
	if !tier.IsValid() {
		Error(w, http.StatusBadRequest, "tier must be easy, medium, or hard")
		return
	}

	count := a.defaults.Quota
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	exercises, err := a.library.Select(language, tier, count)
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"language":  language,
		"tier":      tier,
		"exercises": exercises,
	})
}

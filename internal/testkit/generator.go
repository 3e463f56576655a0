package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// SocialGeneratorConfig configures the synthetic discrete-choice data generator
type SocialGeneratorConfig struct {
	Subjects        int     `json:"subjects"`
	GamesPerSubject int     `json:"games_per_subject"`
	Session         int     `json:"session"`
	Alpha           float64 `json:"alpha"` // weight on other when behind
	Beta            float64 `json:"beta"`  // weight on other when ahead
	Gamma           float64 `json:"gamma"` // positive reciprocity
	Delta           float64 `json:"delta"` // negative reciprocity
	Sigma           float64 `json:"sigma"` // choice sensitivity
	MinPayoff       float64 `json:"min_payoff"`
	MaxPayoff       float64 `json:"max_payoff"`
	Seed            int64   `json:"seed"`
}

// DefaultSocialConfig returns parameters close to the published session-1 fit
func DefaultSocialConfig() SocialGeneratorConfig {
	return SocialGeneratorConfig{
		Subjects:        60,
		GamesPerSubject: 80,
		Session:         1,
		Alpha:           0.08,
		Beta:            0.26,
		Gamma:           0.07,
		Delta:           -0.04,
		Sigma:           0.016,
		MinPayoff:       100,
		MaxPayoff:       900,
		Seed:            42,
	}
}

// Theta returns the working-scale parameter vector the generator used
func (c SocialGeneratorConfig) Theta() []float64 {
	return []float64{c.Alpha, c.Beta, c.Gamma, c.Delta, math.Log(c.Sigma)}
}

// SocialGenerator draws binary allocation decisions from the random-utility model
type SocialGenerator struct {
	config SocialGeneratorConfig
	rng    *rand.Rand
}

// NewSocialGenerator creates a generator with its own seeded source
func NewSocialGenerator(config SocialGeneratorConfig) *SocialGenerator {
	return &SocialGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns Subjects*GamesPerSubject decisions grouped by subject
func (g *SocialGenerator) Generate() []dataset.SocialChoice {
	out := make([]dataset.SocialChoice, 0, g.config.Subjects*g.config.GamesPerSubject)
	for s := 0; s < g.config.Subjects; s++ {
		subject := core.SubjectID(fmt.Sprintf("%d", 1001+s))
		for k := 0; k < g.config.GamesPerSubject; k++ {
			out = append(out, g.decision(subject))
		}
	}
	return out
}

func (g *SocialGenerator) decision(subject core.SubjectID) dataset.SocialChoice {
	obs := dataset.SocialChoice{
		Subject: subject,
		Session: g.config.Session,
		SelfX:   g.payoff(),
		OtherX:  g.payoff(),
		SelfY:   g.payoff(),
		OtherY:  g.payoff(),
	}
	obs.BehindX, obs.AheadX = position(obs.SelfX, obs.OtherX)
	obs.BehindY, obs.AheadY = position(obs.SelfY, obs.OtherY)

	// a third of the games follow a kind move, a third an unkind one
	switch u := g.rng.Float64(); {
	case u < 1.0/3:
		obs.PosRecip = 1
	case u < 2.0/3:
		obs.NegRecip = 1
	}

	ux := g.utility(obs.SelfX, obs.OtherX, obs.BehindX, obs.AheadX, obs)
	uy := g.utility(obs.SelfY, obs.OtherY, obs.BehindY, obs.AheadY, obs)
	p := 1 / (1 + math.Exp(-g.config.Sigma*(ux-uy)))
	obs.ChoseX = g.rng.Float64() < p
	return obs
}

func (g *SocialGenerator) utility(self, other, behind, ahead float64, obs dataset.SocialChoice) float64 {
	c := g.config
	w := c.Alpha*behind + c.Beta*ahead + c.Gamma*obs.PosRecip + c.Delta*obs.NegRecip
	return (1-w)*self + w*other
}

func (g *SocialGenerator) payoff() float64 {
	return math.Round(g.config.MinPayoff + g.rng.Float64()*(g.config.MaxPayoff-g.config.MinPayoff))
}

func position(self, other float64) (behind, ahead float64) {
	switch {
	case self < other:
		return 1, 0
	case self > other:
		return 0, 1
	}
	return 0, 0
}

// EffortGeneratorConfig configures the synthetic real-effort data generator
type EffortGeneratorConfig struct {
	Subjects            int       `json:"subjects"`
	DecisionsPerSubject int       `json:"decisions_per_subject"`
	Beta                float64   `json:"beta"`   // present bias
	BetaH               float64   `json:"beta_h"` // predicted present bias
	Delta               float64   `json:"delta"`  // daily discount factor
	Gamma               float64   `json:"gamma"`  // cost curvature
	Phi                 float64   `json:"phi"`    // cost scale
	Alpha               float64   `json:"alpha"`  // effort shift
	Sigma               float64   `json:"sigma"`  // effort noise
	Wages               []float64 `json:"wages"`
	Distances           []float64 `json:"distances"`
	PredictionShare     float64   `json:"prediction_share"`
	BonusShare          float64   `json:"bonus_share"`
	Seed                int64     `json:"seed"`
}

// DefaultEffortConfig returns parameters close to the published fit
func DefaultEffortConfig() EffortGeneratorConfig {
	return EffortGeneratorConfig{
		Subjects:            40,
		DecisionsPerSubject: 60,
		Beta:                0.835,
		BetaH:               1.0,
		Delta:               1.0,
		Gamma:               2.145,
		Phi:                 724,
		Alpha:               7.3,
		Sigma:               20,
		Wages:               []float64{0.10, 0.15, 0.20, 0.25, 0.30},
		Distances:           []float64{0, 7, 14, 21, 28},
		PredictionShare:     0.25,
		BonusShare:          0,
		Seed:                42,
	}
}

// Theta returns the working-scale parameter vector the generator used
func (c EffortGeneratorConfig) Theta() []float64 {
	return []float64{c.Beta, c.BetaH, c.Delta, c.Gamma, math.Log(c.Phi), c.Alpha, math.Log(c.Sigma)}
}

// OptimalEffort is the closed-form optimum (phi w B delta^d)^(1/(gamma-1)) - alpha.
func (c EffortGeneratorConfig) OptimalEffort(obs dataset.EffortChoice) float64 {
	b := 1.0
	if obs.Today {
		b = c.Beta
		if obs.Prediction {
			b = c.BetaH
		}
	}
	base := c.Phi * obs.Wage * b * math.Pow(c.Delta, obs.NetDistance)
	return math.Pow(base, 1/(c.Gamma-1)) - c.Alpha
}

// EffortGenerator draws censored effort choices around the optimum
type EffortGenerator struct {
	config EffortGeneratorConfig
	rng    *rand.Rand
}

// NewEffortGenerator creates a generator with its own seeded source
func NewEffortGenerator(config EffortGeneratorConfig) *EffortGenerator {
	return &EffortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns Subjects*DecisionsPerSubject choices grouped by subject
func (g *EffortGenerator) Generate() []dataset.EffortChoice {
	c := g.config
	out := make([]dataset.EffortChoice, 0, c.Subjects*c.DecisionsPerSubject)
	for s := 0; s < c.Subjects; s++ {
		subject := core.SubjectID(fmt.Sprintf("%d", 501+s))
		for k := 0; k < c.DecisionsPerSubject; k++ {
			obs := dataset.EffortChoice{
				Subject:      subject,
				Wage:         c.Wages[g.rng.Intn(len(c.Wages))],
				NetDistance:  c.Distances[g.rng.Intn(len(c.Distances))],
				Today:        g.rng.Float64() < 0.5,
				Prediction:   g.rng.Float64() < c.PredictionShare,
				BonusOffered: g.rng.Float64() < c.BonusShare,
			}
			e := c.OptimalEffort(obs) + c.Sigma*g.rng.NormFloat64()
			obs.Effort = math.Min(math.Max(e, dataset.EffortLowerBound), dataset.EffortUpperBound)
			out = append(out, obs)
		}
	}
	return out
}

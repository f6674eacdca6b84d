package settings

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"diamonds/internal/ledger"
)

var (
	ErrPercentageRange = errors.New("partner percentage must be between 0 and 100")
	ErrSplitTotal      = errors.New("partner percentages must sum to 100")
	ErrEmptyPartner    = errors.New("partner name cannot be empty")
	ErrNegativePrice   = errors.New("default price cannot be negative")
)

// splitTolerance absorbs float noise from UI sliders such as 33.3 + 66.7.
const splitTolerance = 1e-9

// Settings holds the user-editable configuration: who the partners are, how
// the monthly balance is split between them and the defaults offered by the
// sale entry form.
type Settings struct {
	PartnerAName       string  `json:"partnerAName" yaml:"partner_a_name"`
	PartnerBName       string  `json:"partnerBName" yaml:"partner_b_name"`
	PartnerAPercentage float64 `json:"partnerAPercentage" yaml:"partner_a_percentage"`
	PartnerBPercentage float64 `json:"partnerBPercentage" yaml:"partner_b_percentage"`
	DefaultCategory    string  `json:"defaultCategory" yaml:"default_category"`
	DefaultPrice       float64 `json:"defaultPrice" yaml:"default_price"`
}

func Default() Settings {
	return Settings{
		PartnerAName:       "Partner A",
		PartnerBName:       "Partner B",
		PartnerAPercentage: 50,
		PartnerBPercentage: 50,
		DefaultCategory:    "General",
		DefaultPrice:       0,
	}
}

// LoadFile reads defaults from a YAML file. Fields missing from the file keep
// the built-in defaults. A missing file is not an error.
func LoadFile(path string) (Settings, error) {
	s := Default()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Default(), fmt.Errorf("parse settings file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("settings file %s: %w", path, err)
	}
	return s, nil
}

// SetPartnerA sets partner A's percentage and moves partner B to the
// complement. The value is clamped to [0, 100].
func (s *Settings) SetPartnerA(p float64) {
	p = clampPercent(p)
	s.PartnerAPercentage = p
	s.PartnerBPercentage = 100 - p
}

// SetPartnerB is the mirror of SetPartnerA.
func (s *Settings) SetPartnerB(p float64) {
	p = clampPercent(p)
	s.PartnerBPercentage = p
	s.PartnerAPercentage = 100 - p
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.PartnerAName) == "" || strings.TrimSpace(s.PartnerBName) == "" {
		return ErrEmptyPartner
	}
	for _, p := range []float64{s.PartnerAPercentage, s.PartnerBPercentage} {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return ErrPercentageRange
		}
	}
	if math.Abs(s.PartnerAPercentage+s.PartnerBPercentage-100) > splitTolerance {
		return ErrSplitTotal
	}
	if s.DefaultPrice < 0 {
		return ErrNegativePrice
	}
	return nil
}

// Split converts the percentages for the reconciliation engine. Partner B is
// derived from partner A so the pair always sums to exactly 100.
func (s Settings) Split() ledger.Split {
	a := decimal.NewFromFloat(s.PartnerAPercentage)
	return ledger.Split{
		PartnerAPercentage: a,
		PartnerBPercentage: decimal.NewFromInt(100).Sub(a),
	}
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

package service

import (
	"fmt"
	"math"
	"strconv"

	"assistant/internal/model"
	"assistant/internal/utils"

	"go.uber.org/zap"
)

// EntityExtractor pulls structured search filters out of free text.
// It has no external dependencies and never fails: a value that cannot
// be parsed is logged and left unset.
type EntityExtractor struct {
	logger *zap.Logger
}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor(logger *zap.Logger) *EntityExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityExtractor{logger: logger.Named("extractor")}
}

// Extract returns the entities mentioned in text
func (x *EntityExtractor) Extract(text string) model.EntitySet {
	t := utils.NormalizeText(text)
	var e model.EntitySet

	if v, ok := firstMatch(typeRules, t); ok {
		e.Type = &v
	}
	if v, ok := firstMatch(countryRules, t); ok {
		e.Country = &v
	}
	e.Bedrooms = x.extractCount("bedrooms", bedroomRules, t)
	e.Bathrooms = x.extractCount("bathrooms", bathroomRules, t)
	x.extractPrices(t, &e)
	e.Area = x.extractArea(t)

	e.Sanitize()
	return e
}

// ExtractName returns the name the user introduced themselves with, if any
func ExtractName(text string) (string, bool) {
	for _, p := range namePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func (x *EntityExtractor) extractCount(field string, rules []countRule, t string) *int {
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(t, -1) {
			if r.exclude && len(m) > 2 && m[2] != "" {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil {
				x.anomaly(field, m[1], err)
				return nil
			}
			return &n
		}
	}
	return nil
}

func (x *EntityExtractor) extractPrices(t string, e *model.EntitySet) {
	scale := detectScale(t)

	for _, r := range priceRules {
		m := firstPriceMatch(r.pattern, t)
		if m == nil {
			continue
		}
		switch r.value {
		case boundMax, boundMin:
			raw, err := utils.ParseDecimal(m[1])
			if err != nil {
				x.anomaly(r.value.String(), m[1], err)
				continue
			}
			p, ok := scale.apply(raw, raw)
			if !ok {
				x.anomaly(r.value.String(), m[1], errPriceOverflow)
				continue
			}
			if r.value == boundMax {
				e.MaxPrice = &p
			} else {
				e.MinPrice = &p
			}
		case boundRange:
			lo, err := utils.ParseDecimal(m[1])
			if err != nil {
				x.anomaly(r.value.String(), m[1], err)
				continue
			}
			hi, err := utils.ParseDecimal(m[2])
			if err != nil {
				x.anomaly(r.value.String(), m[2], err)
				continue
			}
			minP, okLo := scale.apply(lo, lo)
			maxP, okHi := scale.apply(hi, lo)
			if !okLo || !okHi {
				x.anomaly(r.value.String(), m[0], errPriceOverflow)
				continue
			}
			e.MinPrice, e.MaxPrice = &minP, &maxP
			return
		}
	}
}

func (x *EntityExtractor) extractArea(t string) *int {
	m := areaPattern.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	v, err := utils.ParseDecimal(m[1])
	if err != nil {
		x.anomaly("area", m[1], err)
		return nil
	}
	if v > math.MaxInt32 {
		x.anomaly("area", m[1], errAreaOverflow)
		return nil
	}
	n := int(v)
	return &n
}

func (x *EntityExtractor) anomaly(field, token string, err error) {
	extractionAnomalies.WithLabelValues(field).Inc()
	x.logger.Warn("Extraction anomaly, field left unset",
		zap.String("field", field),
		zap.String("token", token),
		zap.Error(err))
}

var (
	errPriceOverflow = fmt.Errorf("%w: price out of range", utils.ErrMalformedNumber)
	errAreaOverflow  = fmt.Errorf("%w: area out of range", utils.ErrMalformedNumber)
)

// priceScale is the magnitude implied by the unit words in a message
type priceScale int

const (
	scaleNone priceScale = iota
	scaleThousand
	scaleMillion
)

func detectScale(t string) priceScale {
	switch {
	case thousandMarker.MatchString(t):
		return scaleThousand
	case millionMarker.MatchString(t):
		return scaleMillion
	default:
		return scaleNone
	}
}

// apply scales v. Without a unit word, amounts below 1000 are read as
// thousands ("dưới 50" means 50,000); ref is the number that decides this,
// so both ends of a range share one magnitude.
func (s priceScale) apply(v, ref float64) (int64, bool) {
	switch s {
	case scaleThousand:
		v *= 1_000
	case scaleMillion:
		v *= 1_000_000
	default:
		if ref < 1_000 {
			v *= 1_000
		}
	}
	if v >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Round(v)), true
}

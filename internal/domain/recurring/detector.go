// Package recurring identifies merchants that represent recurring financial
// obligations. It groups transactions by normalized merchant key, infers a
// cadence from inter-arrival gaps, and ranks candidates by how bill-like
// they look.
package recurring

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billwatch/billwatch/internal/domain/common"
	"github.com/billwatch/billwatch/internal/domain/recurring/merchant"
)

// Cadence is the inferred repetition interval of a recurring merchant.
type Cadence string

const (
	CadenceMonthly  Cadence = "monthly"
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceAnnual   Cadence = "annual"
	CadenceUnknown  Cadence = "unknown"
)

// Cadence windows: a median gap within windowDays of gapDays matches.
// Checked in declaration order; the first match wins.
const (
	monthlyGapDays     = 30
	monthlyWindowDays  = 5
	weeklyGapDays      = 7
	weeklyWindowDays   = 1
	biweeklyGapDays    = 14
	biweeklyWindowDays = 2
	annualGapDays      = 365
	annualWindowDays   = 20
)

// Ranking weights. Classified cadence dominates; observation count and
// amount consistency break ties within each band.
const (
	scoreCadenceBonus = 100.0
	scoreCountWeight  = 5.0
	scoreCountCap     = 30.0
	scoreSpreadCap    = 30.0
)

const (
	// DefaultMinCount is the minimum group size considered recurring.
	DefaultMinCount = 3
	// DefaultMaxGroups caps how many groups one run produces.
	DefaultMaxGroups = 200
	// maxSamples bounds the audit subset kept per group.
	maxSamples = 8
)

// Group is one candidate recurring obligation, recomputed from scratch on
// every run.
type Group struct {
	MerchantKey     string               `json:"merchant_key"`
	Merchant        string               `json:"merchant"`
	Count           int                  `json:"count"`
	Cadence         Cadence              `json:"cadence"`
	TypicalAmount   decimal.Decimal      `json:"typical_amount"`
	AmountMAD       decimal.Decimal      `json:"amount_mad"`
	UsualDayOfMonth *int                 `json:"usual_day_of_month,omitempty"`
	Samples         []common.Transaction `json:"samples"`
}

// Options tunes a detection run. Zero values take the defaults.
type Options struct {
	MinCount  int
	MaxGroups int
}

func (o Options) withDefaults() Options {
	if o.MinCount < 1 {
		o.MinCount = DefaultMinCount
	}
	if o.MaxGroups < 1 {
		o.MaxGroups = DefaultMaxGroups
	}
	return o
}

// Detect groups txs by normalized merchant and returns recurring
// candidates ranked best-first. It is pure and deterministic: the same
// input snapshot always yields the same groups in the same order, and it
// never fails - insufficient data simply produces no group.
func Detect(txs []common.Transaction, opts Options) []Group {
	opts = opts.withDefaults()

	// Partition in first-seen key order so the MaxGroups cap and final
	// stable sort are deterministic.
	byKey := make(map[string][]common.Transaction)
	var keyOrder []string
	for _, tx := range txs {
		key := merchant.Normalize(tx.Description)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], tx)
	}

	var groups []Group
	for _, key := range keyOrder {
		if len(groups) >= opts.MaxGroups {
			break
		}
		members := byKey[key]
		if len(members) < opts.MinCount {
			continue
		}
		groups = append(groups, buildGroup(key, members))
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return score(groups[a]) > score(groups[b])
	})
	return groups
}

// buildGroup computes the statistics for one merchant's transactions.
func buildGroup(key string, members []common.Transaction) Group {
	sorted := make([]common.Transaction, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date.Before(sorted[b].Date)
	})

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(wholeDaysBetween(sorted[i-1].Date, sorted[i].Date)))
	}

	group := Group{
		MerchantKey: key,
		Merchant:    merchant.Display(key),
		Count:       len(sorted),
		Cadence:     classifyCadence(gaps),
	}

	amounts := make([]decimal.Decimal, len(sorted))
	for i, tx := range sorted {
		amounts[i] = tx.Amount
	}
	group.TypicalAmount = medianDecimal(amounts)

	deviations := make([]decimal.Decimal, len(sorted))
	for i, a := range amounts {
		deviations[i] = a.Sub(group.TypicalAmount).Abs()
	}
	group.AmountMAD = medianDecimal(deviations)

	if group.Cadence == CadenceMonthly {
		days := make([]float64, len(sorted))
		for i, tx := range sorted {
			days[i] = float64(tx.Date.Day())
		}
		day := int(math.Round(medianFloat(days)))
		group.UsualDayOfMonth = &day
	}

	// Most recent first, capped.
	n := len(sorted)
	if n > maxSamples {
		n = maxSamples
	}
	group.Samples = make([]common.Transaction, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		group.Samples = append(group.Samples, sorted[i])
	}

	return group
}

// classifyCadence matches the median inter-arrival gap against the cadence
// windows, in priority order. Gaps are whole calendar days and the windows
// are day-granular, so only a whole-day median can match one: the 7.5 an
// even-length gap sequence can produce sits between rhythms and stays
// unknown, even though it is numerically near the weekly target.
func classifyCadence(gaps []float64) Cadence {
	if len(gaps) == 0 {
		return CadenceUnknown
	}
	median := medianFloat(gaps)
	if median != math.Trunc(median) {
		return CadenceUnknown
	}

	switch {
	case math.Abs(median-monthlyGapDays) <= monthlyWindowDays:
		return CadenceMonthly
	case math.Abs(median-weeklyGapDays) <= weeklyWindowDays:
		return CadenceWeekly
	case math.Abs(median-biweeklyGapDays) <= biweeklyWindowDays:
		return CadenceBiweekly
	case math.Abs(median-annualGapDays) <= annualWindowDays:
		return CadenceAnnual
	}
	return CadenceUnknown
}

// score ranks a group: classified cadence dominates, then observation
// count (capped), penalized by amount spread (capped).
func score(g Group) float64 {
	s := 0.0
	if g.Cadence != CadenceUnknown {
		s += scoreCadenceBonus
	}
	s += math.Min(scoreCountCap, float64(g.Count)*scoreCountWeight)
	s -= math.Min(scoreSpreadCap, g.AmountMAD.InexactFloat64())
	return s
}

// wholeDaysBetween returns the calendar-day distance between two dates.
// Transaction dates are UTC midnights, so the division is exact.
func wholeDaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

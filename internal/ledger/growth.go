package ledger

// Growth annotates a period's volume with its change relative to the
// previous period.
type Growth struct {
	PeriodQuantity
	GrowthPercent float64 `json:"growthPercent"`
	HasPrevious   bool    `json:"hasPrevious"`
}

// AnnualGrowth compares each year with the next older one. The input must be
// ordered newest first, so the comparison partner is the following element.
// A comparison is only made when both years have volume: an empty older year
// (division by zero) or an empty current year reports no previous value and
// zero growth.
func AnnualGrowth(years []PeriodQuantity) []Growth {
	out := make([]Growth, len(years))
	for i, cur := range years {
		out[i] = Growth{PeriodQuantity: cur}
		if i+1 >= len(years) {
			continue
		}
		prev := years[i+1].Quantity
		if prev == 0 || cur.Quantity == 0 {
			continue
		}
		out[i].HasPrevious = true
		out[i].GrowthPercent = percentChange(cur.Quantity, prev)
	}
	return out
}

// MonthlyGrowth compares each month with the one before it. The input must
// be chronological. Growth from an empty month to a non-empty one is reported
// as exactly 100%; an empty month following an empty month has no previous
// value.
func MonthlyGrowth(months []PeriodQuantity) []Growth {
	out := make([]Growth, len(months))
	for i, cur := range months {
		out[i] = Growth{PeriodQuantity: cur}
		if i == 0 {
			continue
		}
		prev := months[i-1].Quantity
		switch {
		case prev == 0 && cur.Quantity > 0:
			out[i].HasPrevious = true
			out[i].GrowthPercent = 100
		case prev == 0:
		default:
			out[i].HasPrevious = true
			out[i].GrowthPercent = percentChange(cur.Quantity, prev)
		}
	}
	return out
}

func percentChange(cur, prev int) float64 {
	return float64(cur-prev) / float64(prev) * 100
}

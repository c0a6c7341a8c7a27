// Package indicators derives technical summaries from validated price bars.
// Every series function is NaN-tolerant: gaps in the input never poison the
// rest of the output.
package indicators

import (
	"math"

	"smartmoney/pkg/market"
)

// Windows used by Summarize.
const (
	EMAPeriod = 20
	RSIPeriod = 14
	ATRPeriod = 14
)

// tradingDays annualises daily volatility.
const tradingDays = 252

// Summary is the latest value of each indicator. Fields are NaN when the
// history is too short to seed them.
type Summary struct {
	Change     float64 // first to last valid close, as a fraction
	EMA        float64
	RSI        float64
	MACDHist   float64
	ATR        float64
	Volatility float64 // annualised stdev of daily log returns
}

// Summarize computes a Summary over bars. Empty input yields all-NaN fields.
func Summarize(bars []market.Bar) Summary {
	nan := math.NaN()
	s := Summary{Change: nan, EMA: nan, RSI: nan, MACDHist: nan, ATR: nan, Volatility: nan}
	closes := Closes(bars)
	if len(closes) == 0 {
		return s
	}
	if first, last := firstValid(closes), lastValid(closes); first > 0 && !math.IsNaN(last) {
		s.Change = last/first - 1
	}
	s.EMA = latest(EMA(closes, EMAPeriod))
	s.RSI = latest(RSI(closes, RSIPeriod))
	_, _, hist := MACD(closes)
	s.MACDHist = latest(hist)
	s.ATR = latest(ATR(bars, ATRPeriod))
	s.Volatility = Volatility(closes)
	return s
}

// Closes extracts the close column.
func Closes(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// EMA produces the exponential moving average, seeded by the first window of
// period consecutive valid prices. A NaN price repeats the previous value.
func EMA(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	seedAt, seed := -1, 0.0
	run, sum := 0, 0.0
	for i, p := range prices {
		if math.IsNaN(p) {
			run, sum = 0, 0
			continue
		}
		run++
		sum += p
		if run == period {
			seedAt, seed = i, sum/float64(period)
			break
		}
	}
	if seedAt < 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[seedAt] = seed
	for i := seedAt + 1; i < len(prices); i++ {
		prev := out[i-1]
		if math.IsNaN(prices[i]) {
			out[i] = prev
			continue
		}
		out[i] = (prices[i]-prev)*k + prev
	}
	return out
}

// MACD returns the 12/26 MACD line, its 9-period signal and the histogram.
func MACD(prices []float64) (macd, signal, hist []float64) {
	fast := EMA(prices, 12)
	slow := EMA(prices, 26)
	macd = nanSeries(len(prices))
	for i := range prices {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMA(macd, 9)
	hist = nanSeries(len(prices))
	for i := range prices {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

// RSI computes Wilder's Relative Strength Index. Changes across a NaN price
// are skipped.
func RSI(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 {
		return out
	}
	var avgGain, avgLoss float64
	seen := 0
	prev := math.NaN()
	for i, p := range prices {
		if math.IsNaN(p) {
			continue
		}
		if math.IsNaN(prev) {
			prev = p
			continue
		}
		change := p - prev
		prev = p
		gain, loss := math.Max(change, 0), math.Max(-change, 0)
		seen++
		switch {
		case seen < period:
			avgGain += gain
			avgLoss += loss
			continue
		case seen == period:
			avgGain = (avgGain + gain) / float64(period)
			avgLoss = (avgLoss + loss) / float64(period)
		default:
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// ATR computes the average true range. Bars without a high or low fall back
// to the close-to-close move.
func ATR(bars []market.Bar, period int) []float64 {
	if len(bars) == 0 {
		return []float64{}
	}
	tr := nanSeries(len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		if math.IsNaN(hl) {
			tr[i] = math.Abs(b.Close - prevClose)
			continue
		}
		tr[i] = math.Max(hl, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return EMA(tr, period)
}

// Volatility is the annualised sample standard deviation of log returns.
func Volatility(closes []float64) float64 {
	var returns []float64
	prev := math.NaN()
	for _, c := range closes {
		if math.IsNaN(c) || c <= 0 {
			continue
		}
		if !math.IsNaN(prev) {
			returns = append(returns, math.Log(c/prev))
		}
		prev = c
	}
	if len(returns) < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss/float64(len(returns)-1)) * math.Sqrt(tradingDays)
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		return 100 - 100/(1+avgGain/avgLoss)
	}
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func latest(series []float64) float64 {
	return lastValid(series)
}

func firstValid(series []float64) float64 {
	for _, v := range series {
		if !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return math.NaN()
}

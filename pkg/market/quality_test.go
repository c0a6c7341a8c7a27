package market

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func makeHistory(rows int, closeFn func(i int) float64) *History {
	h := &History{}
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		c := closeFn(i)
		h.Dates = append(h.Dates, start.AddDate(0, 0, i))
		h.Open = append(h.Open, c)
		h.High = append(h.High, c)
		h.Low = append(h.Low, c)
		h.Close = append(h.Close, c)
		h.Volume = append(h.Volume, 1000)
	}
	return h
}

func full(i int) float64 { return 100 + float64(i) }
func null(int) float64   { return math.NaN() }

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var dq *DataQualityError
	require.True(t, errors.As(err, &dq), "expected DataQualityError, got %v", err)
	return dq.Reason
}

func TestThresholdsRowFloor(t *testing.T) {
	th := DefaultThresholds()
	h := makeHistory(9, full)
	require.False(t, th.IsValid(h))
	require.Equal(t, ReasonInsufficientRows, reasonOf(t, th.Check(h)))

	require.True(t, th.IsValid(makeHistory(10, full)))
}

func TestThresholdsAllNullClose(t *testing.T) {
	th := DefaultThresholds()
	h := makeHistory(20, null)
	require.False(t, th.IsValid(h))
	require.Equal(t, ReasonMissingClose, reasonOf(t, th.Check(h)))
}

func TestThresholdsMissingCloseColumn(t *testing.T) {
	h := makeHistory(20, full)
	h.Close = nil
	require.Equal(t, ReasonMissingClose, reasonOf(t, DefaultThresholds().Check(h)))
}

func TestThresholdsEmpty(t *testing.T) {
	th := DefaultThresholds()
	require.Equal(t, ReasonEmptyData, reasonOf(t, th.Check(nil)))
	require.Equal(t, ReasonEmptyData, reasonOf(t, th.Check(&History{})))
}

func TestThresholdsCloseFloorAndRatio(t *testing.T) {
	th := DefaultThresholds()

	// 4 valid closes out of 10 rows: below the absolute floor.
	sparse := makeHistory(10, func(i int) float64 {
		if i < 4 {
			return 1
		}
		return math.NaN()
	})
	require.Equal(t, ReasonMissingClose, reasonOf(t, th.Check(sparse)))

	// 6 of 20 clears the floor of 5 but not the 50% ratio.
	thin := makeHistory(20, func(i int) float64 {
		if i < 6 {
			return 1
		}
		return math.NaN()
	})
	require.False(t, th.IsValid(thin))

	th.MinCloseRatio = 0
	require.True(t, th.IsValid(thin))
}

func TestThresholdsNormalised(t *testing.T) {
	got := Thresholds{MinCloseRatio: 2}.Normalised()
	require.Equal(t, DefaultThresholds(), got)

	custom := Thresholds{MinRows: 30, MinCloses: 20, MinCloseRatio: 0.9}.Normalised()
	require.Equal(t, 30, custom.MinRows)
	require.Equal(t, 20, custom.MinCloses)
	require.Equal(t, 0.9, custom.MinCloseRatio)
}

func TestBarsKeepRowsTheGateCounted(t *testing.T) {
	h := makeHistory(10, func(i int) float64 {
		if i%2 == 0 {
			return math.NaN()
		}
		return full(i)
	})
	require.True(t, DefaultThresholds().IsValid(h))

	bars := h.Bars()
	require.Len(t, bars, h.Len())
	require.True(t, math.IsNaN(bars[0].Close))

	rec := AssetRecord{Prices: bars, Status: OK()}
	last, ok := rec.LastClose()
	require.True(t, ok)
	require.Equal(t, full(9), last)

	rec.Prices[9].Close = math.NaN()
	last, ok = rec.LastClose()
	require.True(t, ok)
	require.Equal(t, full(7), last)
}

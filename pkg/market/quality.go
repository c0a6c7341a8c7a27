package market

const (
	defaultMinRows       = 10
	defaultMinCloses     = 5
	defaultMinCloseRatio = 0.5
)

// Thresholds is the data-quality gate applied to every price table before a
// record is accepted. MinCloseRatio <= 0 disables the ratio check.
type Thresholds struct {
	MinRows       int
	MinCloses     int
	MinCloseRatio float64
}

// DefaultThresholds returns the gate used when nothing is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRows:       defaultMinRows,
		MinCloses:     defaultMinCloses,
		MinCloseRatio: defaultMinCloseRatio,
	}
}

// Normalised fills zero fields with defaults.
func (t Thresholds) Normalised() Thresholds {
	if t.MinRows <= 0 {
		t.MinRows = defaultMinRows
	}
	if t.MinCloses <= 0 {
		t.MinCloses = defaultMinCloses
	}
	if t.MinCloseRatio < 0 || t.MinCloseRatio > 1 {
		t.MinCloseRatio = defaultMinCloseRatio
	}
	return t
}

// Check returns nil when h passes the gate, otherwise a *DataQualityError
// carrying the failure reason.
func (t Thresholds) Check(h *History) error {
	rows := h.Len()
	if rows == 0 {
		return &DataQualityError{Reason: ReasonEmptyData}
	}
	if rows < t.MinRows {
		return &DataQualityError{Reason: ReasonInsufficientRows, Rows: rows}
	}
	if h.Close == nil {
		return &DataQualityError{Reason: ReasonMissingClose, Rows: rows}
	}
	closes := h.ValidCloses()
	if closes < t.MinCloses {
		return &DataQualityError{Reason: ReasonMissingClose, Rows: rows, Closes: closes}
	}
	if t.MinCloseRatio > 0 && float64(closes) < t.MinCloseRatio*float64(rows) {
		return &DataQualityError{Reason: ReasonMissingClose, Rows: rows, Closes: closes}
	}
	return nil
}

// IsValid reports whether h passes the gate.
func (t Thresholds) IsValid(h *History) bool {
	return t.Check(h) == nil
}

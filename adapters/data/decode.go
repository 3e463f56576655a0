package data

import (
	"fmt"
	"math"
	"strconv"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// rowDecoder reads typed cells from one raw row and reports the first
// problem with the source, row and column that caused it.
type rowDecoder struct {
	source string
	row    int // 1-based data row, header excluded
	raw    dataset.RawRow
	err    error
}

func (d *rowDecoder) float(col string) float64 {
	if d.err != nil {
		return 0
	}
	cell := d.raw[col]
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		d.err = core.NewInvalidCellError(d.source, d.row, col, cell)
		return 0
	}
	return v
}

// indicator reads a 0/1 column as a float.
func (d *rowDecoder) indicator(col string) float64 {
	v := d.float(col)
	if d.err == nil && v != 0 && v != 1 {
		d.err = core.NewInvalidCellError(d.source, d.row, col, d.raw[col])
	}
	return v
}

// integer reads a whole-number column; 1.5 is rejected, 2.0 is 2.
func (d *rowDecoder) integer(col string) int {
	v := d.float(col)
	if d.err == nil && (v != math.Trunc(v) || math.Abs(v) > math.MaxInt32) {
		d.err = core.NewInvalidCellError(d.source, d.row, col, d.raw[col])
		return 0
	}
	return int(v)
}

func (d *rowDecoder) flag(col string) bool {
	return d.indicator(col) == 1
}

func (d *rowDecoder) subject(col string) core.SubjectID {
	if d.err != nil {
		return ""
	}
	id, err := core.ParseSubjectID(d.raw[col])
	if err != nil {
		d.err = core.NewInvalidCellError(d.source, d.row, col, d.raw[col])
	}
	return id
}

func requireColumns(frame *dataset.RawFrame, columns []string) error {
	for _, col := range columns {
		if !frame.HasColumn(col) {
			return core.NewMissingColumnError(frame.Source, col)
		}
	}
	if len(frame.Rows) == 0 {
		return fmt.Errorf("%w: %s", core.ErrEmptyDataset, frame.Source)
	}
	return nil
}

// DecodeSocial converts a raw frame into discrete-choice observations.
// Any blank or non-numeric required cell aborts the decode.
func DecodeSocial(frame *dataset.RawFrame) ([]dataset.SocialChoice, error) {
	if err := requireColumns(frame, dataset.SocialColumns); err != nil {
		return nil, err
	}
	hasSession := frame.HasColumn(dataset.ColSession)

	out := make([]dataset.SocialChoice, len(frame.Rows))
	for i, raw := range frame.Rows {
		d := rowDecoder{source: frame.Source, row: i + 1, raw: raw}
		obs := dataset.SocialChoice{
			Subject:  d.subject(dataset.ColSubject),
			BehindX:  d.indicator(dataset.ColBehindX),
			AheadX:   d.indicator(dataset.ColAheadX),
			BehindY:  d.indicator(dataset.ColBehindY),
			AheadY:   d.indicator(dataset.ColAheadY),
			PosRecip: d.indicator(dataset.ColPosRecip),
			NegRecip: d.indicator(dataset.ColNegRecip),
			SelfX:    d.float(dataset.ColSelfX),
			OtherX:   d.float(dataset.ColOtherX),
			SelfY:    d.float(dataset.ColSelfY),
			OtherY:   d.float(dataset.ColOtherY),
			ChoseX:   d.flag(dataset.ColChoiceX),
		}
		if hasSession {
			obs.Session = d.integer(dataset.ColSession)
		}
		if d.err != nil {
			return nil, d.err
		}
		out[i] = obs
	}
	return out, nil
}

// DecodeEffort converts a raw frame into effort-choice observations.
func DecodeEffort(frame *dataset.RawFrame) ([]dataset.EffortChoice, error) {
	if err := requireColumns(frame, dataset.EffortColumns); err != nil {
		return nil, err
	}

	out := make([]dataset.EffortChoice, len(frame.Rows))
	for i, raw := range frame.Rows {
		d := rowDecoder{source: frame.Source, row: i + 1, raw: raw}
		obs := dataset.EffortChoice{
			Subject:      d.subject(dataset.ColWorker),
			Effort:       d.float(dataset.ColEffort),
			Wage:         d.float(dataset.ColWage),
			NetDistance:  d.float(dataset.ColNetDistance),
			Today:        d.flag(dataset.ColToday),
			Prediction:   d.flag(dataset.ColPrediction),
			BonusOffered: d.flag(dataset.ColBonusOffered),
		}
		if d.err != nil {
			return nil, d.err
		}
		if obs.Wage <= 0 {
			return nil, core.NewInvalidCellError(frame.Source, i+1, dataset.ColWage, raw[dataset.ColWage])
		}
		if obs.Effort < dataset.EffortLowerBound || obs.Effort > dataset.EffortUpperBound {
			return nil, core.NewInvalidCellError(frame.Source, i+1, dataset.ColEffort, raw[dataset.ColEffort])
		}
		out[i] = obs
	}
	return out, nil
}

package models

// SnapshotRequest carries the query parameters of the snapshot endpoint. Every field
// stays a string so a malformed value is ignored instead of rejecting the request.
type SnapshotRequest struct {
	INAV         string `query:"inav" json:"inav" default:"on"`
	USDINRManual string `query:"usdinr_manual" json:"usdinr_manual"`
	PriceManual  string `query:"price_manual" json:"price_manual"`
	INAVManual   string `query:"inav_manual" json:"inav_manual"`
}

// RawOverrides maps each overridable field to its raw query value.
func (r *SnapshotRequest) RawOverrides() map[FieldName]string {
	return map[FieldName]string{
		FieldUSDINR: r.USDINRManual,
		FieldPrice:  r.PriceManual,
		FieldINAV:   r.INAVManual,
	}
}

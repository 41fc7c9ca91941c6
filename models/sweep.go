package models

// SweepSummary reports the outcome of one scheduled refresh sweep.
type SweepSummary struct {
	Scanned        int `json:"scanned"`
	Refreshed      int `json:"refreshed"`
	Failed         int `json:"failed"`
	ReauthRequired int `json:"reauth_required"`
}

package airdrop

// View is the caller's airdrop and bonus point allocation.
type View struct {
	Year                  int   `json:"year"`
	Airdrop               int64 `json:"airdrop"`
	IsReceived            bool  `json:"isReceived"`
	AmountToken           int64 `json:"amountToken"`
	PointReward           int64 `json:"pointReward"`
	IsPointRewardReceived bool  `json:"isPointRewardReceived"`
}

package feedsim

type ForceScoreReq struct {
	HomeScore int64 `json:"home_score"`
	AwayScore int64 `json:"away_score"`
}

type ForceStatusReq struct {
	Status string `json:"status"` // "NS" | "LIVE" | "FT"
}

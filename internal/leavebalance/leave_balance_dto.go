package leavebalance

type BalanceResponse struct {
	ID          string `json:"id"`
	PolicyID    string `json:"policy_id"`
	PolicyName  string `json:"policy_name"`
	Year        int    `json:"year"`
	BalanceDays string `json:"balance_days"`
}

type BalanceListResponse struct {
	UserID   string            `json:"user_id"`
	Year     int               `json:"year"`
	Balances []BalanceResponse `json:"balances"`
}

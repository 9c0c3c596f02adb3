package domain

import "encoding/json"

// Monetary fields render as fixed two-decimal strings ("12.50", not "12.5").

func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return json.Marshal(struct {
		plain
		Balance string `json:"balance"`
	}{plain(a), a.Balance.StringFixed(2)})
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount       string `json:"amount"`
		BalanceAfter string `json:"balance_after"`
	}{plain(t), t.Amount.StringFixed(2), t.BalanceAfter.StringFixed(2)})
}

func (t Transfer) MarshalJSON() ([]byte, error) {
	type plain Transfer
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(t), t.Amount.StringFixed(2)})
}

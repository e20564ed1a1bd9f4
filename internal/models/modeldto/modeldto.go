// Package modeldto provides types for API request and response payloads.

package modeldto

type (
	Credentials struct {
		Name     string `json:"name,omitempty"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	User struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Balance      string `json:"balance"`
		RegisteredAt string `json:"registered_at"`
		Demo         bool   `json:"demo"`
	}
	AuthResponse struct {
		AccessToken  string `json:"access_token,omitempty"`
		RefreshToken string `json:"refresh_token,omitempty"`
		User         User   `json:"user"`
	}
	Product struct {
		ID         string `json:"id"`
		Kind       string `json:"kind"`
		Title      string `json:"title"`
		MediaURL   string `json:"media_url"`
		MinEarning string `json:"min_earning"`
		MaxEarning string `json:"max_earning"`
	}
	Answer struct {
		Type   string `json:"type"`
		Choice string `json:"choice,omitempty"`
		Rating int    `json:"rating,omitempty"`
		Text   string `json:"text,omitempty"`
	}
	NewEvaluation struct {
		UserID    string   `json:"userId"`
		ProductID string   `json:"productId"`
		Answers   []Answer `json:"answers"`
	}
	EvaluationResult struct {
		Earning string `json:"earning"`
	}
	Transaction struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		CreatedAt   string `json:"created_at"`
	}
	Stats struct {
		TotalEvaluations int    `json:"totalEvaluations"`
		TodayEvaluations int    `json:"todayEvaluations"`
		TotalEarned      string `json:"totalEarned"`
	}
	Draft struct {
		UserID    string   `json:"userId"`
		ProductID string   `json:"productId"`
		Stage     int      `json:"stage"`
		Answers   []Answer `json:"answers"`
	}
	PayoutDetails struct {
		Email         string `json:"email,omitempty"`
		BankName      string `json:"bank_name,omitempty"`
		AccountNumber string `json:"account_number,omitempty"`
	}
	NewPayoutMethod struct {
		UserID  string        `json:"userId"`
		Method  string        `json:"method"`
		Details PayoutDetails `json:"details"`
	}
	NewWithdrawal struct {
		UserID string `json:"userId"`
		Amount string `json:"amount"`
	}
	Withdrawal struct {
		ID        string `json:"id"`
		Amount    string `json:"amount"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	}
	LimitReached struct {
		LimitReached     bool `json:"limitReached"`
		TodayEvaluations int  `json:"todayEvaluations"`
		Limit            int  `json:"limit"`
	}
	LoginLocked struct {
		Locked           bool `json:"locked"`
		DaysUntilAllowed int  `json:"daysUntilAllowed"`
	}
)

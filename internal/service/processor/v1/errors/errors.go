// Package errors provides custom error types.

package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	ServiceDailyLimitReached struct {
		Count int
		Limit int
	}
	ServiceLoginLocked struct {
		DaysLeft int
	}
	ServiceUnknownProduct struct {
		ID string
	}
	ServiceIllegalPayoutMethod struct {
		Msg string
	}
	ServiceIllegalAmount struct {
		Msg string
	}
	ServicePayoutMethodMissing struct{}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *ServiceDailyLimitReached) Error() string {
	return fmt.Sprintf("daily evaluation limit reached: %d of %d", e.Count, e.Limit)
}

func (e *ServiceLoginLocked) Error() string {
	return fmt.Sprintf("login is blocked for %d more day(s)", e.DaysLeft)
}

func (e *ServiceUnknownProduct) Error() string {
	return fmt.Sprintf("unknown product %s", e.ID)
}

func (e *ServiceIllegalPayoutMethod) Error() string {
	return e.Msg
}

func (e *ServiceIllegalAmount) Error() string {
	return e.Msg
}

func (e *ServicePayoutMethodMissing) Error() string {
	return "no payout method is configured"
}

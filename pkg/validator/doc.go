// Package validator builds validation from small rules.
//
//	err := validator.Apply(
//		validator.Required("name", in.Name).WithMessage("Name is required"),
//		validator.Between("days_per_week", in.DaysPerWeek, 1, 7),
//		validator.InList("goal", in.Goal, goals),
//	)
//
// Apply returns nil or ValidationErrors, one entry per failed rule in rule
// order.
package validator

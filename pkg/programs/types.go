package programs

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/gymkit/pkg/validator"
)

// CacheKey is the query cache key of the program list.
const CacheKey = "programs"

const (
	pathPrograms = "/programs"
	pathGenerate = "/programs/generate"
)

// Program is a workout program owned by the upstream.
type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Goal is the fitness goal a generated program targets.
type Goal string

const (
	GoalMuscleGain Goal = "muscle_gain"
	GoalWeightLoss Goal = "weight_loss"
)

// Goals lists every goal in display order.
func Goals() []Goal {
	return []Goal{GoalMuscleGain, GoalWeightLoss}
}

var titleCaser = cases.Title(language.English)

// Label is the display name of g, e.g. "Muscle Gain".
func (g Goal) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(g), "_", " "))
}

// Options accepted by generation.
var (
	DaysPerWeekOptions    = []int{1, 2, 3, 4, 5, 6, 7}
	SessionMinutesOptions = []int{30, 45, 60, 75, 90}
)

// CreateRequest is the body of POST /programs.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate requires a name.
func (r CreateRequest) Validate() error {
	return validator.Apply(
		validator.Required("name", r.Name).WithMessage("Name is required"),
		validator.MaxLen("name", r.Name, 200),
		validator.MaxLen("description", r.Description, 5000),
	)
}

// GenerateRequest is the body of POST /programs/generate.
type GenerateRequest struct {
	DaysPerWeek    int  `json:"daysPerWeek"`
	Goal           Goal `json:"goal"`
	SessionMinutes int  `json:"sessionMinutes"`
}

// DefaultGenerateRequest is the preselected generation form.
func DefaultGenerateRequest() GenerateRequest {
	return GenerateRequest{DaysPerWeek: 3, Goal: GoalMuscleGain, SessionMinutes: 60}
}

// Validate checks every field against its allowed values.
func (r GenerateRequest) Validate() error {
	return validator.Apply(
		validator.Between("days_per_week", r.DaysPerWeek, 1, 7).WithMessage("Days per week must be between 1 and 7"),
		validator.InList("goal", r.Goal, Goals()).WithMessage("Choose a fitness goal"),
		validator.InList("session_minutes", r.SessionMinutes, SessionMinutesOptions).WithMessage("Choose a session duration"),
	)
}

// ListState is a non-blocking view of the cached program list.
type ListState struct {
	Programs  []Program
	IsLoading bool
	Err       error
}

// APIClient is the subset of apiclient.Client used by the Service.
type APIClient interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

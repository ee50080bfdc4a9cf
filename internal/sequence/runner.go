package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/platform"
	"github.com/emichael72/auto-forge/internal/progress"
	"github.com/emichael72/auto-forge/internal/style"
	"github.com/emichael72/auto-forge/internal/variables"
)

// Runner iterates a Document's steps, dispatching each through the
// platform Registry and reporting progress through a Tracker.
type Runner struct {
	Registry  *platform.Registry
	Services  *platform.Services
	Tracker   *progress.Tracker
	Vars      *variables.Store

	warnings int
}

// NewRunner wires a Runner from its collaborators. tracker may be nil for
// headless/test execution, in which case progress calls are skipped.
func NewRunner(registry *platform.Registry, services *platform.Services, tracker *progress.Tracker) *Runner {
	return &Runner{
		Registry: registry,
		Services: services,
		Tracker:  tracker,
		Vars:     services.Vars,
	}
}

// Run executes every step of doc in order, returning the first
// abort-worthy error (already wrapped with the 1-based step index) or nil
// on full completion.
func (r *Runner) Run(ctx context.Context, doc *Document) error {
	started := time.Now()

	if doc.StatusPreMessage != "" {
		r.announcePlain(doc.StatusPreMessage)
	}

	for i, step := range doc.Steps {
		if err := r.runStep(ctx, i+1, step); err != nil {
			if r.Tracker != nil {
				r.Tracker.SetEnd()
			}
			return err
		}
	}

	if doc.StatusPostMessage != "" {
		r.announcePlain(doc.StatusPostMessage)
	}

	elapsed := time.Since(started).Round(time.Second)
	r.announcePlain(fmt.Sprintf("Install took %s", elapsed))

	if r.Tracker != nil {
		r.Tracker.SetEnd()
	}
	return nil
}

func (r *Runner) announcePlain(text string) {
	if r.Tracker == nil {
		return
	}
	r.Tracker.SetCompleteLine(text, "OK", 0)
}

// runStep implements the per-step algorithm: skip if disabled, expand
// arguments, resolve per-distro status_on_error, announce, dispatch,
// apply the error policy, and store the response.
func (r *Runner) runStep(ctx context.Context, index int, step Step) error {
	if step.Disabled {
		return nil
	}

	expandedArgs, err := r.expandArguments(step.Arguments)
	if err != nil {
		return &forgeerr.StepError{Step: index, Desc: step.Description, Err: err}
	}
	step.Arguments = expandedArgs

	statusOnError := statusOnErrorFor(step.StatusOnError, r.Services.DistroID)

	newLine := false
	if step.StatusNewLine != nil {
		newLine = *step.StatusNewLine
	}
	if r.Tracker != nil {
		r.Tracker.SetPre(step.Description, newLine)
	}

	if step.Method == "conditional" {
		return r.runConditional(ctx, index, step)
	}

	result, dispatchErr := r.Registry.Dispatch(ctx, r.Services, step.Method, step.Arguments)

	if dispatchErr != nil {
		return r.handleError(index, step, statusOnError, dispatchErr)
	}
	if !result.Success() {
		failed := &forgeerr.CommandFailedError{Result: result}
		return r.handleError(index, step, statusOnError, failed)
	}

	if r.Tracker != nil {
		r.Tracker.SetResult("OK", 0)
	}

	if step.ResponseStoreKey != "" && result.Response != nil {
		r.Vars.Set(step.ResponseStoreKey, *result.Response)
	}

	return nil
}

func (r *Runner) handleError(index int, step Step, statusOnError string, err error) error {
	policy := step.ActionOnError
	if policy == "" {
		policy = PolicyDefault
	}

	switch policy {
	case PolicyResume:
		if r.Tracker != nil {
			r.Tracker.SetResult("WARNING", 1)
		}
		r.warnings++
		return nil
	default:
		if r.Tracker != nil {
			r.Tracker.SetResult("Error", 1)
		}
		if statusOnError != "" {
			expanded, expErr := r.Vars.Expand(statusOnError)
			if expErr == nil {
				statusOnError = expanded
			}
			fmt.Println(style.Error(style.Flatten(statusOnError, statusOnError)))
		}
		return &forgeerr.StepError{Step: index, Desc: step.Description, Err: err}
	}
}

// runConditional evaluates the embedded condition step quietly (no
// Tracker output of its own), paints the parent step's tracker line
// red/green to reflect the outcome, then runs if_true or if_false inline.
// A failed condition is branching information, not a step failure: it
// never triggers action_on_error on its own, only a failing inline step
// does.
func (r *Runner) runConditional(ctx context.Context, index int, step Step) error {
	cond, err := step.ParseConditional()
	if err != nil {
		if r.Tracker != nil {
			r.Tracker.SetResult("Error", 1)
		}
		return &forgeerr.StepError{Step: index, Desc: step.Description, Err: err}
	}

	condArgs, err := r.expandArguments(cond.Condition.Arguments)
	if err != nil {
		if r.Tracker != nil {
			r.Tracker.SetResult("Error", 1)
		}
		return &forgeerr.StepError{Step: index, Desc: step.Description, Err: err}
	}

	condResult, condErr := r.Registry.Dispatch(ctx, r.Services, cond.Condition.Method, condArgs)
	conditionTrue := condErr == nil && condResult.Success()

	if r.Tracker != nil {
		if conditionTrue {
			r.Tracker.SetResult("OK", 0)
		} else {
			r.Tracker.SetResult("NO", 1)
		}
	}

	inline := cond.IfTrue
	if !conditionTrue {
		inline = cond.IfFalse
	}

	for _, inner := range inline {
		if err := r.runStep(ctx, index, inner); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) expandArguments(args map[string]any) (map[string]any, error) {
	if args == nil {
		return nil, nil
	}
	expanded, err := r.Vars.ExpandAny(args)
	if err != nil {
		return nil, err
	}
	return expanded.(map[string]any), nil
}

// Warnings returns the number of steps that failed with action_on_error
// "resume".
func (r *Runner) Warnings() int { return r.warnings }

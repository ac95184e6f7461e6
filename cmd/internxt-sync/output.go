package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Gabri/internxt-sync/pkg/executor"
	"github.com/Gabri/internxt-sync/pkg/planner"
	"github.com/Gabri/internxt-sync/pkg/syncer"
)

// planJSON is the machine-readable form of an operation plan.
type planJSON struct {
	Operations []planOpJSON    `json:"operations"`
	Summary    planSummaryJSON `json:"summary"`
}

type planOpJSON struct {
	Action string `json:"action"` // "mkdir", "upload", "delete"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Reason string `json:"reason,omitempty"`
}

type planSummaryJSON struct {
	Mkdir  int `json:"mkdir"`
	Upload int `json:"upload"`
	Delete int `json:"delete"`
}

// resultJSON is the machine-readable form of an applied plan.
type resultJSON struct {
	Phases  map[string]phaseJSON `json:"phases"`
	Errors  []errorJSON          `json:"errors"`
	Aborted bool                 `json:"aborted"`
}

type phaseJSON struct {
	Attempted int `json:"attempted"`
	Failed    int `json:"failed"`
}

type errorJSON struct {
	Phase  string `json:"phase"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

func writePlanJSON(path string, plan planner.Plan) error {
	out := planJSON{
		Operations: []planOpJSON{},
		Summary: planSummaryJSON{
			Mkdir:  len(plan.CreateDirs),
			Upload: len(plan.Uploads),
			Delete: len(plan.Deletes),
		},
	}
	for _, p := range plan.CreateDirs {
		out.Operations = append(out.Operations, planOpJSON{Action: "mkdir", Target: p})
	}
	for _, up := range plan.Uploads {
		out.Operations = append(out.Operations, planOpJSON{
			Action: "upload",
			Source: up.LocalPath,
			Target: up.RelPath,
			Reason: up.Reason,
		})
	}
	for _, p := range plan.Deletes {
		out.Operations = append(out.Operations, planOpJSON{Action: "delete", Target: p})
	}
	return writeJSONFile(path, out)
}

func writeResultJSON(path string, result *syncer.Result) error {
	out := resultJSON{
		Phases:  map[string]phaseJSON{},
		Errors:  []errorJSON{},
		Aborted: result.Aborted,
	}
	if result.Report != nil {
		phases := map[string]executor.PhaseResult{
			"mkdir":  result.Report.CreateDirs,
			"upload": result.Report.Uploads,
			"delete": result.Report.Deletes,
		}
		for name, pr := range phases {
			out.Phases[name] = phaseJSON{Attempted: pr.Attempted, Failed: pr.Failed}
		}
		for _, opErr := range result.Report.Errors {
			out.Errors = append(out.Errors, errorJSON{
				Phase:  string(opErr.Phase),
				Target: opErr.Path,
				Error:  opErr.Err.Error(),
			})
		}
	}
	return writeJSONFile(path, out)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

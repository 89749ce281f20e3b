package models

import (
	"errors"
	"strings"
)

type RunKind string

const (
	RunKindFull        RunKind = "full"
	RunKindIncremental RunKind = "incremental"
)

// ParseRunKind accepts the kind names used by the CLI and the ops endpoints.
func ParseRunKind(v string) (RunKind, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "full":
		return RunKindFull, nil
	case "incremental", "inc":
		return RunKindIncremental, nil
	default:
		return "", errors.New("invalid run kind: " + v)
	}
}

type RunTrigger string

const (
	RunTriggerSchedule RunTrigger = "schedule"
	RunTriggerManual   RunTrigger = "manual"
	RunTriggerCLI      RunTrigger = "cli"
)

type RunStatus string

const (
	RunStatusDone   RunStatus = "Done"
	RunStatusFailed RunStatus = "Failed"
)

// customer_segment values seen in the raw feed; the cleaner passes the column through.
const (
	CustomerSegmentPremium = "Premium"
	CustomerSegmentRegular = "Regular"
	CustomerSegmentBronze  = "Bronze"
)

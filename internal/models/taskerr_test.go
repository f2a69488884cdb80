package models

import "testing"

func TestNormalizeTaskRowErrors(t *testing.T) {
	errs := NormalizeTaskRowErrors([]TaskRowError{
		{Row: 0, Entity: "task", Field: "performer", Reason: TaskErrMissingPerformer},
		{Row: 1, Entity: "task", Field: "performer", Reason: "exotic_reason"},
		{Row: 2, Entity: "task", Field: "performer", Reason: TaskErrPerformerNotFound, Message: "custom"},
	})

	if errs[0].Message != "performer is required" {
		t.Fatalf("default message: %q", errs[0].Message)
	}
	if errs[1].Reason != TaskErrUnknown || errs[1].Message != "task row rejected" {
		t.Fatalf("unknown reason: %+v", errs[1])
	}
	if errs[2].Message != "custom" {
		t.Fatalf("explicit message must win: %q", errs[2].Message)
	}
}

package models

import "testing"

func TestAggregatePostStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"no channels", nil, PostStatusDraft},
		{"all published", []string{PostStatusPublished, PostStatusPublished}, PostStatusPublished},
		{"all cancelled", []string{PostStatusCancelled, PostStatusCancelled}, PostStatusCancelled},
		{"publishing beats failed", []string{PostStatusFailed, PostStatusPublishing}, PostStatusPublishing},
		{"publishing beats published", []string{PostStatusPublished, PostStatusPublishing}, PostStatusPublishing},
		{"failed beats scheduled", []string{PostStatusScheduled, PostStatusFailed}, PostStatusFailed},
		{"failed with published", []string{PostStatusPublished, PostStatusFailed}, PostStatusFailed},
		{"scheduled with draft", []string{PostStatusDraft, PostStatusScheduled}, PostStatusScheduled},
		{"published with cancelled", []string{PostStatusPublished, PostStatusCancelled}, PostStatusDraft},
		{"all draft", []string{PostStatusDraft, PostStatusDraft}, PostStatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregatePostStatus(tt.statuses); got != tt.want {
				t.Errorf("AggregatePostStatus(%v) = %q, want %q", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestAggregatePostStatusOrderIndependent(t *testing.T) {
	a := AggregatePostStatus([]string{PostStatusFailed, PostStatusPublishing, PostStatusScheduled})
	b := AggregatePostStatus([]string{PostStatusScheduled, PostStatusPublishing, PostStatusFailed})
	if a != b || a != PostStatusPublishing {
		t.Errorf("aggregate depends on order: %q vs %q", a, b)
	}
}

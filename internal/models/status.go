package models

// AggregatePostStatus derives a post's global status from its channel
// statuses. Order-independent; first matching rule wins. An empty set is a
// draft.
func AggregatePostStatus(statuses []string) string {
	if len(statuses) == 0 {
		return PostStatusDraft
	}

	allPublished := true
	allCancelled := true
	var anyPublishing, anyFailed, anyScheduled bool

	for _, s := range statuses {
		if s != PostStatusPublished {
			allPublished = false
		}
		if s != PostStatusCancelled {
			allCancelled = false
		}
		switch s {
		case PostStatusPublishing:
			anyPublishing = true
		case PostStatusFailed:
			anyFailed = true
		case PostStatusScheduled:
			anyScheduled = true
		}
	}

	switch {
	case allPublished:
		return PostStatusPublished
	case allCancelled:
		return PostStatusCancelled
	case anyPublishing:
		return PostStatusPublishing
	case anyFailed:
		return PostStatusFailed
	case anyScheduled:
		return PostStatusScheduled
	default:
		return PostStatusDraft
	}
}

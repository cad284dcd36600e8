package taskctx

// Project folds a history left-to-right into a CurrentState. The fold is a
// pure function: the same history always yields an identical state.
//
// Unknown operations never break the fold. They merge their payload into
// Data generically and leave Status and Phase untouched, so new operation
// verbs can be introduced without a store upgrade.
func Project(history []ContextEntry) CurrentState {
	state := CurrentState{
		Status: StatusCreated,
		Data:   make(map[string]interface{}),
	}

	for i := range history {
		applyEntry(&state, &history[i])
	}

	return state
}

// applyEntry applies one entry to the state in place.
func applyEntry(state *CurrentState, entry *ContextEntry) {
	switch entry.Operation {
	case OpTaskCreated:
		state.Status = StatusCreated
		mergeData(state.Data, entry.Data)

	case OpPlanCreated:
		state.Status = StatusInProgress

	case OpPhaseStarted:
		state.Status = StatusInProgress
		if id, ok := entry.Data["phaseId"].(string); ok {
			state.Phase = id
		}

	case OpPhaseCompleted:
		mergeData(state.Data, resultData(entry.Data))
		if c, ok := completeness(entry.Data); ok {
			state.Completeness = c
		}

	case OpRequestingUserInput:
		state.Status = StatusNeedsInput
		mergeData(state.Data, resultData(entry.Data))

	case OpUserInput:
		state.Status = StatusInProgress
		mergeData(state.Data, entry.Data)

	case OpUIRequestCreated:
		// UI artifacts accumulate in data under their request ID.
		if id, ok := entry.Data["requestId"].(string); ok {
			elements, _ := state.Data["uiRequests"].(map[string]interface{})
			if elements == nil {
				elements = make(map[string]interface{})
				state.Data["uiRequests"] = elements
			}
			elements[id] = cloneData(entry.Data)
		}

	case OpFallbackApplied:
		// Decision record only. Status is decided by subsequent entries.

	case OpExecutionError:
		state.Status = StatusError
		mergeData(state.Data, resultData(entry.Data))

	case OpRoundCompleted:
		if s, ok := entry.Data["status"].(string); ok {
			state.Status = Status(s)
		}
		if state.Status == StatusComplete {
			state.Completeness = 100
		}
		mergeData(state.Data, resultData(entry.Data))

	default:
		// Forward compatibility: unrecognized operations update data
		// generically but never touch status or phase.
		mergeData(state.Data, entry.Data)
	}
}

// resultData extracts the nested "result" object if present, otherwise nil.
// Core operations keep bookkeeping fields (phaseId, status) at the top level
// and agent output under "result" so the two never collide.
func resultData(data map[string]interface{}) map[string]interface{} {
	if result, ok := data["result"].(map[string]interface{}); ok {
		return result
	}
	return nil
}

// completeness reads the completeness field, tolerating both JSON number
// decodings.
func completeness(data map[string]interface{}) (int, bool) {
	switch v := data["completeness"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// mergeData copies src keys into dst, deep-copying values so later entry
// mutation can never alias into projected state.
func mergeData(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
}

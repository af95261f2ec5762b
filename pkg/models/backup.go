package models

// RestorationResult describes what a completed backup restore changed
type RestorationResult struct {
	TablesRestored  int `json:"tables_restored"`
	RecordsRestored int `json:"records_restored"`
	FilesRestored   int `json:"files_restored"`
}

// RestoreOutcome is the reconciled answer of the upload-restore endpoint
type RestoreOutcome struct {
	Success        bool
	Message        string
	Restoration    *RestorationResult
	SecurityReport map[string]interface{}
}

// ParseRestoreOutcome reconciles the server's restore response. The
// restoration counters are accepted at the root of the payload, under
// `restoration`, under `result.restoration`, or under
// `result.restoration.data` depending on backend version.
func ParseRestoreOutcome(raw map[string]interface{}) *RestoreOutcome {
	out := &RestoreOutcome{}
	if v, ok := raw["success"].(bool); ok {
		out.Success = v
	}
	if v, ok := raw["message"].(string); ok {
		out.Message = v
	}
	if v, ok := raw["security_report"].(map[string]interface{}); ok {
		out.SecurityReport = v
	}
	for _, candidate := range restorationCandidates(raw) {
		if res := restorationFrom(candidate); res != nil {
			out.Restoration = res
			break
		}
	}
	return out
}

func restorationCandidates(raw map[string]interface{}) []map[string]interface{} {
	candidates := []map[string]interface{}{raw}
	if r, ok := raw["restoration"].(map[string]interface{}); ok {
		candidates = append(candidates, r)
	}
	if result, ok := raw["result"].(map[string]interface{}); ok {
		if r, ok := result["restoration"].(map[string]interface{}); ok {
			candidates = append(candidates, r)
			if data, ok := r["data"].(map[string]interface{}); ok {
				candidates = append(candidates, data)
			}
		}
	}
	return candidates
}

func restorationFrom(m map[string]interface{}) *RestorationResult {
	tables, okT := intField(m, "tables_restored")
	records, okR := intField(m, "records_restored")
	files, okF := intField(m, "files_restored")
	if !okT && !okR && !okF {
		return nil
	}
	return &RestorationResult{
		TablesRestored:  tables,
		RecordsRestored: records,
		FilesRestored:   files,
	}
}

func intField(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

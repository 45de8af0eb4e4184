package downtime

// AlertOptionsFromIDs returns the options whose value is listed in alertIDs,
// in option order. Options without a value never match.
func AlertOptionsFromIDs(alertIDs []string, options []AlertOption) []AlertOption {
	if len(alertIDs) == 0 || len(options) == 0 {
		return []AlertOption{}
	}

	wanted := make(map[string]struct{}, len(alertIDs))
	for _, id := range alertIDs {
		wanted[id] = struct{}{}
	}

	selected := make([]AlertOption, 0, len(alertIDs))
	for _, option := range options {
		if option.Value == "" {
			continue
		}
		if _, ok := wanted[option.Value]; ok {
			selected = append(selected, option)
		}
	}
	return selected
}

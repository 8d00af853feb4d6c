package rules

type Settings map[string]interface{}

func (s Settings) Boolean(k string) (bool, bool) {
	val, found := s[k]

	if found {
		b, ok := val.(bool)
		return b, ok
	} else {
		return false, false
	}
}

func (s Settings) Int(k string) (int, bool) {
	val, found := s[k]

	if found {
		i, ok := val.(int)
		return i, ok
	} else {
		return 0, false
	}
}

// Enabled returns the "enabled" setting, entities are enabled unless a rule says otherwise.
func (s Settings) Enabled() bool {
	if b, ok := s.Boolean("enabled"); ok {
		return b
	}

	return true
}

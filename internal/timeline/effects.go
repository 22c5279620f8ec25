package timeline

// ApplyFilter sets a numeric filter on a clip. Any filter carrying the same
// key is removed first; a zero value leaves the key absent.
func (t *Timeline) ApplyFilter(clipID string, key FilterKey, value float64) bool {
	i := t.clipIndex(clipID)
	if i < 0 || !key.Valid() {
		return false
	}

	c := &t.clips[i]
	effects := make([]Effect, 0, len(c.Effects)+1)
	removed := false
	for _, e := range c.Effects {
		if e.hasFilterKey(key) {
			removed = true
			continue
		}
		effects = append(effects, e)
	}
	if value == 0 && !removed {
		return false
	}
	if value != 0 {
		effects = append(effects, Effect{
			ID:     t.newID(),
			Name:   capitalize(string(key)),
			Type:   EffectFilter,
			Filter: newFilterParams(key, value),
		})
	}
	c.Effects = effects
	return true
}

// FilterValue returns the current value of a numeric filter, or 0 when the
// clip has none.
func (t *Timeline) FilterValue(clipID string, key FilterKey) float64 {
	i := t.clipIndex(clipID)
	if i < 0 {
		return 0
	}
	for _, e := range t.clips[i].Effects {
		if v, ok := e.Filter.Value(key); ok && e.Type == EffectFilter {
			return v
		}
	}
	return 0
}

// ToggleColorFilter switches a preset off if it is active, otherwise replaces
// whatever preset was active with it.
func (t *Timeline) ToggleColorFilter(clipID string, preset ColorFilter) bool {
	i := t.clipIndex(clipID)
	if i < 0 || !preset.Valid() {
		return false
	}

	c := &t.clips[i]
	active := false
	effects := make([]Effect, 0, len(c.Effects)+1)
	for _, e := range c.Effects {
		switch e.colorFilter() {
		case "":
			effects = append(effects, e)
		case preset:
			active = true
		}
	}
	if !active {
		effects = append(effects, Effect{
			ID:     t.newID(),
			Name:   capitalize(string(preset)) + " Filter",
			Type:   EffectFilter,
			Filter: &FilterParams{ColorFilter: preset},
		})
	}
	c.Effects = effects
	return true
}

// ActiveColorFilter returns the clip's color preset, or "" if none.
func (t *Timeline) ActiveColorFilter(clipID string) ColorFilter {
	i := t.clipIndex(clipID)
	if i < 0 {
		return ""
	}
	for _, e := range t.clips[i].Effects {
		if cf := e.colorFilter(); cf != "" {
			return cf
		}
	}
	return ""
}

// ApplyTransition appends a one-second transition to a clip.
func (t *Timeline) ApplyTransition(clipID string, kind TransitionType) bool {
	i := t.clipIndex(clipID)
	if i < 0 || !kind.Valid() {
		return false
	}
	t.clips[i].Effects = append(t.clips[i].Effects, t.transitionEffect(kind, DefaultTransitionDuration, "", ""))
	return true
}

// AddTransitionBetween attaches one transition, annotated with both clip ids,
// to both clips. Either clip missing makes it a no-op.
func (t *Timeline) AddTransitionBetween(fromID, toID string, kind TransitionType, duration float64) bool {
	from, to := t.clipIndex(fromID), t.clipIndex(toID)
	if from < 0 || to < 0 || from == to || !kind.Valid() || duration <= 0 {
		return false
	}
	e := t.transitionEffect(kind, duration, fromID, toID)
	t.clips[from].Effects = append(t.clips[from].Effects, e)
	t.clips[to].Effects = append(t.clips[to].Effects, e)
	return true
}

func (t *Timeline) transitionEffect(kind TransitionType, duration float64, fromID, toID string) Effect {
	return Effect{
		ID:   t.newID(),
		Name: capitalize(string(kind)) + " Transition",
		Type: EffectTransition,
		Transition: &TransitionParams{
			TransitionType: kind,
			Duration:       duration,
			Direction:      kind.Direction(),
			FromClipID:     fromID,
			ToClipID:       toID,
		},
	}
}

// AddText attaches a text overlay to a clip and returns the new effect.
func (t *Timeline) AddText(clipID string, p TextParams) (Effect, bool) {
	i := t.clipIndex(clipID)
	if i < 0 || p.Text == "" {
		return Effect{}, false
	}
	text := p
	e := Effect{
		ID:   t.newID(),
		Name: "Text",
		Type: EffectText,
		Text: &text,
	}
	t.clips[i].Effects = append(t.clips[i].Effects, e)
	return e, true
}

// RemoveEffect drops an effect by id.
func (t *Timeline) RemoveEffect(clipID, effectID string) bool {
	i := t.clipIndex(clipID)
	if i < 0 {
		return false
	}
	c := &t.clips[i]
	for j, e := range c.Effects {
		if e.ID == effectID {
			effects := make([]Effect, 0, len(c.Effects)-1)
			effects = append(effects, c.Effects[:j]...)
			c.Effects = append(effects, c.Effects[j+1:]...)
			return true
		}
	}
	return false
}

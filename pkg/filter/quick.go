package filter

// Category groups quick filters by their exclusivity rules.
type Category int

const (
	CategoryTime Category = iota
	CategoryFeature
	CategoryLocation
	CategoryPersonal
)

func (c Category) String() string {
	switch c {
	case CategoryTime:
		return "time"
	case CategoryFeature:
		return "feature"
	case CategoryLocation:
		return "location"
	case CategoryPersonal:
		return "personal"
	}
	return "unknown"
}

// QuickFilter is a named preset. The set of implementations is closed: the
// interface carries an unexported method so only this package can add presets.
type QuickFilter interface {
	Name() string
	Category() Category
	apply(State) State
}

type (
	// Today restricts to trainings held on the current weekday.
	Today struct{}
	// Tomorrow restricts to trainings held on the next weekday.
	Tomorrow struct{}
	// Weekend restricts to Saturday and Sunday.
	Weekend struct{}
	// TrialSession restricts to trainings offering a trial session.
	TrialSession struct{}
	// Nearby restricts to trainings within the proximity radius of the user.
	Nearby struct{}
	// FavoritesOnly shows favourites and ignores every other filter.
	FavoritesOnly struct{}
)

func (Today) Name() string         { return "heute" }
func (Tomorrow) Name() string      { return "morgen" }
func (Weekend) Name() string       { return "wochenende" }
func (TrialSession) Name() string  { return "probetraining" }
func (Nearby) Name() string        { return "in-der-naehe" }
func (FavoritesOnly) Name() string { return "favoriten" }

func (Today) Category() Category         { return CategoryTime }
func (Tomorrow) Category() Category      { return CategoryTime }
func (Weekend) Category() Category       { return CategoryTime }
func (TrialSession) Category() Category  { return CategoryFeature }
func (Nearby) Category() Category        { return CategoryLocation }
func (FavoritesOnly) Category() Category { return CategoryPersonal }

func (Today) apply(s State) State {
	s.TimeFlag = TimeToday
	return s
}

func (Tomorrow) apply(s State) State {
	s.TimeFlag = TimeTomorrow
	return s
}

func (Weekend) apply(s State) State {
	s.TimeFlag = TimeWeekend
	return s
}

func (TrialSession) apply(s State) State {
	s.FeatureFlag = FeatureTrial
	return s
}

func (Nearby) apply(s State) State {
	s.NearbyFlag = true
	return s
}

func (FavoritesOnly) apply(s State) State {
	s.Weekdays = nil
	s.Locations = nil
	s.Types = nil
	s.AgeGroups = nil
	s.TypeText = ""
	s.Search = ""
	s.PersonalFlag = true
	return s
}

var quickFilters = []QuickFilter{
	Today{},
	Tomorrow{},
	Weekend{},
	TrialSession{},
	Nearby{},
	FavoritesOnly{},
}

// QuickFilters returns every registered preset in display order.
func QuickFilters() []QuickFilter {
	return append([]QuickFilter(nil), quickFilters...)
}

// ParseQuickFilter resolves a preset by name.
func ParseQuickFilter(name string) (QuickFilter, bool) {
	for _, q := range quickFilters {
		if q.Name() == name {
			return q, true
		}
	}
	return nil, false
}

// ApplyQuick activates q. Private flags of every other preset are reset first
// so at most one preset influences the result.
func ApplyQuick(s State, q QuickFilter) State {
	if q == nil {
		return ClearQuick(s)
	}
	next := clearPrivateFlags(s.Clone())
	next = q.apply(next)
	next.Quick = q
	return next
}

// ToggleQuick activates q, or deactivates it when it is already active.
func ToggleQuick(s State, q QuickFilter) State {
	if q != nil && s.Quick == q {
		return ClearQuick(s)
	}
	return ApplyQuick(s, q)
}

// ClearQuick deactivates the active preset together with its private flags.
func ClearQuick(s State) State {
	next := clearPrivateFlags(s.Clone())
	next.Quick = nil
	return next
}

func clearPrivateFlags(s State) State {
	s.TimeFlag = TimeNone
	s.FeatureFlag = FeatureNone
	s.NearbyFlag = false
	s.PersonalFlag = false
	return s
}

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/trainmap/pkg/training"
)

func TestParseQuickFilter(t *testing.T) {
	for _, q := range QuickFilters() {
		parsed, ok := ParseQuickFilter(q.Name())
		require.True(t, ok, q.Name())
		assert.Equal(t, q, parsed)
	}

	_, ok := ParseQuickFilter("gestern")
	assert.False(t, ok)
}

func TestApplyQuickTimeReplacesOtherTimePreset(t *testing.T) {
	st := ApplyQuick(State{}, Today{})
	st = ApplyQuick(st, Weekend{})

	assert.Equal(t, Weekend{}, st.Quick)
	assert.Equal(t, TimeWeekend, st.TimeFlag)
}

func TestApplyQuickResetsFlagsOfOtherPresets(t *testing.T) {
	st := ApplyQuick(State{}, TrialSession{})
	st = ApplyQuick(st, Nearby{})

	assert.Equal(t, FeatureNone, st.FeatureFlag)
	assert.True(t, st.NearbyFlag)
	assert.Equal(t, Nearby{}, st.Quick)
}

func TestApplyQuickFeatureKeepsCategories(t *testing.T) {
	st := State{}.WithWeekdays(training.Monday).WithLocations("Halle A")
	st = ApplyQuick(st, TrialSession{})

	assert.Equal(t, []training.Weekday{training.Monday}, st.Weekdays)
	assert.Equal(t, []string{"Halle A"}, st.Locations)
	assert.Equal(t, FeatureTrial, st.FeatureFlag)
}

func TestApplyQuickPersonalClearsEverything(t *testing.T) {
	st := State{}.WithWeekdays(training.Monday).WithTypes("Judo").WithSearch("anna").WithDistance(10)
	st = ApplyQuick(st, Today{})
	st = ApplyQuick(st, FavoritesOnly{})

	assert.Empty(t, st.Weekdays)
	assert.Empty(t, st.Types)
	assert.Empty(t, st.Search)
	assert.Equal(t, TimeNone, st.TimeFlag)
	assert.True(t, st.PersonalFlag)
	assert.True(t, st.DistanceActive)
}

func TestClearQuickLeavesNoHiddenFlag(t *testing.T) {
	for _, q := range QuickFilters() {
		st := ClearQuick(ApplyQuick(State{}, q))
		assert.Nil(t, st.Quick, q.Name())
		assert.Equal(t, TimeNone, st.TimeFlag, q.Name())
		assert.Equal(t, FeatureNone, st.FeatureFlag, q.Name())
		assert.False(t, st.NearbyFlag, q.Name())
		assert.False(t, st.PersonalFlag, q.Name())
	}
}

func TestToggleQuick(t *testing.T) {
	st := ToggleQuick(State{}, TrialSession{})
	assert.Equal(t, TrialSession{}, st.Quick)

	st = ToggleQuick(st, TrialSession{})
	assert.Nil(t, st.Quick)
	assert.Equal(t, FeatureNone, st.FeatureFlag)
}

func TestApplyQuickDoesNotMutateInput(t *testing.T) {
	st := State{}.WithLocations("Halle A")
	_ = ApplyQuick(st, FavoritesOnly{})
	assert.Equal(t, []string{"Halle A"}, st.Locations)
}

func TestNormalizeDropsOrphanFlags(t *testing.T) {
	st := State{TimeFlag: TimeToday, PersonalFlag: true}.Normalize()
	assert.Equal(t, TimeNone, st.TimeFlag)
	assert.False(t, st.PersonalFlag)
}

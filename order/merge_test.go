package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var equateEmpty = cmpopts.EquateEmpty()

func fullBirthday() State {
	return State{
		CakeType:  "birthday",
		Flavor:    "vanilla",
		Size:      "medium",
		Layers:    "2",
		Filling:   "jam",
		Icing:     "buttercream",
		Toppings:  []string{"sprinkles", "berries"},
		Decor:     []string{"rose", "none"},
		Allergies: "none",
	}
}

func TestMergeEmptyRecordIsIdentity(t *testing.T) {
	states := []State{
		{},
		fullBirthday(),
		{CakeType: "wedding", WeddingStyle: "modern", Layers: "3", Decor: []string{"gold flake", "none", "honey"}},
		{Allergies: "nuts", Toppings: []string{"cherries"}},
	}
	for _, s := range states {
		got := Merge(s, Record{})
		if diff := cmp.Diff(s, got, equateEmpty); diff != "" {
			t.Errorf("merge with empty record changed state (-want +got):\n%s", diff)
		}
	}
}

func TestMergeDoesNotMutatePrevious(t *testing.T) {
	prev := fullBirthday()
	snapshot := prev.Clone()

	_ = Merge(prev, Record{FieldToppings: {"cherries"}, FieldDecor: {"honey", "gold flake"}})

	assert.Equal(t, snapshot, prev)
}

func TestMergeNutAllergyFiltersToppings(t *testing.T) {
	got := Merge(State{Toppings: []string{"sprinkles"}}, Record{
		FieldAllergies: {"nuts"},
		FieldToppings:  {"nuts", "Almonds", "cherries", "walnuts"},
	})
	assert.Equal(t, []string{"cherries"}, got.Toppings)
	assert.Equal(t, "nuts", got.Allergies)
}

func TestMergeNutAllergyFromEarlierTurn(t *testing.T) {
	prev := State{Allergies: "nuts", Toppings: []string{"sprinkles"}}
	got := Merge(prev, Record{FieldToppings: {"nuts", "cherries"}})
	assert.Equal(t, []string{"cherries"}, got.Toppings)
}

func TestMergeLayersPadsDecor(t *testing.T) {
	got := Merge(State{}, Record{FieldLayers: {"3"}})
	assert.Equal(t, []string{"none", "none", "none"}, got.Decor)

	got = Merge(got, Record{FieldDecor: {"rose"}})
	assert.Equal(t, []string{"rose", "none", "none"}, got.Decor)

	got = Merge(got, Record{FieldDecor: {"", "honey"}})
	assert.Equal(t, []string{"rose", "honey", "none"}, got.Decor)
}

func TestMergeLayersShrinkTruncatesDecor(t *testing.T) {
	prev := State{Layers: "3", Decor: []string{"rose", "honey", "gold flake"}}
	got := Merge(prev, Record{FieldLayers: {"1"}})
	assert.Equal(t, []string{"rose"}, got.Decor)
}

func TestMergeDecorWithoutLayersIsEmpty(t *testing.T) {
	got := Merge(State{}, Record{FieldDecor: {"rose"}})
	assert.Empty(t, got.Decor)
}

func TestMergeWeddingStyleClearedForOtherCakes(t *testing.T) {
	prev := State{CakeType: "wedding", WeddingStyle: "classic"}
	got := Merge(prev, Record{FieldCakeType: {"birthday"}})
	assert.Equal(t, "birthday", got.CakeType)
	assert.Empty(t, got.WeddingStyle)

	got = Merge(State{}, Record{FieldWeddingStyle: {"romantic"}})
	assert.Empty(t, got.WeddingStyle)
}

func TestMergeWeddingScenario(t *testing.T) {
	got := Merge(State{}, Record{FieldCakeType: {"wedding"}, FieldFlavor: {"chocolate"}})
	want := State{CakeType: "wedding", Flavor: "chocolate"}
	if diff := cmp.Diff(want, got, equateEmpty); diff != "" {
		t.Errorf("unexpected state (-want +got):\n%s", diff)
	}
}

func TestMergeDropsOutOfVocabulary(t *testing.T) {
	prev := State{Flavor: "lemon"}
	got, dropped := MergeReport(prev, Record{
		FieldFlavor:   {"pistachio"},
		FieldSize:     {"  LARGE "},
		FieldToppings: {"marshmallow"},
	})
	assert.Equal(t, "lemon", got.Flavor)
	assert.Equal(t, "large", got.Size)
	assert.Empty(t, got.Toppings)
	assert.Equal(t, []Dropped{
		{Field: FieldFlavor, Value: "pistachio"},
		{Field: FieldToppings, Value: "marshmallow"},
	}, dropped)
}

func TestMergeToppingsDedupeKeepsFirstSeenOrder(t *testing.T) {
	got := Merge(State{}, Record{FieldToppings: {"Cherries", "sprinkles", "cherries", "chocolate  chips"}})
	assert.Equal(t, []string{"cherries", "sprinkles", "chocolate chips"}, got.Toppings)
}

func TestMergeLayersNormalizesNumerals(t *testing.T) {
	for _, raw := range []string{"2", " 2 ", "02"} {
		got := Merge(State{}, Record{FieldLayers: {raw}})
		require.Equal(t, "2", got.Layers, "raw %q", raw)
	}
	got := Merge(State{}, Record{FieldLayers: {"4"}})
	assert.Empty(t, got.Layers)
}

func TestMergeLegacyScalarDecor(t *testing.T) {
	got := Merge(State{Layers: "2"}, Record{FieldDecor: {"Floral"}})
	assert.Equal(t, []string{"floral", "none"}, got.Decor)
}

func TestUnmarshalStateLenient(t *testing.T) {
	var s State
	err := s.UnmarshalJSON([]byte(`{"cake_type":"Birthday","layers":2,"decor":"rose","toppings":"berries","allergies":null,"icing":true}`))
	require.NoError(t, err)
	want := State{CakeType: "birthday", Layers: "2", Decor: []string{"rose", "none"}, Toppings: []string{"berries"}}
	if diff := cmp.Diff(want, s, equateEmpty); diff != "" {
		t.Errorf("unexpected state (-want +got):\n%s", diff)
	}

	require.Error(t, s.UnmarshalJSON([]byte(`["birthday"]`)))
}

func TestRecordFromMapAliasedKeysAreDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		rec := RecordFromMap(map[string]any{"cake_type": "wedding", "cakeType": "birthday", "Cake-Type": "cupcake"})
		require.Equal(t, []string{"birthday"}, rec[FieldCakeType], "run %d", i)

		rec = RecordFromMap(map[string]any{"cake_type": "wedding", "CAKETYPE": "cupcake"})
		require.Equal(t, []string{"cupcake"}, rec[FieldCakeType], "run %d", i)
	}

	rec := RecordFromMap(map[string]any{"cakeType": nil, "cake_type": "wedding"})
	assert.Equal(t, []string{"wedding"}, rec[FieldCakeType])
}

func TestMarshalStateShape(t *testing.T) {
	data, err := State{CakeType: "cupcake", Layers: "1", Decor: []string{"none"}}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cakeType":"cupcake","weddingStyle":null,"flavor":null,"size":null,"layers":"1",
		"filling":null,"icing":null,"toppings":[],"decor":["none"],"allergies":null
	}`, string(data))
}

package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"nutramind/internal/domain"
)

func TestUserProfile_Normalize(t *testing.T) {
	p := &domain.UserProfile{
		HeightCm: ptr(math.NaN()),
		WeightKg: ptr(-3.0),
		AgeYears: ptr(40.0),
		Sex:      ptr(domain.Sex("x")),
		Activity: ptr(domain.ActivityLevel("hyper")),
	}
	p.Normalize()
	if p.HeightCm != nil || p.WeightKg != nil {
		t.Errorf("invalid numbers should be cleared: %+v", p)
	}
	if p.AgeYears == nil || *p.AgeYears != 40 {
		t.Errorf("valid age should be kept")
	}
	if p.Sex != nil || p.Activity != nil {
		t.Errorf("invalid enums should be cleared")
	}
	if p.Goals == nil {
		t.Error("goals should be an empty set, not nil")
	}
}

func TestUserProfile_NormalizeImplausible(t *testing.T) {
	p := &domain.UserProfile{
		HeightCm: ptr(1e300),
		WeightKg: ptr(401.0),
		AgeYears: ptr(121.0),
		Sex:      ptr(domain.SexFemale),
	}
	p.Normalize()
	if p.HeightCm != nil || p.WeightKg != nil || p.AgeYears != nil {
		t.Errorf("implausible numbers should be cleared: %+v", p)
	}
	if p.Complete() {
		t.Error("profile with cleared numbers should be incomplete")
	}
}

func TestGoalSet_JSON(t *testing.T) {
	var s domain.GoalSet
	if err := json.Unmarshal([]byte(`["diet","muscle","diet"]`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s) != 2 || !s.Has(domain.GoalDiet) || !s.Has(domain.GoalMuscle) {
		t.Fatalf("unexpected set: %v", s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["muscle","diet"]` {
		t.Errorf("marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`["flying"]`), &s); err == nil {
		t.Error("expected error for unknown goal")
	}
}

func TestMutation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       domain.Mutation
		wantErr bool
	}{
		{"add ok", domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: domain.CollectionFood, Payload: json.RawMessage(`{"description":"oats"}`)}, false},
		{"add needs payload", domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: domain.CollectionFood}, true},
		{"update needs id", domain.Mutation{Key: "k", Kind: domain.MutationUpdate, Collection: domain.CollectionFood, Payload: json.RawMessage(`{}`)}, true},
		{"update local id", domain.Mutation{Key: "k", Kind: domain.MutationUpdate, Collection: domain.CollectionFood, RecordID: "tmp_1", Payload: json.RawMessage(`{}`)}, false},
		{"weight update unsupported", domain.Mutation{Key: "k", Kind: domain.MutationUpdate, Collection: domain.CollectionWeights, RecordID: "4", Payload: json.RawMessage(`{}`)}, true},
		{"goal add ok", domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: domain.CollectionGoals, Payload: json.RawMessage(`{"tag":"acne"}`)}, false},
		{"goal add unknown tag", domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: domain.CollectionGoals, Payload: json.RawMessage(`{"tag":"fly"}`)}, true},
		{"goal clear", domain.Mutation{Key: "k", Kind: domain.MutationDelete, Collection: domain.CollectionGoals, RecordID: "*"}, false},
		{"delete ok", domain.Mutation{Key: "k", Kind: domain.MutationDelete, Collection: domain.CollectionWeights, RecordID: "4"}, false},
		{"missing key", domain.Mutation{Kind: domain.MutationAdd, Collection: domain.CollectionFood, Payload: json.RawMessage(`{}`)}, true},
		{"bad collection", domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: "recipes"}, true},
		{"bad kind", domain.Mutation{Key: "k", Kind: "upsert", Collection: domain.CollectionFood}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v; wantErr %v", err, tc.wantErr)
			}
		})
	}
}

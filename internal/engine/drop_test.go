package engine

import "testing"

func dropped(group []*Assignment) []string {
	var out []string
	for _, a := range group {
		if a.Dropped() {
			out = append(out, a.GradeBookID)
		}
	}
	return out
}

func TestDropPolicyDropsLowest(t *testing.T) {
	cat := testCatalog()
	a1 := rawAsn("s1", "gb1", "hw", 100, "85")
	a2 := rawAsn("s1", "gb2", "hw", 100, "40")
	group := []*Assignment{&a1, &a2}

	applyDropPolicy(group, 1, cat)
	if got := dropped(group); len(got) != 1 || got[0] != "gb2" {
		t.Fatalf("dropped = %v; want [gb2]", got)
	}
}

func TestDropPolicyIdempotent(t *testing.T) {
	cat := testCatalog()
	a1 := rawAsn("s1", "gb1", "hw", 100, "85")
	a2 := rawAsn("s1", "gb2", "hw", 100, "40")
	a3 := rawAsn("s1", "gb3", "hw", 100, "90")
	group := []*Assignment{&a1, &a2, &a3}

	applyDropPolicy(group, 1, cat)
	applyDropPolicy(group, 1, cat)
	if got := dropped(group); len(got) != 1 || got[0] != "gb2" {
		t.Fatalf("dropped after two passes = %v; want [gb2]", got)
	}
}

func TestDropPolicyReselectsAfterEdit(t *testing.T) {
	cat := testCatalog()
	a1 := rawAsn("s1", "gb1", "hw", 100, "85")
	a2 := rawAsn("s1", "gb2", "hw", 100, "40")
	group := []*Assignment{&a1, &a2}

	applyDropPolicy(group, 1, cat)

	// The previously kept assignment becomes the lowest.
	a1.Score = "30"
	applyDropPolicy(group, 1, cat)
	if got := dropped(group); len(got) != 1 || got[0] != "gb1" {
		t.Fatalf("dropped after edit = %v; want [gb1]", got)
	}
	if a2.DropState != "" {
		t.Fatalf("gb2 should have been restored, state %q", a2.DropState)
	}
}

func TestDropPolicyBudget(t *testing.T) {
	cat := testCatalog()
	a1 := rawAsn("s1", "gb1", "hw", 100, "95")
	a2 := rawAsn("s1", "gb2", "hw", 100, "40")
	a3 := rawAsn("s1", "gb3", "hw", 100, "55")
	a4 := rawAsn("s1", "gb4", "hw", 100, "80")
	group := []*Assignment{&a1, &a2, &a3, &a4}

	applyDropPolicy(group, 2, cat)
	got := dropped(group)
	if len(got) != 2 {
		t.Fatalf("dropped = %v; want two drops", got)
	}
	if !a2.Dropped() || !a3.Dropped() {
		t.Fatalf("want gb2 and gb3 dropped, got %v", got)
	}
}

func TestDropPolicySkipsIneligible(t *testing.T) {
	cat := testCatalog()

	ungraded := rawAsn("s1", "gb1", "hw", 100, "")
	excused := rawAsn("s1", "gb2", "hw", 100, "10")
	excused.Excused = true
	percent := rawAsn("s1", "gb3", "hw", 100, "5")
	percent.CategoryID = CategoryPercent
	percent.ScoreTypeID = 1
	unweighted := rawAsn("s1", "gb4", "hw", 100, "15")
	unweighted.DropState = DropStateNotWeighted
	keeper := rawAsn("s1", "gb5", "hw", 100, "90")
	lowest := rawAsn("s1", "gb6", "hw", 100, "50")

	group := []*Assignment{&ungraded, &excused, &percent, &unweighted, &keeper, &lowest}
	applyDropPolicy(group, 1, cat)

	if got := dropped(group); len(got) != 1 || got[0] != "gb6" {
		t.Fatalf("dropped = %v; want [gb6]", got)
	}
	if unweighted.DropState != DropStateNotWeighted {
		t.Fatalf("Not Weighted marker must survive the pass, got %q", unweighted.DropState)
	}
}

func TestDropPolicyTieBreaks(t *testing.T) {
	cat := testCatalog()

	// Same 40% calc value; the larger assignment costs more, so it drops first.
	big := rawAsn("s1", "gb1", "hw", 100, "40")
	small := rawAsn("s1", "gb2", "hw", 50, "20")
	group := []*Assignment{&small, &big}

	applyDropPolicy(group, 1, cat)
	if !big.Dropped() || small.Dropped() {
		t.Fatalf("want the higher points-possible assignment dropped on a value tie")
	}

	// Full tie except due date: earlier due date drops first.
	big.DropState, small.DropState = "", ""
	small.PointsPossible, small.MaxValue = 100, 100
	small.Score = "40"
	big.DueDate = dueOn(2)
	small.DueDate = dueOn(5)
	applyDropPolicy(group, 1, cat)
	if !big.Dropped() || small.Dropped() {
		t.Fatalf("want the earlier-due assignment dropped on a full tie")
	}
}

func TestDropPolicyZeroBudgetClearsStaleDrops(t *testing.T) {
	cat := testCatalog()
	a := rawAsn("s1", "gb1", "hw", 100, "40")
	a.DropState = DropStateDropped

	applyDropPolicy([]*Assignment{&a}, 0, cat)
	if a.DropState != "" {
		t.Fatalf("stale drop marker should be cleared, got %q", a.DropState)
	}
}

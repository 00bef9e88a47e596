package dsl

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/talecraft/types"
)

func TestCond_PairsArguments(t *testing.T) {
	in, err := Cond("a", Say("A"), "b", Say("B"), Say("else"))
	if err != nil {
		t.Fatalf("cond: %v", err)
	}
	if in.Script != "cond" {
		t.Fatalf("script = %q", in.Script)
	}
	branches := in.Params["branches"].([]any)
	if len(branches) != 2 {
		t.Fatalf("branches = %d, want 2", len(branches))
	}
	first := branches[0].(map[string]any)
	if first["if"] != "a" || !reflect.DeepEqual(first["then"], Say("A")) {
		t.Errorf("first branch = %v", first)
	}
	second := branches[1].(map[string]any)
	if second["if"] != "b" {
		t.Errorf("branch order not preserved: %v", second)
	}
	if !reflect.DeepEqual(in.Params["else"], Say("else")) {
		t.Errorf("else = %v", in.Params["else"])
	}
}

func TestCond_EvenArgsHaveNoDefault(t *testing.T) {
	in := MustCond("a", Say("A"))
	if _, ok := in.Params["else"]; ok {
		t.Error("even argument list should not produce a default")
	}
}

func TestCond_TooFewArgs(t *testing.T) {
	for _, args := range [][]any{nil, {"only"}} {
		if _, err := Cond(args...); !errors.Is(err, ErrCondArgs) {
			t.Errorf("Cond(%v): got %v, want ErrCondArgs", args, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("MustCond with one argument should panic")
		}
	}()
	MustCond("only")
}

func TestSeq_PreservesOrder(t *testing.T) {
	steps := []types.Instruction{Say("1"), Say("2"), Say("3")}
	in := Seq(steps...)
	if !reflect.DeepEqual(in.Params["do"], steps) {
		t.Errorf("do = %v", in.Params["do"])
	}
}

func TestBuildersArePure(t *testing.T) {
	a := Option("shop", map[string]any{"item": "bread"}, "Buy bread")
	b := Option("shop", map[string]any{"item": "bread"}, "Buy bread")
	if !reflect.DeepEqual(a, b) {
		t.Error("identical calls produced different instructions")
	}
	if a.Params["label"] != "Buy bread" || a.Params["script"] != "shop" {
		t.Errorf("option params = %v", a.Params)
	}
}

func TestSkillBranch_OmitsEmptyBranches(t *testing.T) {
	in := SkillBranch("charm", 4, Say("yes"), types.Instruction{})
	if _, ok := in.Params["failure"]; ok {
		t.Error("empty failure branch should be omitted")
	}
	if !reflect.DeepEqual(in.Params["success"], Say("yes")) {
		t.Errorf("success = %v", in.Params["success"])
	}
}

func TestExitOption(t *testing.T) {
	in := ExitOption("Leave", Narrate("Bye."))
	if in.Params["exit"] != true {
		t.Error("exit flag not set")
	}
	if in.Params["script"].(types.Instruction).Script != "seq" {
		t.Errorf("script = %v", in.Params["script"])
	}
}

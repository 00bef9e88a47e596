package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// builder maps a Lua constructor onto a registered script. Positional
// arguments fill args in order; when rest is set, the remaining arguments
// are collected into a list under that key.
type builder struct {
	script string
	args   []string
	rest   string
}

var builders = map[string]builder{
	// Content.
	"Say":       {script: "say", args: []string{"text", "speaker"}},
	"Narrate":   {script: "narrate", args: []string{"text"}},
	"ShowImage": {script: "showImage", args: []string{"show"}},

	// Control flow.
	"Seq":        {script: "seq", rest: "do"},
	"When":       {script: "when", args: []string{"if"}, rest: "then"},
	"Unless":     {script: "unless", args: []string{"if"}, rest: "then"},
	"Random":     {script: "random", rest: "of"},
	"And":        {script: "and", rest: "of"},
	"Or":         {script: "or", rest: "of"},
	"Not":        {script: "not", args: []string{"of"}},
	"SkillCheck": {script: "skillCheck", args: []string{"skill", "difficulty", "success", "failure"}},
	"Check":      {script: "check", args: []string{"expr"}},

	// Scenes.
	"Scene":        {script: "scene", rest: "do"},
	"SceneWith":    {script: "scene", args: []string{"npc"}, rest: "do"},
	"Scenes":       {script: "scenes", rest: "of"},
	"Menu":         {script: "menu", rest: "do"},
	"Option":       {script: "option", args: []string{"label", "script", "params"}},
	"Branch":       {script: "branch", args: []string{"label"}, rest: "then"},
	"Exit":         {script: "exit", rest: "do"},
	"ReplaceScene": {script: "replaceScene", rest: "do"},

	// State.
	"SetStat":   {script: "setStat", args: []string{"target", "stat", "value"}},
	"AddStat":   {script: "addStat", args: []string{"target", "stat", "amount"}},
	"Stat":      {script: "stat", args: []string{"target", "stat"}},
	"StatGte":   {script: "statGte", args: []string{"target", "stat", "value"}},
	"StatLt":    {script: "statLt", args: []string{"target", "stat", "value"}},
	"SetFlag":   {script: "setFlag", args: []string{"flag", "value"}},
	"Flag":      {script: "flag", args: []string{"flag"}},
	"GiveItem":  {script: "giveItem", args: []string{"item"}},
	"TakeItem":  {script: "takeItem", args: []string{"item"}},
	"HasItem":   {script: "hasItem", args: []string{"item"}},
	"LearnName": {script: "learnName", args: []string{"npc"}},

	// World.
	"GoTo":           {script: "goTo", args: []string{"location"}},
	"Wait":           {script: "wait", args: []string{"minutes"}},
	"TimeLapse":      {script: "timeLapse", args: []string{"minutes"}},
	"Approach":       {script: "approach", args: []string{"npc"}},
	"FollowSchedule": {script: "followSchedule", args: []string{"npc", "schedule"}},
	"MoveNPC":        {script: "moveNPC", args: []string{"npc", "location"}},
	"HourBetween":    {script: "hourBetween", args: []string{"start", "end"}},

	// Cards.
	"AddCard":      {script: "addCard", args: []string{"type", "fields"}},
	"RemoveCard":   {script: "removeCard", args: []string{"card"}},
	"SetCardField": {script: "setCardField", args: []string{"card", "key", "value"}},
	"HasCard":      {script: "hasCard", args: []string{"type"}},
	"ScheduleDate": {script: "scheduleDate", args: []string{"npc", "location", "hour", "minute", "waitMinutes"}},
	"StartDate":    {script: "startDate", args: []string{"npc"}},
	"EndDate":      {script: "endDate", args: []string{"npc"}},
}

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	for name, b := range builders {
		L.SetGlobal(name, L.NewFunction(b.fn))
	}
	registerSpecialBuilders(L)
}

// instruction returns the Lua table form of an instruction:
// { script = name, params = { ... } }.
func instruction(L *lua.LState, script string, params *lua.LTable) *lua.LTable {
	if params == nil {
		params = L.NewTable()
	}
	tbl := L.NewTable()
	tbl.RawSetString("script", lua.LString(script))
	tbl.RawSetString("params", params)
	return tbl
}

func (b builder) fn(L *lua.LState) int {
	params := L.NewTable()
	top := L.GetTop()
	for i, key := range b.args {
		if v := L.Get(i + 1); v != lua.LNil {
			params.RawSetString(key, v)
		}
	}
	if b.rest != "" {
		list := L.NewTable()
		for i := len(b.args) + 1; i <= top; i++ {
			list.Append(L.Get(i))
		}
		params.RawSetString(b.rest, list)
	}
	L.Push(instruction(L, b.script, params))
	return 1
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Location "id" { ... }, NPC "id" { ... }, Card "id" { ... } are curried:
	// the first call takes the id and returns a function taking the table.
	curried := func(list *[]rawDef) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				*list = append(*list, rawDef{id: id, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		})
	}
	L.SetGlobal("Location", curried(&coll.locations))
	L.SetGlobal("NPC", curried(&coll.npcs))
	L.SetGlobal("Card", curried(&coll.cards))

	// Script "name" (instruction) registers a named script.
	L.SetGlobal("Script", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.scripts = append(coll.scripts, rawScript{name: name, body: L.CheckAny(1)})
			return 0
		}))
		return 1
	}))
}

func registerSpecialBuilders(L *lua.LState) {
	// Call("name", { ... }) builds an instruction for any registered script.
	L.SetGlobal("Call", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		params, _ := L.Get(2).(*lua.LTable)
		L.Push(instruction(L, name, params))
		return 1
	}))

	// Cond(c1, e1, c2, e2, ..., default?)
	L.SetGlobal("Cond", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		if top < 2 {
			L.RaiseError("Cond needs at least one condition and expression")
			return 0
		}
		branches := L.NewTable()
		for i := 1; i+1 <= top; i += 2 {
			br := L.NewTable()
			br.RawSetString("if", L.Get(i))
			br.RawSetString("then", L.Get(i+1))
			branches.Append(br)
		}
		params := L.NewTable()
		params.RawSetString("branches", branches)
		if top%2 == 1 {
			params.RawSetString("else", L.Get(top))
		}
		L.Push(instruction(L, "cond", params))
		return 1
	}))

	// ExitOption("label", ...) leaves the menu after running its body.
	L.SetGlobal("ExitOption", L.NewFunction(func(L *lua.LState) int {
		label := L.CheckString(1)
		body := L.NewTable()
		for i := 2; i <= L.GetTop(); i++ {
			body.Append(L.Get(i))
		}
		seqParams := L.NewTable()
		seqParams.RawSetString("do", body)
		params := L.NewTable()
		params.RawSetString("label", lua.LString(label))
		params.RawSetString("script", instruction(L, "seq", seqParams))
		params.RawSetString("exit", lua.LTrue)
		L.Push(instruction(L, "option", params))
		return 1
	}))

	// True and False are constant predicates.
	L.SetGlobal("True", instruction(L, "true", nil))
	L.SetGlobal("False", instruction(L, "false", nil))
}

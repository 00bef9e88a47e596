package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/talecraft/content"
	"github.com/nathoo/talecraft/engine"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game      *lua.LTable
	locations []rawDef
	npcs      []rawDef
	cards     []rawDef
	scripts   []rawScript
}

// rawDef holds a definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// rawScript holds a named script body before compilation.
type rawScript struct {
	name string
	body lua.LValue
}

// Result is a loaded story: a library ready for NewGame plus any
// validation warnings.
type Result struct {
	Library  *engine.Library
	Warnings []string
}

// Load reads all .lua and .yaml files from dir into a new library that
// already carries the builtin scripts and the stock cards, then validates
// every reference. The Lua VM is discarded after loading.
func Load(dir string) (*Result, error) {
	lib := engine.NewLibrary()
	if err := content.Register(lib); err != nil {
		return nil, fmt.Errorf("registering stock content: %w", err)
	}
	return LoadInto(lib, dir)
}

// LoadInto loads dir into an existing, unfrozen library.
func LoadInto(lib *engine.Library, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var luaFiles, yamlFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch ext := filepath.Ext(e.Name()); ext {
		case ".lua":
			luaFiles = append(luaFiles, e.Name())
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)
	sort.Strings(yamlFiles)

	L, coll := newVM()
	defer L.Close()

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	c := &compiler{lib: lib}
	for _, f := range yamlFiles {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		if err := c.yaml(f, data); err != nil {
			return nil, fmt.Errorf("compiling %s: %w", f, err)
		}
	}
	if err := c.compile(coll); err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	warnings, err := validate(lib, c.sources)
	if err != nil {
		return nil, err
	}
	return &Result{Library: lib, Warnings: warnings}, nil
}

// newVM creates a sandboxed Lua state with the authoring API installed.
func newVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

// sortedLuaFiles puts game.lua first, the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Slice(files, func(i, j int) bool {
		gi, gj := files[i] == "game.lua", files[j] == "game.lua"
		if gi != gj {
			return gi
		}
		return strings.Compare(files[i], files[j]) < 0
	})
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content randomness goes through the Random instruction, which draws
	// from the saved game RNG.
	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("random", lua.LNil)
		mathTbl.RawSetString("randomseed", lua.LNil)
	}
}

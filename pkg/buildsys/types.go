package buildsys

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"
	"mvdan.cc/sh/v3/syntax"
)

// ShellCmd is a single shell snippet belonging to a recipe.
type ShellCmd struct {
	RecipeName string
	Content    string
	Index      int
}

func (c ShellCmd) ToRecipe() (*Recipe, error) {
	return nil, nil
}

func (c ShellCmd) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	reader := strings.NewReader(c.Content)
	result, err := parser.Parse(reader, fmt.Sprintf("%s:%d", c.RecipeName, c.Index))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", c.Content)
	}

	return result.Stmts, nil
}

// RecipeRef embeds another recipe in a recipe's command list.
type RecipeRef struct {
	Recipe *Recipe
}

func (r RecipeRef) ToRecipe() (*Recipe, error) {
	return r.Recipe, nil
}

func (r RecipeRef) ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error) {
	return nil, nil
}

// RecipeCmd is either a shell snippet or a reference to another recipe.
type RecipeCmd interface {
	ToRecipe() (*Recipe, error)
	ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error)
}

// Recipe contains the processed values passed to task() by the task script.
type Recipe struct {
	Env          map[string]string
	Name         string
	Group        string
	Desc         string
	Base         string
	Inputs       []string
	Deps         []string
	SkipIfExists []string
	Outputs      []string
	Cmds         []RecipeCmd
	Hidden       bool
}

// QualifiedName returns the "group:name" form recipes are addressed by.
// Ungrouped recipes are addressed by their plain name.
func (r *Recipe) QualifiedName() string {
	if r.Group == "" {
		return r.Name
	}
	return r.Group + ":" + r.Name
}

// RecipeList maps qualified names to their recipes.
type RecipeList map[string]*Recipe

// ScriptOption describes an option() declared by the task script.
type ScriptOption struct {
	DefaultValue starlark.String
	Help         string
}

func (o ScriptOption) Default() string {
	return o.DefaultValue.GoString()
}

// Implement starlark.Value for *Recipe so scripts can pass recipes around.

func (r *Recipe) String() string {
	return fmt.Sprintf("<Recipe %s: %s>", r.QualifiedName(), r.Desc)
}

func (r *Recipe) Type() string {
	return "recipe"
}

// Freeze doesn't do anything since recipes are immutable once declared.
func (r *Recipe) Freeze() {}

func (r *Recipe) Truth() starlark.Bool {
	return starlark.True
}

// Hash always returns an error; recipes aren't used as dict keys.
func (r *Recipe) Hash() (uint32, error) {
	return 0, eris.New("recipe is not a hashable type")
}

// ScriptPath is a filesystem path resolved relative to the task script. It
// behaves like a string inside Starlark but is recognized by the builtins so
// they can re-anchor it when a recipe runs from a different base directory.
type ScriptPath string

func (p ScriptPath) String() string {
	return starlark.String(p).String()
}

func (p ScriptPath) Type() string {
	return "path"
}

func (p ScriptPath) Freeze() {}

func (p ScriptPath) Truth() starlark.Bool {
	return p != ""
}

func (p ScriptPath) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func (p ScriptPath) CompareSameType(op starsyntax.Token, y_ starlark.Value, depth int) (bool, error) {
	y := y_.(ScriptPath)

	switch op {
	case starsyntax.EQL:
		return p == y, nil
	case starsyntax.NEQ:
		return p != y, nil
	case starsyntax.LT:
		return p < y, nil
	case starsyntax.LE:
		return p <= y, nil
	case starsyntax.GT:
		return p > y, nil
	case starsyntax.GE:
		return p >= y, nil
	}

	return false, eris.Errorf("unknown operator %v", op)
}

func (p ScriptPath) Index(i int) starlark.Value {
	return starlark.String(p[i])
}

func (p ScriptPath) Len() int {
	return len(p)
}

func (p ScriptPath) Slice(start, end, step int) starlark.Value {
	return starlark.String(p).Slice(start, end, step)
}

// Package buildsys implements the recipe engine behind `tool task`. Recipes are
// declared in a Starlark script (tasks.star) and executed through mvdan.cc/sh,
// which keeps them portable across platforms without requiring a system shell.
// Recipes are grouped by concern (deps, test, django, docs, lint, build) and run
// fail-fast: a step only starts once the previous one exited successfully.
package buildsys

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg/buildsys"
)

var taskCmd = &cobra.Command{
	Use:   "task [name...] [option=value...]",
	Short: "Run recipes from the nearest tasks.star file",
	Long: `This command parses the first tasks.star file it finds and executes the
given recipes. Recipes are addressed by their qualified name ("group:name"
for grouped recipes, the plain name otherwise). Arguments of the form
option=value override script options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recipeArgs := make([]string, 0)
		options := make(map[string]string)
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		noCache, err := cmd.Flags().GetBool("no-cache")
		if err != nil {
			return err
		}

		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos > -1 {
				options[part[:pos]] = part[pos+1:]
			} else {
				recipeArgs = append(recipeArgs, part)
			}
		}

		_, logger, ctx, err := setup()
		if err != nil {
			return err
		}

		// search the next tasks.star file
		wd, err := os.Getwd()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to retrieve the current working directory")
		}

		path := wd
		var scriptPath string
		for {
			scriptPath = filepath.Join(path, "tasks.star")
			_, err := os.Stat(scriptPath)
			if err == nil {
				break
			}
			if !eris.Is(err, os.ErrNotExist) {
				logger.Fatal().Err(err).Msgf("Failed to check %s", scriptPath)
			}

			parent := filepath.Dir(path)
			if parent == path {
				logger.Fatal().Msg("No tasks.star file found")
			}

			path = parent
		}

		scriptPath, err = filepath.Rel(wd, scriptPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to simplify path")
		}

		projectRoot := filepath.Dir(scriptPath)
		recipes := loadRecipes(ctx, logger, scriptPath, projectRoot, options, noCache)

		for _, name := range recipeArgs {
			recipe, ok := recipes[name]
			if !ok {
				logger.Fatal().Msgf("Recipe %s not found", name)
			}

			err = buildsys.RunRecipe(ctx, projectRoot, recipe, recipes, dryRun, force)
			if err != nil {
				logger.Fatal().Err(err).Msgf("Failed recipe %s:", name)
			}
		}

		if len(recipeArgs) == 0 {
			printRecipeList(recipes)
		}

		return nil
	},
}

// loadRecipes parses the task script, going through the gob cache unless the
// script is newer than the cache or the passed options differ.
func loadRecipes(ctx context.Context, logger zerolog.Logger, scriptPath, projectRoot string, options map[string]string, noCache bool) buildsys.RecipeList {
	cachePath := filepath.Join(projectRoot, ".task-cache")

	if !noCache {
		cacheInfo, err := os.Stat(cachePath)
		if err == nil {
			scriptInfo, err := os.Stat(scriptPath)
			if err == nil && scriptInfo.ModTime().Before(cacheInfo.ModTime()) {
				cachedOptions, recipes, err := buildsys.ReadCache(cachePath)
				if err == nil && optionsMatch(cachedOptions, options) {
					return recipes
				}
				if err != nil {
					logger.Debug().Err(err).Msg("Discarding unreadable recipe cache")
				}
			}
		}
	}

	recipes, _, err := buildsys.Parse(ctx, scriptPath, projectRoot, options)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse recipes")
	}

	if !noCache {
		err = buildsys.WriteCache(cachePath, options, recipes)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write recipe cache")
		}
	}

	return recipes
}

func optionsMatch(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		if b[k] != v {
			return false
		}
	}

	return true
}

// printRecipeList lists visible recipes grouped by their group name.
func printRecipeList(recipes buildsys.RecipeList) {
	groups := make(map[string][]*buildsys.Recipe)
	maxNameLen := 0
	for _, recipe := range recipes {
		if recipe.Hidden {
			continue
		}

		groups[recipe.Group] = append(groups[recipe.Group], recipe)
		if len(recipe.Name) > maxNameLen {
			maxNameLen = len(recipe.Name)
		}
	}

	groupNames := make([]string, 0, len(groups))
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	fmt.Println("Available recipes:")
	lineFmt := fmt.Sprintf("   * %%-%ds %%s\n", maxNameLen+3)
	for _, group := range groupNames {
		if group == "" {
			fmt.Println(" (ungrouped)")
		} else {
			fmt.Printf(" %s\n", group)
		}

		members := groups[group]
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		for _, recipe := range members {
			fmt.Printf(lineFmt, recipe.Name+":", recipe.Desc)
		}
	}
}

func init() {
	taskCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	taskCmd.Flags().BoolP("force", "f", false, "force run; always execute the passed recipes even if they don't have to run")
	taskCmd.Flags().Bool("no-cache", false, "skip the recipe cache and always parse tasks.star")

	rootCmd.AddCommand(taskCmd)
}

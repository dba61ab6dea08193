package buildsys

import (
	"encoding/gob"
	"os"
)

func init() {
	gob.Register(RecipeList{})
	gob.Register(Recipe{})
	gob.Register(ShellCmd{})
	gob.Register(RecipeRef{})
}

// WriteCache stores the parsed recipe list together with the option values it
// was parsed with so a later run can tell whether the cache still applies.
func WriteCache(file string, options map[string]string, list RecipeList) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	encoder := gob.NewEncoder(handle)
	err = encoder.Encode(options)
	if err != nil {
		return err
	}

	return encoder.Encode(list)
}

// ReadCache loads a recipe list written by WriteCache.
func ReadCache(file string) (map[string]string, RecipeList, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	defer handle.Close()

	decoder := gob.NewDecoder(handle)

	var options map[string]string
	err = decoder.Decode(&options)
	if err != nil {
		return nil, nil, err
	}

	var result RecipeList
	err = decoder.Decode(&result)
	if err != nil {
		return options, nil, err
	}

	return options, result, nil
}

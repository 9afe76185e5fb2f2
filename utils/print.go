package utils

import (
	"fmt"

	"github.com/tonika/tonika-bus/json"
)

// PrintJson prints the indented JSON form of the given value.
func PrintJson(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

package textclean_test

import (
	"fmt"

	"ocrsearch/internal/dictionary"
	"ocrsearch/internal/textclean"
)

// ExampleCleaner_Clean shows the full decision chain on a noisy OCR line.
func ExampleCleaner_Clean() {
	dict := dictionary.New([]string{"casa", "porta", "documento", "contrato"}, 2)
	cleaner := textclean.New(dict, textclean.DefaultOptions())

	fmt.Println(cleaner.Clean("O DOCUMNTO da casa, 12 contratocasaporta ##"))
	// Output: documento casa contrato casa porta
}

func ExampleSplitCompound() {
	dict := dictionary.New([]string{"casa", "porta"}, 2)

	fmt.Println(textclean.SplitCompound("casaportaextra", dict))
	// Output: [casa]
}

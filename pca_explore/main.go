// pca_explore is the exploratory dimensionality-reduction side study. It
// encodes ordered clinical categories as integers, which is a modeling
// shortcut the predictive pipeline deliberately avoids; nothing here feeds
// los_model.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	inputFile := flag.String("file", "", "Input discharge CSV file")
	plotFile := flag.String("plot", "scree.png", "Scree plot output (empty to skip)")
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  pca_explore -file discharges.csv [-plot scree.png]\n")
		os.Exit(1)
	}

	rows, err := loadOrdinalRows(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded %d complete rows from %s\n", len(rows), *inputFile)

	res, err := principalComponents(rows)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\n%-4s %12s %12s\n", "PC", "variance", "cumulative")
	cum := 0.0
	for i, v := range res.Proportions {
		cum += v
		fmt.Printf("PC%-2d %11.1f%% %11.1f%%\n", i+1, 100*v, 100*cum)
	}

	fmt.Printf("\nLoadings:\n%-14s", "feature")
	for i := range res.Proportions {
		fmt.Printf(" %8s", fmt.Sprintf("PC%d", i+1))
	}
	fmt.Println()
	for fi, name := range ordinalFeatureNames {
		fmt.Printf("%-14s", name)
		for ci := range res.Proportions {
			fmt.Printf(" %8.3f", res.Loadings.At(fi, ci))
		}
		fmt.Println()
	}

	if *plotFile != "" {
		if err := plotScree(*plotFile, res.Proportions); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("\nScree plot written to %s\n", *plotFile)
	}
}

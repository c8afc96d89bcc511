// Command apply-template runs the template engine once against a
// single PDF file and prints the extracted field values as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/engine"
	"github.com/pdftpl/templateengine/internal/extract"
	"github.com/pdftpl/templateengine/internal/repository"
	"github.com/pdftpl/templateengine/internal/template"
)

var (
	templatesPath = flag.String("templates", defaultTemplatesPath(), "Path to the JSON template store")
	templateID    = flag.String("template", "", "ID of the registered template to apply")
	debug         = flag.Bool("debug", false, "Include the anchor/transform/box diagnostics envelope")
	help          = flag.Bool("help", false, "Show help message")
)

func defaultTemplatesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return home + "/.templateengine/templates.json"
}

func main() {
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if *templateID == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: -template and a PDF file path are required")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", pdfPath)
		os.Exit(1)
	}

	repo, err := repository.NewJSONFile(*templatesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open template store %s: %v\n", *templatesPath, err)
		os.Exit(1)
	}

	ctx := context.Background()
	tpl, err := repo.Get(ctx, *templateID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	blocks, err := collectBlocks(ctx, tpl, pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: extraction failed: %v\n", err)
		os.Exit(1)
	}

	result, err := engine.New(nil).Apply(tpl, blocks, engine.Options{IncludeDebug: *debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
		os.Exit(1)
	}
}

func collectBlocks(ctx context.Context, tpl *template.Template, path string) ([]block.Block, error) {
	extractor := extract.NewDefaultChain()

	pages := map[int]bool{1: true}
	for p := range tpl.Meta.Pages {
		pages[p] = true
	}
	for _, b := range tpl.Boxes {
		pages[b.Page] = true
	}

	var all []block.Block
	for page := range pages {
		_, blocks, err := extractor.Extract(ctx, path, page)
		if err != nil {
			continue
		}
		all = append(all, blocks...)
	}
	return all, nil
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  apply-template -template <id> [-templates <path>] [-debug] <pdf_file>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template      ID of the registered template to apply (required)")
	fmt.Println("  -templates     Path to the JSON template store")
	fmt.Println("  -debug         Include the anchor/transform/box diagnostics envelope")
	fmt.Println("  -help          Show this help message")
}

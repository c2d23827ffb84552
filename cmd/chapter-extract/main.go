// main package for the chapter extraction tool. It parses a source document
// (plain text, PDF, or EPUB) into a chapter batch JSON file ready for
// narration.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/audiobook-service/internal/extract"
)

var errInputRequired = errors.New("--input is required")

// Flag names and descriptions.
const (
	flagInput      = "input"
	flagOutput     = "output"
	flagInputDesc  = "Source document (.txt, .pdf, or .epub)"
	flagOutputDesc = "Output batch file path (defaults to the input name with .json)"
)

const batchFileSuffix = ".json"

func run() error {
	var inputPath, outputPath string

	flag.StringVar(&inputPath, flagInput, "", flagInputDesc)
	flag.StringVar(&outputPath, flagOutput, "", flagOutputDesc)
	flag.Parse()

	if inputPath == "" {
		flag.Usage()

		return errInputRequired
	}

	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + batchFileSuffix
	}

	chapters, err := extract.ParseDocument(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	err = extract.WriteBatch(outputPath, chapters)
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	fmt.Printf("Extracted %d chapters to %s\n", len(chapters), outputPath)

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chapter-extract: %v\n", err)
		os.Exit(1)
	}
}

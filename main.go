package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mickamy/activerecord/internal/gen"
)

var version = "dev"

func main() {
	types := flag.String("type", "", "comma separated struct names (optional; every model struct in the file if omitted)")
	inflect := flag.Bool("inflect", false, "pin table names using English inflection (category -> categories)")
	out := flag.String("out", "", "output file (optional; <file>_ar.go next to the source if omitted)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("activerecord-gen", version)
		return
	}

	goFile := os.Getenv("GOFILE")
	if goFile == "" {
		goFile = flag.Arg(0)
	}
	if goFile == "" {
		log.Fatal("GOFILE environment variable is not set (run via go:generate) and no file argument given")
	}

	infos, err := gen.Parse(goFile, splitTypes(*types)...)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	if len(infos) == 0 {
		log.Fatalf("no model structs found in %s", goFile)
	}

	src, err := gen.RenderFile(infos, gen.RenderOption{Inflect: *inflect})
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	outPath := *out
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(goFile), ".go")
		outPath = filepath.Join(filepath.Dir(goFile), base+"_ar.go")
	}

	if err := os.WriteFile(outPath, src, 0o644); err != nil { //nolint:gosec // generated code should be world-readable
		log.Fatalf("write %s: %v", outPath, err)
	}

	fmt.Printf("activerecord-gen: wrote %s\n", outPath)
}

func splitTypes(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/obj"
	"github.com/mogaika/obj_scene_viewer/config"
)

type jsonReport struct {
	*obj.Report
	Error string `json:"error,omitempty"`
}

func main() {
	var asJson, quiet bool
	var vertexMode, encoding string
	flag.BoolVar(&asJson, "json", false, "Print reports as json")
	flag.BoolVar(&quiet, "q", false, "Print only files with errors")
	flag.StringVar(&vertexMode, "vertices", "split", "Vertex mode: 'split' or 'slice'")
	flag.StringVar(&encoding, "encoding", "", "Charmap of the files, default utf-8")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] model.obj...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}
	mode, err := obj.ParseVertexMode(vertexMode)
	if err != nil {
		log.Fatal(err)
	}

	failed := 0
	var reports []jsonReport
	for _, fname := range flag.Args() {
		r := obj.Check(fname, obj.Options{VertexMode: mode})
		if r.Failed() {
			failed++
		}
		if quiet && !r.Failed() && countErrors(r.Diagnostics) == 0 {
			continue
		}
		if asJson {
			jr := jsonReport{Report: r}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
			reports = append(reports, jr)
			continue
		}
		printReport(r)
	}

	if asJson {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			log.Fatal(err)
		}
	}
	if failed != 0 {
		os.Exit(1)
	}
}

// countErrors counts everything worse than a warning
func countErrors(diags []diag.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Kind != diag.Warning {
			n++
		}
	}
	return n
}

func printReport(r *obj.Report) {
	if r.Failed() {
		fmt.Printf("%s: FAILED: %v\n", r.File, r.Err)
	} else {
		fmt.Printf("%s: %d meshes, %d materials, %d vertices, %d triangles\n",
			r.File, r.Meshes, r.Materials, r.Vertices, r.Triangles)
	}
	for _, d := range r.Diagnostics {
		fmt.Printf("\t%v\n", d)
	}
}

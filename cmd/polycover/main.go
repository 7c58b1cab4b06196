// Command polycover prints the geohash covering of a polygon file, or stores
// it in SQLite, or exports the covering cells as a FlatGeobuf layer.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/fgb"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
	"github.com/mohammed-shakir/geohash-polyfill/internal/logger"
	geohashmapper "github.com/mohammed-shakir/geohash-polyfill/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/store/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	in        string
	format    string
	precision int
	inner     bool
	compact   bool
	db        string
	export    string
	logLevel  string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("polycover", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "-", "input file, - for stdin")
	fs.StringVar(&o.format, "format", "auto", "input format: auto|wkt|wkb|geojson|fgb")
	fs.IntVar(&o.precision, "precision", 6, "geohash precision 1..12")
	fs.BoolVar(&o.inner, "inner", false, "only cells fully inside the polygon")
	fs.BoolVar(&o.compact, "compact", false, "merge complete sibling groups into their parent")
	fs.StringVar(&o.db, "db", "", "store the covering in this SQLite file instead of printing it")
	fs.StringVar(&o.export, "export", "", "also write the covering cells as a FlatGeobuf polygon layer")
	fs.StringVar(&o.logLevel, "log-level", "warn", "debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	zl := logger.Build(logger.Config{Level: o.logLevel, Console: true, Component: "polycover"}, stderr)
	log := logger.NewSlog(&zl)

	format, err := geometry.ParseFormat(o.format)
	if err != nil {
		log.Error("bad -format", "err", err)
		return 2
	}
	data, err := readInput(o.in, stdin)
	if err != nil {
		log.Error("read input", "in", o.in, "err", err)
		return 1
	}
	shape, err := geometry.Parse(data, format)
	if err != nil {
		log.Error("parse geometry", "in", o.in, "err", err)
		return 1
	}

	mapr := geohashmapper.New()
	cells, st, err := mapr.CellsForShape(shape, o.precision, o.inner)
	if err != nil {
		log.Error("cover", "err", err)
		return 1
	}
	if o.compact {
		cells = geohashmapper.Compact(cells)
	}
	log.Info("covered",
		"members", st.Members,
		"visited", st.Visited,
		"cells", len(cells),
		"precision", o.precision,
		"inner", o.inner)

	switch {
	case o.export == "":
	case len(cells) == 0:
		log.Warn("empty covering, skipping export", "out", o.export)
	default:
		if err := exportCells(o.export, cells); err != nil {
			log.Error("export", "out", o.export, "err", err)
			return 1
		}
	}

	if o.db != "" {
		store, err := sqlite.NewStore(o.db)
		if err != nil {
			log.Error("open db", "db", o.db, "err", err)
			return 1
		}
		defer store.Close()
		n, err := store.Save(context.Background(), sourceName(o.in), o.precision, o.inner, cells)
		if err != nil {
			log.Error("save covering", "db", o.db, "err", err)
			return 1
		}
		log.Info("stored covering", "db", o.db, "rows", n)
		return 0
	}

	w := bufio.NewWriter(stdout)
	for _, c := range cells {
		fmt.Fprintln(w, c)
	}
	if err := w.Flush(); err != nil {
		log.Error("write output", "err", err)
		return 1
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

func exportCells(path string, cells model.Cells) error {
	polys := make([]orb.Polygon, 0, len(cells))
	for _, c := range cells {
		b, err := geohash.DecodeBounds(c)
		if err != nil {
			return err
		}
		polys = append(polys, b.ToPolygon())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fgb.WritePolygons(f, "covering", polys); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"flag"
	"io"
	"log"
	"os"
	"runtime"

	"geoclaim/internal/model"
	"geoclaim/internal/service/catalog"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
)

func main() {
	input := flag.String("input", "", "Path to an OSM .pbf extract")
	output := flag.String("output", "catalog.geojson", "Output GeoJSON catalog seed")
	bbox := flag.String("bbox", "", "Optional minLat,minLng,maxLat,maxLng filter")
	radius := flag.Float64("radius", model.DefaultClaimRadiusKm, "Claim radius in km for every item")
	limit := flag.Int("limit", 0, "Stop after this many items (0 = no limit)")
	flag.Parse()

	if *input == "" {
		log.Fatal("No input file specified. Use --input <path-to-osm.pbf>")
	}

	var bound *orb.Bound
	if *bbox != "" {
		b, err := parseBBox(*bbox)
		if err != nil {
			log.Fatal(err)
		}
		bound = &b
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	decoder := osmpbf.NewDecoder(f)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	numProcs := runtime.GOMAXPROCS(-1)
	if err := decoder.Start(numProcs); err != nil {
		log.Fatalf("Failed to start decoder: %v", err)
	}
	log.Printf("Processing %s with %d processors", *input, numProcs)

	var items []model.CollectibleItem
	nodes := 0
	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Error decoding: %v", err)
		}

		node, ok := object.(*osmpbf.Node)
		if !ok {
			continue
		}
		nodes++
		if bound != nil && !bound.Contains(orb.Point{node.Lon, node.Lat}) {
			continue
		}
		item, ok := poiFromNode(node.ID, node.Lat, node.Lon, node.Tags, *radius)
		if !ok {
			continue
		}
		items = append(items, item)
		if *limit > 0 && len(items) >= *limit {
			break
		}
	}
	log.Printf("Scanned %d nodes, kept %d places", nodes, len(items))

	data, err := catalog.ExportGeoJSON(items)
	if err != nil {
		log.Fatalf("Failed to encode catalog: %v", err)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("Catalog written to %s", *output)
}

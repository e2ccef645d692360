// Command genmock writes a deterministic synthetic climate CSV in the format
// the loader reads. The same seed always produces the same file. The data
// includes blank event types, numeric outliers, and rows that repeat an
// earlier row's natural keys so every merge path is exercised.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/climate.csv -rows 5000 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

var (
	levels     = []string{"Low", "Medium", "High"}
	eventTypes = []string{"Flood", "Drought", "Hurricane", "Wildfire", "Heatwave", "Storm"}
	regions    = []string{"Africa", "Asia", "Europe", "North America", "Oceania", "South America"}
	ecosystems = []string{"Forest", "Desert", "Marine", "Tundra", "Grassland", "Wetland"}
	sources    = []string{"NOAA", "NASA", "IPCC", "WMO"}
)

var header = []string{
	domain.ColYear,
	domain.ColTemperatureCategory,
	domain.ColCO2Category,
	domain.ColSeaLevelCategory,
	domain.ColExtremeEventType,
	domain.ColRegion,
	domain.ColEcosystem,
	domain.ColDataSource,
	domain.ColGlobalAvgTemp,
	domain.ColCO2Concentration,
	domain.ColSeaLevelRise,
	domain.ColExtremeEventsCount,
	domain.ColEconomicLoss,
}

// Share of rows (per mille) given each irregularity.
const (
	blankEventPerMille = 40
	outlierPerMille    = 15
	repeatPerMille     = 120
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the CSV")
	rows := flag.Int("rows", 5000, "number of data rows")
	seed := flag.Uint64("seed", 42, "random seed")
	chunk := flag.Int("chunk", 10000, "chunk size used for the outlier preview")
	flag.Parse()

	if *out == "" || *rows < 1 || *chunk < 1 {
		flag.Usage()
		return fmt.Errorf("-out is required and -rows, -chunk must be positive")
	}

	obs := generate(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)), *rows)

	if err := writeCSV(*out, obs); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows to %s", len(obs), *out)

	printStats(obs, *chunk)
	return nil
}

func generate(r *rand.Rand, n int) []domain.Observation {
	pick := func(s []string) string { return s[r.IntN(len(s))] }

	obs := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		var o domain.Observation
		if i > 0 && r.IntN(1000) < repeatPerMille {
			// Same natural keys as an earlier row, fresh measurements.
			o = obs[r.IntN(len(obs))]
		} else {
			o = domain.Observation{
				Year:                1990 + r.IntN(34),
				TemperatureCategory: pick(levels),
				CO2Category:         pick(levels),
				SeaLevelCategory:    pick(levels),
				ExtremeEventType:    pick(eventTypes),
				Region:              pick(regions),
				Ecosystem:           pick(ecosystems),
				DataSource:          pick(sources),
			}
		}
		o.Row = i + 1

		trend := float64(o.Year - 1990)
		o.GlobalAvgTemp = round(14+0.02*trend+r.NormFloat64()*0.3, 2)
		o.CO2Concentration = round(355+1.9*trend+r.NormFloat64()*4, 2)
		o.SeaLevelRise = round(1.5+0.1*trend+r.NormFloat64()*0.5, 2)
		o.ExtremeEventsCount = float64(5 + r.IntN(25))
		o.EconomicLoss = round(0.5+r.Float64()*9.5, 2)

		if r.IntN(1000) < outlierPerMille {
			o.EconomicLoss = round(o.EconomicLoss*(40+r.Float64()*60), 2)
		}
		if r.IntN(1000) < blankEventPerMille {
			o.ExtremeEventType = ""
		}
		obs = append(obs, o)
	}
	return obs
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeCSV(path string, obs []domain.Observation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, o := range obs {
		if err := w.Write(record(o)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func record(o domain.Observation) []string {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		strconv.Itoa(o.Year),
		o.TemperatureCategory,
		o.CO2Category,
		o.SeaLevelCategory,
		o.ExtremeEventType,
		o.Region,
		o.Ecosystem,
		o.DataSource,
		num(o.GlobalAvgTemp),
		num(o.CO2Concentration),
		num(o.SeaLevelRise),
		strconv.Itoa(int(o.ExtremeEventsCount)),
		num(o.EconomicLoss),
	}
}

// printStats runs the real chunk transform over the generated rows and reports
// what a load would keep.
func printStats(obs []domain.Observation, chunk int) {
	blank := 0
	for _, o := range obs {
		if o.ExtremeEventType == "" {
			blank++
		}
	}

	work := make([]domain.Observation, len(obs))
	copy(work, obs)

	kept := 0
	dropped := map[string]int{}
	for start := 0; start < len(work); start += chunk {
		end := min(start+chunk, len(work))
		res, err := domain.TransformChunk(work[start:end], "", domain.DefaultMetricOrder)
		if err != nil {
			log.Printf("transform preview failed: %v", err)
			return
		}
		kept += len(res.Kept)
		for m, n := range res.Dropped {
			dropped[m] += n
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("rows:               %d\n", len(obs))
	fmt.Printf("blank event types:  %d\n", blank)
	fmt.Printf("kept after filter:  %d (chunk size %d)\n", kept, chunk)

	names := make([]string, 0, len(dropped))
	for m := range dropped {
		names = append(names, m)
	}
	sort.Strings(names)
	for _, m := range names {
		fmt.Printf("  dropped by %-22s %d\n", m+":", dropped[m])
	}
}
